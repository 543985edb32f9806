package model

// UserRole defines the permission level attached to a set of credentials.
type UserRole string

const (
	RoleAdmin        UserRole = "admin"        // platform administrator
	RoleOrganization UserRole = "organization" // organization administrator
	RoleTeacher      UserRole = "teacher"
	RoleStudent      UserRole = "student"
	RoleUser         UserRole = "user" // individual user, no organization
)

// QuestionType discriminates the grading payload carried by a Question.
type QuestionType string

const (
	QuestionMCQ          QuestionType = "mcq"
	QuestionCoding       QuestionType = "coding"
	QuestionFillInBlanks QuestionType = "fill_in_blanks"
	QuestionShortAnswer  QuestionType = "short_answer"
)

// OrgApprovalStatus tracks an organization's registration request.
type OrgApprovalStatus string

const (
	OrgPending  OrgApprovalStatus = "pending"
	OrgApproved OrgApprovalStatus = "approved"
	OrgRejected OrgApprovalStatus = "rejected"
)

// InvitationStatus tracks an invitation to join an organization.
// Pending is the only non-terminal state.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
	InvitationExpired   InvitationStatus = "expired"
	InvitationCancelled InvitationStatus = "cancelled"
)

// QuizStatus is the quiz lifecycle: draft -> published -> archived.
type QuizStatus string

const (
	QuizDraft     QuizStatus = "draft"
	QuizPublished QuizStatus = "published"
	QuizArchived  QuizStatus = "archived"
)

// AttemptStatus tracks a student's run through a quiz.
// in_progress is the only non-terminal state.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptGraded     AttemptStatus = "graded"
	AttemptTimedOut   AttemptStatus = "timed_out"
)

// Terminal reports whether no further transition is defined for the status.
func (s AttemptStatus) Terminal() bool {
	return s != AttemptInProgress
}

// Terminal reports whether the invitation can no longer change state.
func (s InvitationStatus) Terminal() bool {
	return s != InvitationPending
}
