package service

import (
	"sort"
	"time"

	"github.com/codequizhub/codequizhub/internal/model"
	"github.com/codequizhub/codequizhub/internal/repository"
	"gorm.io/gorm"
)

// In-memory fakes satisfying the repository interfaces. They mimic the CAS
// semantics of the real stores so the race handling paths are testable.

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

type fakeUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]*model.User{}}
}

func (r *fakeUserRepo) add(u model.User) *model.User {
	if u.ID == 0 {
		r.nextID++
		u.ID = r.nextID
	} else if u.ID > r.nextID {
		r.nextID = u.ID
	}
	r.users[u.ID] = &u
	return &u
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(id uint) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindCredentialsByUsername(username string) (*model.Credentials, error) {
	for _, u := range r.users {
		if u.Credentials.Username == username {
			creds := u.Credentials
			return &creds, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) ListByOrganization(orgID uint) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.OrganizationID != nil && *u.OrganizationID == orgID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(user *model.User) error {
	r.users[user.ID] = user
	return nil
}

type fakeOrgRepo struct {
	orgs   map[uint]*model.Organization
	users  *fakeUserRepo
	nextID uint
}

func newFakeOrgRepo(users *fakeUserRepo) *fakeOrgRepo {
	return &fakeOrgRepo{orgs: map[uint]*model.Organization{}, users: users}
}

func (r *fakeOrgRepo) add(org model.Organization) *model.Organization {
	if org.ID == 0 {
		r.nextID++
		org.ID = r.nextID
	} else if org.ID > r.nextID {
		r.nextID = org.ID
	}
	r.orgs[org.ID] = &org
	return &org
}

func (r *fakeOrgRepo) CreateWithAdmin(org *model.Organization, admin *model.User, creds *model.Credentials) error {
	r.nextID++
	org.ID = r.nextID
	creds.ID = org.ID
	admin.Credentials = *creds
	admin.CredentialsID = creds.ID
	admin.OrganizationID = &org.ID
	r.users.Create(admin)
	org.AdminUserID = &admin.ID
	r.orgs[org.ID] = org
	return nil
}

func (r *fakeOrgRepo) FindByID(id uint) (*model.Organization, error) {
	org, ok := r.orgs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *org
	return &copied, nil
}

func (r *fakeOrgRepo) FindByName(name string) (*model.Organization, error) {
	for _, org := range r.orgs {
		if org.Name == name {
			copied := *org
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrgRepo) ListByStatus(status model.OrgApprovalStatus) ([]model.Organization, error) {
	var out []model.Organization
	for _, org := range r.orgs {
		if org.ApprovalStatus == status {
			out = append(out, *org)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeOrgRepo) UpdateStatusIf(org *model.Organization, expected model.OrgApprovalStatus) (int64, error) {
	stored, ok := r.orgs[org.ID]
	if !ok || stored.ApprovalStatus != expected {
		return 0, nil
	}
	*stored = *org
	return 1, nil
}

func (r *fakeOrgRepo) ActivateMemberCredentials(orgID uint) (int64, error) {
	var activated int64
	for _, u := range r.users.users {
		if u.OrganizationID != nil && *u.OrganizationID == orgID && !u.Credentials.IsActive {
			u.Credentials.IsActive = true
			activated++
		}
	}
	return activated, nil
}

type fakeInvitationRepo struct {
	invitations map[uint]*model.Invitation
	users       *fakeUserRepo
	nextID      uint
	// duplicateOnAccept makes the next AcceptWithUser fail the way a unique
	// constraint violation on username or email would.
	duplicateOnAccept bool
}

func newFakeInvitationRepo(users *fakeUserRepo) *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: map[uint]*model.Invitation{}, users: users}
}

func (r *fakeInvitationRepo) Create(inv *model.Invitation) error {
	r.nextID++
	inv.ID = r.nextID
	copied := *inv
	r.invitations[inv.ID] = &copied
	return nil
}

func (r *fakeInvitationRepo) FindByID(id uint) (*model.Invitation, error) {
	inv, ok := r.invitations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *inv
	return &copied, nil
}

func (r *fakeInvitationRepo) FindByToken(token string) (*model.Invitation, error) {
	for _, inv := range r.invitations {
		if inv.Token == token {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInvitationRepo) ListByOrganization(orgID uint) ([]model.Invitation, error) {
	var out []model.Invitation
	for _, inv := range r.invitations {
		if inv.OrganizationID == orgID {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeInvitationRepo) UpdateStatusIf(inv *model.Invitation, expected model.InvitationStatus) (int64, error) {
	stored, ok := r.invitations[inv.ID]
	if !ok || stored.Status != expected {
		return 0, nil
	}
	*stored = *inv
	return 1, nil
}

func (r *fakeInvitationRepo) AcceptWithUser(inv *model.Invitation, user *model.User, creds *model.Credentials) (int64, error) {
	if r.duplicateOnAccept {
		return 0, gorm.ErrDuplicatedKey
	}
	stored, ok := r.invitations[inv.ID]
	if !ok || stored.Status != model.InvitationPending {
		return 0, nil
	}
	user.Credentials = *creds
	r.users.Create(user)
	user.CredentialsID = user.ID
	inv.AcceptedByUserID = &user.ID
	*stored = *inv
	return 1, nil
}

type fakeQuestionRepo struct {
	questions map[uint]*model.Question
	nextID    uint
}

func newFakeQuestionRepo() *fakeQuestionRepo {
	return &fakeQuestionRepo{questions: map[uint]*model.Question{}}
}

func (r *fakeQuestionRepo) add(q model.Question) *model.Question {
	if q.ID == 0 {
		r.nextID++
		q.ID = r.nextID
	} else if q.ID > r.nextID {
		r.nextID = q.ID
	}
	r.questions[q.ID] = &q
	return &q
}

func (r *fakeQuestionRepo) Create(question *model.Question) error {
	r.nextID++
	question.ID = r.nextID
	for i := range question.Options {
		question.Options[i].ID = question.ID*100 + uint(i) + 1
		question.Options[i].QuestionID = question.ID
	}
	for i := range question.TestCases {
		question.TestCases[i].ID = question.ID*100 + uint(i) + 1
		question.TestCases[i].QuestionID = question.ID
	}
	copied := *question
	r.questions[question.ID] = &copied
	return nil
}

func (r *fakeQuestionRepo) FindByID(id uint) (*model.Question, error) {
	q, ok := r.questions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *q
	return &copied, nil
}

func (r *fakeQuestionRepo) FindByIDs(ids []uint) ([]model.Question, error) {
	var out []model.Question
	for _, id := range ids {
		if q, ok := r.questions[id]; ok {
			out = append(out, *q)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) ListByOrganization(orgID uint) ([]model.Question, error) {
	var out []model.Question
	for _, q := range r.questions {
		if q.OrganizationID != nil && *q.OrganizationID == orgID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeQuestionRepo) ListPublic() ([]model.Question, error) {
	var out []model.Question
	for _, q := range r.questions {
		if q.IsPublic {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeQuestionRepo) Update(question *model.Question) error {
	copied := *question
	r.questions[question.ID] = &copied
	return nil
}

func (r *fakeQuestionRepo) Delete(id uint) error {
	if _, ok := r.questions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.questions, id)
	return nil
}

type fakeQuizRepo struct {
	quizzes map[uint]*model.Quiz
	nextID  uint
}

func newFakeQuizRepo() *fakeQuizRepo {
	return &fakeQuizRepo{quizzes: map[uint]*model.Quiz{}}
}

func (r *fakeQuizRepo) add(q model.Quiz) *model.Quiz {
	if q.ID == 0 {
		r.nextID++
		q.ID = r.nextID
	} else if q.ID > r.nextID {
		r.nextID = q.ID
	}
	r.quizzes[q.ID] = &q
	return &q
}

func (r *fakeQuizRepo) Create(quiz *model.Quiz) error {
	r.nextID++
	quiz.ID = r.nextID
	for i := range quiz.QuizQuestions {
		quiz.QuizQuestions[i].QuizID = quiz.ID
	}
	copied := *quiz
	r.quizzes[quiz.ID] = &copied
	return nil
}

func (r *fakeQuizRepo) FindByID(id uint) (*model.Quiz, error) {
	q, ok := r.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *q
	copied.QuizQuestions = nil
	return &copied, nil
}

func (r *fakeQuizRepo) FindByIDWithQuestions(id uint) (*model.Quiz, error) {
	q, ok := r.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *q
	copied.QuizQuestions = append([]model.QuizQuestion(nil), q.QuizQuestions...)
	return &copied, nil
}

func (r *fakeQuizRepo) ListByOrganization(orgID uint) ([]model.Quiz, error) {
	var out []model.Quiz
	for _, q := range r.quizzes {
		if q.OrganizationID == orgID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeQuizRepo) ListByOrganizationAndStatus(orgID uint, status model.QuizStatus) ([]model.Quiz, error) {
	var out []model.Quiz
	for _, q := range r.quizzes {
		if q.OrganizationID == orgID && q.Status == status {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeQuizRepo) UpdateStatusIf(quiz *model.Quiz, expected model.QuizStatus) (int64, error) {
	stored, ok := r.quizzes[quiz.ID]
	if !ok || stored.Status != expected {
		return 0, nil
	}
	stored.Status = quiz.Status
	stored.PublishedAt = quiz.PublishedAt
	return 1, nil
}

type fakeAttemptRepo struct {
	attempts  map[uint]*model.Attempt
	responses map[uint][]*model.Response
	nextID    uint
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{
		attempts:  map[uint]*model.Attempt{},
		responses: map[uint][]*model.Response{},
	}
}

func (r *fakeAttemptRepo) CreateIfNoneInFlight(attempt *model.Attempt) error {
	for _, a := range r.attempts {
		if a.QuizID == attempt.QuizID && a.UserID == attempt.UserID && a.Status == model.AttemptInProgress {
			return repository.ErrAttemptInFlight
		}
	}
	r.nextID++
	attempt.ID = r.nextID
	copied := *attempt
	r.attempts[attempt.ID] = &copied
	return nil
}

func (r *fakeAttemptRepo) FindByID(id uint) (*model.Attempt, error) {
	a, ok := r.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	return &copied, nil
}

func (r *fakeAttemptRepo) FindByIDWithResponses(id uint) (*model.Attempt, error) {
	a, ok := r.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	for _, resp := range r.responses[id] {
		copied.Responses = append(copied.Responses, *resp)
	}
	sort.Slice(copied.Responses, func(i, j int) bool {
		return copied.Responses[i].QuestionID < copied.Responses[j].QuestionID
	})
	return &copied, nil
}

func (r *fakeAttemptRepo) ListByQuizAndUser(quizID, userID uint) ([]model.Attempt, error) {
	var out []model.Attempt
	for _, a := range r.attempts {
		if a.QuizID == quizID && a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAttemptRepo) ListByQuiz(quizID uint) ([]model.Attempt, error) {
	var out []model.Attempt
	for _, a := range r.attempts {
		if a.QuizID == quizID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAttemptRepo) TransitionStatus(attempt *model.Attempt, expected model.AttemptStatus) (int64, error) {
	stored, ok := r.attempts[attempt.ID]
	if !ok || stored.Status != expected {
		return 0, nil
	}
	stored.Status = attempt.Status
	stored.SubmittedAt = attempt.SubmittedAt
	return 1, nil
}

func (r *fakeAttemptRepo) UpsertResponse(resp *model.Response) error {
	for _, stored := range r.responses[resp.AttemptID] {
		if stored.QuestionID == resp.QuestionID {
			resp.ID = stored.ID
			*stored = *resp
			return nil
		}
	}
	r.nextID++
	resp.ID = r.nextID
	copied := *resp
	r.responses[resp.AttemptID] = append(r.responses[resp.AttemptID], &copied)
	return nil
}

func (r *fakeAttemptRepo) UpdateResponseGrades(responses []model.Response) error {
	for _, graded := range responses {
		for _, stored := range r.responses[graded.AttemptID] {
			if stored.QuestionID == graded.QuestionID {
				stored.AwardedPoints = graded.AwardedPoints
				stored.IsCorrect = graded.IsCorrect
				stored.Feedback = graded.Feedback
				stored.GradedAt = graded.GradedAt
			}
		}
	}
	return nil
}

func (r *fakeAttemptRepo) SetFinalScore(attemptID uint, score float64, status model.AttemptStatus) error {
	stored, ok := r.attempts[attemptID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Score = &score
	stored.Status = status
	return nil
}
