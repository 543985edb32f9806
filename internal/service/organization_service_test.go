package service

import (
	"errors"
	"testing"
	"time"

	"github.com/codequizhub/codequizhub/internal/dto"
	"github.com/codequizhub/codequizhub/internal/model"
)

type orgFixture struct {
	orgs    *fakeOrgRepo
	users   *fakeUserRepo
	svc     OrganizationService
	adminID uint
}

func newOrgFixture(t *testing.T) *orgFixture {
	t.Helper()

	users := newFakeUserRepo()
	f := &orgFixture{
		orgs:  newFakeOrgRepo(users),
		users: users,
	}
	platformAdmin := users.add(model.User{
		Email:       "root@platform.example",
		Credentials: model.Credentials{Role: model.RoleAdmin, IsActive: true},
	})
	f.adminID = platformAdmin.ID
	f.svc = NewOrganizationService(f.orgs, f.users, fixedClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)))
	return f
}

func (f *orgFixture) register(t *testing.T, name string) *dto.OrganizationResponseDTO {
	t.Helper()
	org, err := f.svc.Register(dto.OrganizationRegisterDTO{
		Name:          name,
		AdminUsername: name + "-admin",
		AdminEmail:    name + "-admin@example.com",
		AdminPassword: "s3cret-pass",
		AdminName:     "Org Admin",
	})
	if err != nil {
		t.Fatalf("Register(%q): %v", name, err)
	}
	return org
}

func TestRegisterCreatesPendingOrgWithInactiveAdmin(t *testing.T) {
	f := newOrgFixture(t)

	org := f.register(t, "acme")
	if org.ApprovalStatus != model.OrgPending {
		t.Errorf("status = %s, want pending", org.ApprovalStatus)
	}
	if org.AdminUserID == nil {
		t.Fatal("admin user not created")
	}
	admin, err := f.users.FindByID(*org.AdminUserID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if admin.Credentials.Role != model.RoleOrganization {
		t.Errorf("admin role = %s, want organization", admin.Credentials.Role)
	}
	if admin.Credentials.IsActive {
		t.Error("admin credentials must stay inactive until activation")
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	f := newOrgFixture(t)
	f.register(t, "acme")

	_, err := f.svc.Register(dto.OrganizationRegisterDTO{
		Name:          "acme",
		AdminUsername: "other-admin",
		AdminEmail:    "other@example.com",
		AdminPassword: "s3cret-pass",
	})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
}

func TestApproveRequiresPlatformAdmin(t *testing.T) {
	f := newOrgFixture(t)
	org := f.register(t, "acme")

	// The organization's own admin cannot approve itself.
	if _, err := f.svc.Approve(org.ID, *org.AdminUserID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestApprovePendingOnly(t *testing.T) {
	f := newOrgFixture(t)
	org := f.register(t, "acme")

	approved, err := f.svc.Approve(org.ID, f.adminID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.ApprovalStatus != model.OrgApproved || approved.ApprovedAt == nil {
		t.Errorf("got %+v, want approved with timestamp", approved)
	}
	if _, err := f.svc.Approve(org.ID, f.adminID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double approve err = %v, want ErrInvalidTransition", err)
	}
}

func TestApproveDoesNotActivateCredentials(t *testing.T) {
	f := newOrgFixture(t)
	org := f.register(t, "acme")

	if _, err := f.svc.Approve(org.ID, f.adminID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	admin, err := f.users.FindByID(*org.AdminUserID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if admin.Credentials.IsActive {
		t.Error("approval must not activate credentials, activation is a separate step")
	}
}

func TestRejectAndResetRejected(t *testing.T) {
	f := newOrgFixture(t)
	org := f.register(t, "acme")

	rejected, err := f.svc.Reject(org.ID, f.adminID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.ApprovalStatus != model.OrgRejected || rejected.RejectedAt == nil {
		t.Errorf("got %+v, want rejected with timestamp", rejected)
	}

	reset, err := f.svc.ResetRejected(org.ID, f.adminID)
	if err != nil {
		t.Fatalf("ResetRejected: %v", err)
	}
	if reset.ApprovalStatus != model.OrgPending {
		t.Errorf("status = %s, want pending after reset", reset.ApprovalStatus)
	}
	if reset.ApprovedAt != nil || reset.RejectedAt != nil {
		t.Error("reset must clear the decision timestamps")
	}

	// Reset only applies to rejected organizations.
	if _, err := f.svc.ResetRejected(org.ID, f.adminID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("reset of pending org err = %v, want ErrInvalidTransition", err)
	}
}

func TestActivateMembersIsIdempotent(t *testing.T) {
	f := newOrgFixture(t)
	org := f.register(t, "acme")
	if _, err := f.svc.Approve(org.ID, f.adminID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	activated, err := f.svc.ActivateMembers(org.ID, f.adminID)
	if err != nil {
		t.Fatalf("ActivateMembers: %v", err)
	}
	if activated != 1 {
		t.Errorf("activated = %d, want 1 (the org admin)", activated)
	}
	admin, err := f.users.FindByID(*org.AdminUserID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if !admin.Credentials.IsActive {
		t.Error("admin credentials not activated")
	}

	again, err := f.svc.ActivateMembers(org.ID, f.adminID)
	if err != nil {
		t.Fatalf("second ActivateMembers: %v", err)
	}
	if again != 0 {
		t.Errorf("second run activated %d, want 0", again)
	}
}

func TestActivateMembersRequiresApprovedOrganization(t *testing.T) {
	f := newOrgFixture(t)
	org := f.register(t, "acme")

	if _, err := f.svc.ActivateMembers(org.ID, f.adminID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition for a pending org", err)
	}
}

func TestListByStatus(t *testing.T) {
	f := newOrgFixture(t)
	f.register(t, "acme")
	approved := f.register(t, "globex")
	if _, err := f.svc.Approve(approved.ID, f.adminID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	pending, err := f.svc.ListByStatus(model.OrgPending)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(pending) != 1 || pending[0].Name != "acme" {
		t.Errorf("pending = %+v, want just acme", pending)
	}
}
