package organizations

import (
	"context"
	"strings"

	"github.com/google/uuid"

	apperrors "propertyhub/internal/pkg/errors"
	"propertyhub/internal/pkg/validator"
	"propertyhub/internal/platform/auth"
	"propertyhub/internal/platform/models"
)

// Roles an owner or admin may hand out. Ownership never changes hands here.
var memberRoles = []string{models.RoleAdmin, models.RoleManager, models.RoleStaff}

type MemberInput struct {
	Email    string
	Password string
	FullName string
	Role     string
}

func (s *Service) ListMembers(ctx context.Context, orgID string) ([]*models.User, error) {
	users, err := s.users.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return users, nil
}

// GetMember returns NotFound for users of other organizations and removed members.
func (s *Service) GetMember(ctx context.Context, orgID, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.OrganizationID != orgID || user.DeletedAt != nil {
		return nil, apperrors.NotFound("user")
	}
	return user, nil
}

func (s *Service) AddMember(ctx context.Context, orgID string, in MemberInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var errs apperrors.ValidationErrors
	errs.AddErr("email", validator.ValidateEmail(email))
	if strings.TrimSpace(in.FullName) == "" {
		errs.Add("full_name", "is required")
	}
	if !oneOf(in.Role, memberRoles) {
		errs.Add("role", "must be one of admin, manager, staff")
	}
	hash, err := auth.HashPassword(in.Password)
	errs.AddErr("password", err)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("user", "email is already registered")
	}

	ts := s.now().Unix()
	user := &models.User{
		ID:             "usr_" + uuid.New().String(),
		OrganizationID: orgID,
		Email:          email,
		PasswordHash:   hash,
		FullName:       strings.TrimSpace(in.FullName),
		Role:           in.Role,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateMemberRole changes a member's role. The owner's role is fixed and
// nobody can change their own.
func (s *Service) UpdateMemberRole(ctx context.Context, orgID, actorID, userID, role string) (*models.User, error) {
	if !oneOf(role, memberRoles) {
		var errs apperrors.ValidationErrors
		errs.Add("role", "must be one of admin, manager, staff")
		return nil, errs.Err()
	}
	user, err := s.GetMember(ctx, orgID, userID)
	if err != nil {
		return nil, err
	}
	if err := guardMember(user, actorID); err != nil {
		return nil, err
	}

	if err := s.users.UpdateRole(ctx, user.ID, role); err != nil {
		return nil, err
	}
	user.Role = role
	user.UpdatedAt = s.now().Unix()
	return user, nil
}

// RemoveMember soft-deletes a member; removed users can no longer log in or refresh.
func (s *Service) RemoveMember(ctx context.Context, orgID, actorID, userID string) error {
	user, err := s.GetMember(ctx, orgID, userID)
	if err != nil {
		return err
	}
	if err := guardMember(user, actorID); err != nil {
		return err
	}
	return s.users.SoftDelete(ctx, user.ID)
}

func guardMember(user *models.User, actorID string) error {
	if user.Role == models.RoleOwner {
		return apperrors.NewConflictError("user", "the organization owner cannot be changed")
	}
	if user.ID == actorID {
		return apperrors.NewConflictError("user", "you cannot change your own membership")
	}
	return nil
}
