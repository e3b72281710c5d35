// Package organizations owns the global side of the platform: organization
// signup and its tenant database, member authentication, and the super-admin portal.
package organizations

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "propertyhub/internal/pkg/errors"
	"propertyhub/internal/pkg/validator"
	"propertyhub/internal/platform/auth"
	"propertyhub/internal/platform/config"
	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/models"
	"propertyhub/internal/platform/repositories"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{2,49}$`)

var plans = []string{models.PlanStarter, models.PlanProfessional, models.PlanEnterprise}

var statuses = []string{
	models.SubscriptionTrial, models.SubscriptionActive,
	models.SubscriptionSuspended, models.SubscriptionCanceled,
}

type Service struct {
	db      *sql.DB
	orgs    *repositories.OrganizationRepository
	users   *repositories.UserRepository
	pool    *database.TenantDBPool
	tokens  *auth.TokenService
	billing config.BillingConfig
	now     func() time.Time
}

func NewService(db *sql.DB, pool *database.TenantDBPool, tokens *auth.TokenService, billing config.BillingConfig) *Service {
	return &Service{
		db:      db,
		orgs:    repositories.NewOrganizationRepository(db),
		users:   repositories.NewUserRepository(db),
		pool:    pool,
		tokens:  tokens,
		billing: billing,
		now:     time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Session is what every successful login, signup or refresh hands back.
type Session struct {
	Organization *models.Organization `json:"organization,omitempty"`
	User         *models.User         `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token,omitempty"`
}

type SignupInput struct {
	Name     string
	Slug     string
	Email    string
	Password string
	FullName string
}

// Signup creates a trial organization with its owner and a migrated tenant database.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FullName = strings.TrimSpace(in.FullName)

	var errs apperrors.ValidationErrors
	if in.Name == "" {
		errs.Add("name", "is required")
	}
	if !slugPattern.MatchString(in.Slug) {
		errs.Add("slug", "must be 3-50 lowercase letters, digits or hyphens")
	}
	errs.AddErr("email", validator.ValidateEmail(in.Email))
	if in.FullName == "" {
		errs.Add("full_name", "is required")
	}
	hash, err := auth.HashPassword(in.Password)
	errs.AddErr("password", err)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	existing, err := s.orgs.GetBySlug(ctx, in.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("organization", "slug is already taken")
	}
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return nil, apperrors.NewConflictError("user", "email is already registered")
	}

	secret, err := auth.GenerateSecret()
	if err != nil {
		return nil, err
	}

	now := s.now()
	ts := now.Unix()
	trialEnds := now.AddDate(0, 0, s.billing.TrialDays).Unix()
	plan := s.billing.DefaultPlan
	if plan == "" {
		plan = models.PlanStarter
	}

	org := &models.Organization{
		ID:                 "org_" + uuid.New().String(),
		Name:               in.Name,
		Slug:               in.Slug,
		SubscriptionPlan:   plan,
		SubscriptionStatus: models.SubscriptionTrial,
		TrialEndsAt:        &trialEnds,
		DBFilePath:         s.pool.PathFor(in.Slug),
		WebhookSecret:      secret,
		CreatedAt:          ts,
		UpdatedAt:          ts,
	}
	owner := &models.User{
		ID:             "usr_" + uuid.New().String(),
		OrganizationID: org.ID,
		Email:          in.Email,
		PasswordHash:   hash,
		FullName:       in.FullName,
		Role:           models.RoleOwner,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.orgs.CreateTx(ctx, tx, org); err != nil {
			return fmt.Errorf("create organization: %w", err)
		}
		if err := s.users.CreateTx(ctx, tx, owner); err != nil {
			return fmt.Errorf("create owner: %w", err)
		}
		// The tenant schema must exist before the organization becomes visible.
		tenantDB, err := s.pool.Get(org.ID, org.DBFilePath)
		if err != nil {
			return fmt.Errorf("open tenant db: %w", err)
		}
		if _, err := database.Migrate(ctx, tenantDB, database.TargetTenant); err != nil {
			s.pool.Evict(org.ID)
			return fmt.Errorf("migrate tenant db: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("org_id", org.ID).Str("slug", org.Slug).Msg("Organization created")

	owner.Organization = org
	return s.issue(owner, org)
}

func (s *Service) issue(user *models.User, org *models.Organization) (*Session, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.OrganizationID, user.Role, user.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Organization: org, User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// authenticate checks credentials without looking at the organization.
func (s *Service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if user == nil || user.DeletedAt != nil || !auth.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("invalid email or password: %w", apperrors.ErrUnauthorized)
	}
	return user, nil
}

// memberOrg loads the user's organization and refuses inaccessible ones.
func (s *Service) memberOrg(ctx context.Context, user *models.User) (*models.Organization, error) {
	if user.OrganizationID == "" {
		return nil, fmt.Errorf("account has no organization: %w", apperrors.ErrForbidden)
	}
	org, err := s.orgs.GetByID(ctx, user.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, fmt.Errorf("account has no organization: %w", apperrors.ErrForbidden)
	}
	if !org.IsAccessible(s.now().Unix()) {
		return nil, fmt.Errorf("organization is %s: %w", inaccessibleReason(org, s.now().Unix()), apperrors.ErrForbidden)
	}
	return org, nil
}

func inaccessibleReason(org *models.Organization, now int64) string {
	if org.SubscriptionStatus == models.SubscriptionTrial && org.TrialEndsAt != nil && *org.TrialEndsAt <= now {
		return "past its trial period"
	}
	return org.SubscriptionStatus
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	org, err := s.memberOrg(ctx, user)
	if err != nil {
		return nil, err
	}

	ts := s.now().Unix()
	if err := s.users.UpdateLastLogin(ctx, user.ID, ts); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to record last login")
	} else {
		user.LastLoginAt = &ts
	}

	user.Organization = org
	return s.issue(user, org)
}

// Refresh trades a refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", apperrors.ErrUnauthorized)
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.DeletedAt != nil {
		return nil, fmt.Errorf("user no longer exists: %w", apperrors.ErrUnauthorized)
	}

	if user.IsSuperAdmin && user.OrganizationID == "" {
		access, err := s.tokens.GenerateSuperAdminToken(user.ID, user.Email)
		if err != nil {
			return nil, err
		}
		refresh, err := s.tokens.GenerateRefreshToken(user.ID)
		if err != nil {
			return nil, err
		}
		return &Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
	}

	org, err := s.memberOrg(ctx, user)
	if err != nil {
		return nil, err
	}
	user.Organization = org
	return s.issue(user, org)
}

// Me returns the user with its organization attached.
func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.DeletedAt != nil {
		return nil, apperrors.NotFound("user")
	}
	if user.OrganizationID != "" {
		org, err := s.orgs.GetByID(ctx, user.OrganizationID)
		if err != nil {
			return nil, err
		}
		user.Organization = org
	}
	return user, nil
}

// SuperAdminLogin issues a platform token; valid credentials without the privilege get no token.
func (s *Service) SuperAdminLogin(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !user.IsSuperAdmin {
		log.Warn().Str("user_id", user.ID).Msg("Super-admin login without privilege")
		return nil, fmt.Errorf("missing privilege: %w", apperrors.ErrForbidden)
	}

	ts := s.now().Unix()
	if err := s.users.UpdateLastLogin(ctx, user.ID, ts); err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to record last login")
	}

	access, err := s.tokens.GenerateSuperAdminToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// CreateSuperAdmin provisions a platform operator with no organization.
func (s *Service) CreateSuperAdmin(ctx context.Context, email, password, fullName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var errs apperrors.ValidationErrors
	errs.AddErr("email", validator.ValidateEmail(email))
	hash, err := auth.HashPassword(password)
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
		ID:           "usr_" + uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(fullName),
		Role:         models.RoleOwner,
		IsSuperAdmin: true,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) ListOrganizations(ctx context.Context, f repositories.OrganizationFilter) ([]*models.Organization, int, error) {
	return s.orgs.List(ctx, f)
}

func (s *Service) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	org, err := s.orgs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, apperrors.NotFound("organization")
	}
	return org, nil
}

// OrganizationUpdate carries the fields a super-admin may change; nil leaves a field as is.
type OrganizationUpdate struct {
	Name        *string
	Plan        *string
	Status      *string
	TrialEndsAt *int64
}

// UpdateOrganization applies a super-admin change. A canceled organization
// cannot be moved to any other status.
func (s *Service) UpdateOrganization(ctx context.Context, id string, in OrganizationUpdate) (*models.Organization, error) {
	org, err := s.GetOrganization(ctx, id)
	if err != nil {
		return nil, err
	}

	var errs apperrors.ValidationErrors
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name == "" {
			errs.Add("name", "is required")
		} else {
			org.Name = name
		}
	}
	if in.Plan != nil {
		if !oneOf(*in.Plan, plans) {
			errs.Add("subscription_plan", "must be one of "+strings.Join(plans, ", "))
		} else {
			org.SubscriptionPlan = *in.Plan
		}
	}
	previous := org.SubscriptionStatus
	if in.Status != nil {
		if !oneOf(*in.Status, statuses) {
			errs.Add("subscription_status", "must be one of "+strings.Join(statuses, ", "))
		} else {
			org.SubscriptionStatus = *in.Status
		}
	}
	if in.TrialEndsAt != nil {
		v := *in.TrialEndsAt
		org.TrialEndsAt = &v
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if previous == models.SubscriptionCanceled && org.SubscriptionStatus != models.SubscriptionCanceled {
		return nil, apperrors.NewConflictError("organization", "a canceled organization cannot be reactivated")
	}

	if err := s.orgs.Update(ctx, org); err != nil {
		return nil, err
	}

	if previous != org.SubscriptionStatus {
		log.Info().Str("org_id", org.ID).Str("from", previous).Str("to", org.SubscriptionStatus).Msg("Organization status changed")
		if org.SubscriptionStatus == models.SubscriptionCanceled {
			s.pool.Evict(org.ID)
		}
	}
	return org, nil
}

// RenameCurrent is the only change an organization owner can make to its own organization.
func (s *Service) RenameCurrent(ctx context.Context, orgID, name string) (*models.Organization, error) {
	return s.UpdateOrganization(ctx, orgID, OrganizationUpdate{Name: &name})
}

func (s *Service) Stats(ctx context.Context) (*models.PlatformStats, error) {
	return s.orgs.Stats(ctx)
}

// ListAccessible returns the organizations scheduled jobs should run for.
func (s *Service) ListAccessible(ctx context.Context) ([]*models.Organization, error) {
	return s.orgs.ListAccessible(ctx, s.now().Unix())
}

// TenantDB opens (or reuses) an organization's database.
func (s *Service) TenantDB(org *models.Organization) (*sql.DB, error) {
	return s.pool.Get(org.ID, org.DBFilePath)
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}
