package tenants

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"propertyhub/internal/pkg/dates"
	apperrors "propertyhub/internal/pkg/errors"
	"propertyhub/internal/pkg/validator"
	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/models"
)

// EventPublisher receives domain events after a change has been committed.
type EventPublisher interface {
	Publish(ctx context.Context, event string, data interface{})
}

// Service keeps tenants, their units and their lease history consistent. Every
// operation that touches more than one of them runs in a single transaction.
type Service struct {
	db     *sql.DB
	repo   *Repository
	orgID  string
	events EventPublisher
	now    func() time.Time
}

func NewService(db *sql.DB, orgID string, events EventPublisher) *Service {
	return &Service{db: db, repo: NewRepository(db), orgID: orgID, events: events, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() string {
	return dates.Format(dates.Today(s.now()))
}

type TenantInput struct {
	UnitID                *string
	FirstName             string
	LastName              string
	Email                 string
	Phone                 string
	ICNumber              string
	Nationality           string
	WorkPermitNumber      string
	WorkPermitExpiry      *string
	EmergencyContactName  string
	EmergencyContactPhone string
	LeaseStartDate        *string
	LeaseEndDate          *string
	MoveInDate            *string
	RentAmount            decimal.Decimal
	SecurityDeposit       decimal.Decimal
	Status                string
	Notes                 string
}

func (s *Service) Create(ctx context.Context, in TenantInput) (*Tenant, error) {
	if in.Status == "" {
		in.Status = StatusPending
	}
	ts := s.now().Unix()
	t := &Tenant{
		ID:             "tnt_" + uuid.New().String(),
		OrganizationID: s.orgID,
		CreatedAt:      ts,
	}
	apply(t, in)
	if err := validateTenant(t); err != nil {
		return nil, err
	}
	t.UpdatedAt = ts

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		if t.UnitID != nil {
			if err := s.ensureUnit(ctx, repo, *t.UnitID); err != nil {
				return err
			}
		}
		if err := repo.Insert(ctx, t); err != nil {
			return err
		}
		if t.occupies() {
			return s.occupy(ctx, repo, t, leaseStart(t, s.today()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, t.ID)
}

// TenantUpdate holds optional changes; nil fields are left alone. An empty
// UnitID detaches the tenant from its unit.
type TenantUpdate struct {
	UnitID                *string
	FirstName             *string
	LastName              *string
	Email                 *string
	Phone                 *string
	ICNumber              *string
	Nationality           *string
	WorkPermitNumber      *string
	WorkPermitExpiry      *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
	LeaseStartDate        *string
	LeaseEndDate          *string
	MoveInDate            *string
	RentAmount            *decimal.Decimal
	SecurityDeposit       *decimal.Decimal
	Status                *string
	Notes                 *string
}

func (s *Service) Update(ctx context.Context, id string, u TenantUpdate) (*Tenant, error) {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		prev, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		next := *prev
		merge(&next, u)
		if err := validateTenant(&next); err != nil {
			return err
		}

		today := s.today()
		ts := s.now().Unix()
		sameUnit := prev.UnitID != nil && next.UnitID != nil && *prev.UnitID == *next.UnitID

		if next.UnitID != nil && !sameUnit {
			if err := s.ensureUnit(ctx, repo, *next.UnitID); err != nil {
				return err
			}
		}
		if prev.occupies() && (!next.occupies() || !sameUnit) {
			if err := s.vacate(ctx, repo, prev, today, ts); err != nil {
				return err
			}
		}

		next.UpdatedAt = ts
		if err := repo.Update(ctx, &next); err != nil {
			return err
		}

		switch {
		case next.occupies() && (!prev.occupies() || !sameUnit):
			return s.occupy(ctx, repo, &next, leaseStart(&next, today))
		case next.occupies():
			return s.claim(ctx, repo, &next)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a tenant and its lease history, vacating its unit. Tenants
// with payments, schedules or deposits on record cannot be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		t, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		n, err := repo.FinancialRecords(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperrors.NewConflictError("tenant", "tenant has payment records; mark the tenant moved out instead")
		}
		if t.occupies() {
			if err := repo.ReleaseUnit(ctx, *t.UnitID, s.now().Unix()); err != nil {
				return err
			}
		}
		if err := repo.DeleteLeases(ctx, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
}

type MoveInput struct {
	NewUnitID string
	Date      string
	Notes     string
}

// Move transfers an active tenant to another unit on the given date.
func (s *Service) Move(ctx context.Context, tenantID string, in MoveInput) (*Tenant, error) {
	if in.Date == "" {
		in.Date = s.today()
	}
	var verrs apperrors.ValidationErrors
	if in.NewUnitID == "" {
		verrs.Add("unit_id", "is required")
	}
	verrs.AddErr("date", dates.Valid("date", in.Date))
	if err := verrs.Err(); err != nil {
		return nil, err
	}

	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		t, err := repo.Get(ctx, tenantID)
		if err != nil {
			return err
		}
		if t.Status != StatusActive {
			return apperrors.NewConflictError("tenant", "only active tenants can be moved")
		}
		if t.UnitID != nil && *t.UnitID == in.NewUnitID {
			return apperrors.NewValidationError("unit_id", "tenant already lives in this unit")
		}
		if err := s.ensureUnit(ctx, repo, in.NewUnitID); err != nil {
			return err
		}

		ts := s.now().Unix()
		if t.UnitID != nil {
			if err := s.vacate(ctx, repo, t, in.Date, ts); err != nil {
				return err
			}
		}

		unitID, moveIn := in.NewUnitID, in.Date
		t.UnitID = &unitID
		t.MoveInDate = &moveIn
		t.UpdatedAt = ts
		if err := repo.Update(ctx, t); err != nil {
			return err
		}
		if err := s.occupy(ctx, repo, t, in.Date); err != nil {
			return err
		}
		return repo.RepointSchedules(ctx, t.ID, unitID, ts)
	})
	if err != nil {
		return nil, err
	}

	moved, err := s.repo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	log.Info().Str("tenant_id", tenantID).Str("unit_id", in.NewUnitID).Str("date", in.Date).Msg("Tenant moved")
	if s.events != nil {
		s.events.Publish(ctx, models.EventTenantMoved, moved)
	}
	return moved, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Tenant, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Tenant, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) ListLeases(ctx context.Context, tenantID string) ([]*LeaseHistory, error) {
	if _, err := s.repo.Get(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.repo.ListLeases(ctx, tenantID)
}

func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.repo.CountByStatus(ctx, StatusActive)
}

func (s *Service) ensureUnit(ctx context.Context, repo *Repository, unitID string) error {
	ok, err := repo.UnitExists(ctx, unitID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NotFound("unit")
	}
	return nil
}

func (s *Service) claim(ctx context.Context, repo *Repository, t *Tenant) error {
	ok, err := repo.ClaimUnit(ctx, *t.UnitID, t.ID, s.now().Unix())
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewConflictError("unit", "unit is already occupied by another active tenant")
	}
	return nil
}

// occupy claims the tenant's unit and opens a lease starting on start.
func (s *Service) occupy(ctx context.Context, repo *Repository, t *Tenant, start string) error {
	if err := s.claim(ctx, repo, t); err != nil {
		return err
	}
	return repo.InsertLease(ctx, &LeaseHistory{
		ID:         "lease_" + uuid.New().String(),
		TenantID:   t.ID,
		UnitID:     *t.UnitID,
		StartDate:  start,
		RentAmount: t.RentAmount,
		Status:     LeaseActive,
		CreatedAt:  s.now().Unix(),
	})
}

// vacate frees the unit prev occupied and closes its open lease on end.
func (s *Service) vacate(ctx context.Context, repo *Repository, prev *Tenant, end string, ts int64) error {
	if err := repo.ReleaseUnit(ctx, *prev.UnitID, ts); err != nil {
		return err
	}
	return repo.EndActiveLeases(ctx, prev.ID, end)
}

func leaseStart(t *Tenant, today string) string {
	switch {
	case t.MoveInDate != nil:
		return *t.MoveInDate
	case t.LeaseStartDate != nil:
		return *t.LeaseStartDate
	}
	return today
}

func apply(t *Tenant, in TenantInput) {
	t.UnitID = blankToNil(in.UnitID)
	t.FirstName = strings.TrimSpace(in.FirstName)
	t.LastName = strings.TrimSpace(in.LastName)
	t.Email = strings.ToLower(strings.TrimSpace(in.Email))
	t.Phone = strings.TrimSpace(in.Phone)
	t.ICNumber = strings.TrimSpace(in.ICNumber)
	t.Nationality = in.Nationality
	t.WorkPermitNumber = in.WorkPermitNumber
	t.WorkPermitExpiry = blankToNil(in.WorkPermitExpiry)
	t.EmergencyContactName = in.EmergencyContactName
	t.EmergencyContactPhone = strings.TrimSpace(in.EmergencyContactPhone)
	t.LeaseStartDate = blankToNil(in.LeaseStartDate)
	t.LeaseEndDate = blankToNil(in.LeaseEndDate)
	t.MoveInDate = blankToNil(in.MoveInDate)
	t.RentAmount = in.RentAmount
	t.SecurityDeposit = in.SecurityDeposit
	t.Status = in.Status
	t.Notes = in.Notes
}

func merge(t *Tenant, u TenantUpdate) {
	setPtr := func(dst **string, v *string) {
		if v != nil {
			*dst = blankToNil(v)
		}
	}
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}

	setPtr(&t.UnitID, u.UnitID)
	setStr(&t.FirstName, u.FirstName)
	setStr(&t.LastName, u.LastName)
	if u.Email != nil {
		t.Email = strings.ToLower(strings.TrimSpace(*u.Email))
	}
	setStr(&t.Phone, u.Phone)
	setStr(&t.ICNumber, u.ICNumber)
	setStr(&t.Nationality, u.Nationality)
	setStr(&t.WorkPermitNumber, u.WorkPermitNumber)
	setPtr(&t.WorkPermitExpiry, u.WorkPermitExpiry)
	setStr(&t.EmergencyContactName, u.EmergencyContactName)
	setStr(&t.EmergencyContactPhone, u.EmergencyContactPhone)
	setPtr(&t.LeaseStartDate, u.LeaseStartDate)
	setPtr(&t.LeaseEndDate, u.LeaseEndDate)
	setPtr(&t.MoveInDate, u.MoveInDate)
	if u.RentAmount != nil {
		t.RentAmount = *u.RentAmount
	}
	if u.SecurityDeposit != nil {
		t.SecurityDeposit = *u.SecurityDeposit
	}
	setStr(&t.Status, u.Status)
	if u.Notes != nil {
		t.Notes = *u.Notes
	}
}

func blankToNil(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}

// validateTenant checks t and normalises the IC and phone numbers it accepts.
func validateTenant(t *Tenant) error {
	var verrs apperrors.ValidationErrors
	if t.FirstName == "" {
		verrs.Add("first_name", "is required")
	}
	if t.LastName == "" {
		verrs.Add("last_name", "is required")
	}
	if t.Email != "" {
		verrs.AddErr("email", validator.ValidateEmail(t.Email))
	}
	if t.Phone != "" {
		if err := validator.ValidateMalaysianPhone(t.Phone); err != nil {
			verrs.AddErr("phone", err)
		} else {
			t.Phone = validator.FormatMalaysianPhone(t.Phone)
		}
	}
	if t.EmergencyContactPhone != "" {
		if err := validator.ValidateMalaysianPhone(t.EmergencyContactPhone); err != nil {
			verrs.AddErr("emergency_contact_phone", err)
		} else {
			t.EmergencyContactPhone = validator.FormatMalaysianPhone(t.EmergencyContactPhone)
		}
	}
	if t.ICNumber != "" {
		if err := validator.ValidateMalaysianIC(t.ICNumber); err != nil {
			verrs.AddErr("ic_number", err)
		} else {
			t.ICNumber = validator.FormatMalaysianIC(t.ICNumber)
		}
	}
	for field, d := range map[string]*string{
		"work_permit_expiry": t.WorkPermitExpiry,
		"lease_start_date":   t.LeaseStartDate,
		"lease_end_date":     t.LeaseEndDate,
		"move_in_date":       t.MoveInDate,
	} {
		if d != nil {
			verrs.AddErr(field, dates.Valid(field, *d))
		}
	}
	if t.LeaseStartDate != nil && t.LeaseEndDate != nil && *t.LeaseEndDate < *t.LeaseStartDate {
		verrs.Add("lease_end_date", "must not be before lease_start_date")
	}
	if t.RentAmount.IsNegative() {
		verrs.Add("rent_amount", "cannot be negative")
	}
	if t.SecurityDeposit.IsNegative() {
		verrs.Add("security_deposit", "cannot be negative")
	}
	valid := false
	for _, st := range Statuses {
		if t.Status == st {
			valid = true
		}
	}
	if !valid {
		verrs.Add("status", "must be one of "+strings.Join(Statuses, ", "))
	}
	return verrs.Err()
}
