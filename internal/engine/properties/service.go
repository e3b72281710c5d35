package properties

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "propertyhub/internal/pkg/errors"
	"propertyhub/internal/platform/database"
)

// StateLookup resolves a state name onto its canonical spelling.
type StateLookup interface {
	Canonical(state string) (string, bool)
}

type Service struct {
	db     *sql.DB
	repo   *Repository
	orgID  string
	states StateLookup
	now    func() time.Time
}

func NewService(db *sql.DB, orgID string, states StateLookup) *Service {
	return &Service{db: db, repo: NewRepository(db), orgID: orgID, states: states, now: time.Now}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type PropertyInput struct {
	Name         string
	Address      string
	City         string
	State        string
	ZipCode      string
	PropertyType string
	TotalUnits   int
	Description  string
}

func (s *Service) CreateProperty(ctx context.Context, in PropertyInput) (*Property, error) {
	if in.PropertyType == "" {
		in.PropertyType = TypeApartment
	}
	state, err := s.validateProperty(&in)
	if err != nil {
		return nil, err
	}

	ts := s.now().Unix()
	p := &Property{
		ID:             "prop_" + uuid.New().String(),
		OrganizationID: s.orgID,
		Name:           in.Name,
		Address:        in.Address,
		City:           in.City,
		State:          state,
		ZipCode:        in.ZipCode,
		PropertyType:   in.PropertyType,
		TotalUnits:     in.TotalUnits,
		Description:    in.Description,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	if err := s.repo.InsertProperty(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) validateProperty(in *PropertyInput) (string, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Address = strings.TrimSpace(in.Address)
	in.City = strings.TrimSpace(in.City)
	in.ZipCode = strings.TrimSpace(in.ZipCode)

	var verrs apperrors.ValidationErrors
	if in.Name == "" {
		verrs.Add("name", "is required")
	}
	if in.Address == "" {
		verrs.Add("address", "is required")
	}
	if in.City == "" {
		verrs.Add("city", "is required")
	}
	state, ok := s.states.Canonical(in.State)
	if strings.TrimSpace(in.State) == "" {
		verrs.Add("state", "is required")
	} else if !ok {
		verrs.Add("state", "is not a Malaysian state or federal territory")
	}
	if in.ZipCode != "" && !isPostcode(in.ZipCode) {
		verrs.Add("zip_code", "must be 5 digits")
	}
	if !contains(PropertyTypes, in.PropertyType) {
		verrs.Add("property_type", "must be one of "+strings.Join(PropertyTypes, ", "))
	}
	if in.TotalUnits < 0 {
		verrs.Add("total_units", "cannot be negative")
	}
	return state, verrs.Err()
}

func isPostcode(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (s *Service) GetProperty(ctx context.Context, id string) (*Property, error) {
	return s.repo.GetProperty(ctx, id)
}

func (s *Service) ListProperties(ctx context.Context, f PropertyFilter) ([]*Property, error) {
	if f.State != "" {
		if state, ok := s.states.Canonical(f.State); ok {
			f.State = state
		}
	}
	return s.repo.ListProperties(ctx, f)
}

// PropertyUpdate holds optional changes; nil fields are left alone.
type PropertyUpdate struct {
	Name         *string
	Address      *string
	City         *string
	State        *string
	ZipCode      *string
	PropertyType *string
	TotalUnits   *int
	Description  *string
}

func (s *Service) UpdateProperty(ctx context.Context, id string, u PropertyUpdate) (*Property, error) {
	p, err := s.repo.GetProperty(ctx, id)
	if err != nil {
		return nil, err
	}

	in := PropertyInput{
		Name:         pick(u.Name, p.Name),
		Address:      pick(u.Address, p.Address),
		City:         pick(u.City, p.City),
		State:        pick(u.State, p.State),
		ZipCode:      pick(u.ZipCode, p.ZipCode),
		PropertyType: pick(u.PropertyType, p.PropertyType),
		TotalUnits:   p.TotalUnits,
		Description:  pick(u.Description, p.Description),
	}
	if u.TotalUnits != nil {
		in.TotalUnits = *u.TotalUnits
	}
	state, err := s.validateProperty(&in)
	if err != nil {
		return nil, err
	}

	p.Name, p.Address, p.City, p.State = in.Name, in.Address, in.City, state
	p.ZipCode, p.PropertyType, p.TotalUnits, p.Description = in.ZipCode, in.PropertyType, in.TotalUnits, in.Description
	p.UpdatedAt = s.now().Unix()
	if err := s.repo.UpdateProperty(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProperty refuses while the property still has units.
func (s *Service) DeleteProperty(ctx context.Context, id string) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		if _, err := repo.GetProperty(ctx, id); err != nil {
			return err
		}
		n, err := repo.CountUnits(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperrors.NewConflictError("property", "property still has units")
		}
		return repo.DeleteProperty(ctx, id)
	})
}

type UnitInput struct {
	PropertyID string
	UnitNumber string
	UnitType   string
	Bedrooms   int
	Bathrooms  int
	SquareFeet int
	RentAmount decimal.Decimal
	Status     string
}

func validateUnit(in *UnitInput) error {
	in.UnitNumber = strings.TrimSpace(in.UnitNumber)

	var verrs apperrors.ValidationErrors
	if in.PropertyID == "" {
		verrs.Add("property_id", "is required")
	}
	if in.UnitNumber == "" {
		verrs.Add("unit_number", "is required")
	}
	if in.RentAmount.IsNegative() {
		verrs.Add("rent_amount", "cannot be negative")
	}
	if in.Bedrooms < 0 {
		verrs.Add("bedrooms", "cannot be negative")
	}
	if in.Bathrooms < 0 {
		verrs.Add("bathrooms", "cannot be negative")
	}
	if in.SquareFeet < 0 {
		verrs.Add("square_feet", "cannot be negative")
	}
	if !contains(UnitStatuses, in.Status) {
		verrs.Add("status", "must be one of "+strings.Join(UnitStatuses, ", "))
	}
	return verrs.Err()
}

// Units turn occupied through tenant activation, never by hand.
var errNoActiveTenant = apperrors.NewConflictError("unit", "unit has no active tenant; activate a tenant on it instead")

func (s *Service) CreateUnit(ctx context.Context, in UnitInput) (*Unit, error) {
	if in.Status == "" {
		in.Status = UnitVacant
	}
	if err := validateUnit(&in); err != nil {
		return nil, err
	}
	if in.Status == UnitOccupied {
		return nil, errNoActiveTenant
	}

	var unit *Unit
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		if _, err := repo.GetProperty(ctx, in.PropertyID); err != nil {
			return err
		}
		taken, err := repo.UnitNumberTaken(ctx, in.PropertyID, in.UnitNumber, "")
		if err != nil {
			return err
		}
		if taken {
			return apperrors.NewConflictError("unit", "unit number "+in.UnitNumber+" already exists in this property")
		}

		ts := s.now().Unix()
		unit = &Unit{
			ID:         "unit_" + uuid.New().String(),
			PropertyID: in.PropertyID,
			UnitNumber: in.UnitNumber,
			UnitType:   in.UnitType,
			Bedrooms:   in.Bedrooms,
			Bathrooms:  in.Bathrooms,
			SquareFeet: in.SquareFeet,
			RentAmount: in.RentAmount,
			Status:     in.Status,
			CreatedAt:  ts,
			UpdatedAt:  ts,
		}
		if err := repo.InsertUnit(ctx, unit); err != nil {
			return err
		}
		unit, err = repo.GetUnit(ctx, unit.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

func (s *Service) GetUnit(ctx context.Context, id string) (*Unit, error) {
	return s.repo.GetUnit(ctx, id)
}

func (s *Service) ListUnits(ctx context.Context, f UnitFilter) ([]*Unit, error) {
	return s.repo.ListUnits(ctx, f)
}

// UnitUpdate holds optional changes; nil fields are left alone.
type UnitUpdate struct {
	UnitNumber *string
	UnitType   *string
	Bedrooms   *int
	Bathrooms  *int
	SquareFeet *int
	RentAmount *decimal.Decimal
	Status     *string
}

func (s *Service) UpdateUnit(ctx context.Context, id string, u UnitUpdate) (*Unit, error) {
	var unit *Unit
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		var err error
		unit, err = repo.GetUnit(ctx, id)
		if err != nil {
			return err
		}

		in := UnitInput{
			PropertyID: unit.PropertyID,
			UnitNumber: pick(u.UnitNumber, unit.UnitNumber),
			UnitType:   pick(u.UnitType, unit.UnitType),
			Bedrooms:   pickInt(u.Bedrooms, unit.Bedrooms),
			Bathrooms:  pickInt(u.Bathrooms, unit.Bathrooms),
			SquareFeet: pickInt(u.SquareFeet, unit.SquareFeet),
			RentAmount: unit.RentAmount,
			Status:     pick(u.Status, unit.Status),
		}
		if u.RentAmount != nil {
			in.RentAmount = *u.RentAmount
		}
		if err := validateUnit(&in); err != nil {
			return err
		}

		if in.UnitNumber != unit.UnitNumber {
			taken, err := repo.UnitNumberTaken(ctx, unit.PropertyID, in.UnitNumber, unit.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperrors.NewConflictError("unit", "unit number "+in.UnitNumber+" already exists in this property")
			}
		}
		if in.Status == UnitOccupied && unit.Status != UnitOccupied {
			_, active, err := repo.TenantCounts(ctx, unit.ID)
			if err != nil {
				return err
			}
			if active == 0 {
				return errNoActiveTenant
			}
		}
		if in.Status != UnitOccupied && unit.Status == UnitOccupied {
			_, active, err := repo.TenantCounts(ctx, unit.ID)
			if err != nil {
				return err
			}
			if active > 0 {
				return apperrors.NewConflictError("unit", "unit has an active tenant; move the tenant out first")
			}
		}

		unit.UnitNumber, unit.UnitType, unit.Status = in.UnitNumber, in.UnitType, in.Status
		unit.Bedrooms, unit.Bathrooms, unit.SquareFeet = in.Bedrooms, in.Bathrooms, in.SquareFeet
		unit.RentAmount = in.RentAmount
		unit.UpdatedAt = s.now().Unix()
		return repo.UpdateUnit(ctx, unit)
	})
	if err != nil {
		return nil, err
	}
	return unit, nil
}

// DeleteUnit refuses while any tenant record points at the unit.
func (s *Service) DeleteUnit(ctx context.Context, id string) error {
	return database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		repo := NewRepository(tx)
		if _, err := repo.GetUnit(ctx, id); err != nil {
			return err
		}
		total, active, err := repo.TenantCounts(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperrors.NewConflictError("unit", "unit has an active tenant")
		}
		if total > 0 {
			return apperrors.NewConflictError("unit", "unit is still referenced by tenant records")
		}
		return repo.DeleteUnit(ctx, id)
	})
}

// OccupancyStats counts units per status, across the organization or for one property.
func (s *Service) OccupancyStats(ctx context.Context, propertyID string) (*OccupancyStats, error) {
	counts, err := s.repo.UnitStatusCounts(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	stats := &OccupancyStats{ByStatus: map[string]int{}, OccupancyRate: decimal.Zero}
	for _, status := range UnitStatuses {
		stats.ByStatus[status] = counts[status]
	}
	for _, n := range counts {
		stats.TotalUnits += n
	}
	if stats.TotalUnits > 0 {
		stats.OccupancyRate = decimal.NewFromInt(int64(counts[UnitOccupied])).
			Div(decimal.NewFromInt(int64(stats.TotalUnits))).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	return stats, nil
}

func (s *Service) CountProperties(ctx context.Context) (int, error) {
	return s.repo.CountProperties(ctx)
}

func pick(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}

func pickInt(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
