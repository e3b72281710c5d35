package tenants

import (
	"github.com/shopspring/decimal"
)

const (
	StatusActive   = "active"
	StatusPending  = "pending"
	StatusInactive = "inactive"
	StatusMovedOut = "moved_out"
)

var Statuses = []string{StatusActive, StatusPending, StatusInactive, StatusMovedOut}

const (
	LeaseActive = "active"
	LeaseEnded  = "ended"
)

type Tenant struct {
	ID                    string          `json:"id"`
	OrganizationID        string          `json:"organization_id"`
	UnitID                *string         `json:"unit_id,omitempty"`
	FirstName             string          `json:"first_name"`
	LastName              string          `json:"last_name"`
	Email                 string          `json:"email,omitempty"`
	Phone                 string          `json:"phone,omitempty"`
	ICNumber              string          `json:"ic_number,omitempty"`
	Nationality           string          `json:"nationality,omitempty"`
	WorkPermitNumber      string          `json:"work_permit_number,omitempty"`
	WorkPermitExpiry      *string         `json:"work_permit_expiry,omitempty"`
	EmergencyContactName  string          `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone string          `json:"emergency_contact_phone,omitempty"`
	LeaseStartDate        *string         `json:"lease_start_date,omitempty"`
	LeaseEndDate          *string         `json:"lease_end_date,omitempty"`
	MoveInDate            *string         `json:"move_in_date,omitempty"`
	RentAmount            decimal.Decimal `json:"rent_amount"`
	SecurityDeposit       decimal.Decimal `json:"security_deposit"`
	Status                string          `json:"status"`
	Notes                 string          `json:"notes,omitempty"`
	CreatedAt             int64           `json:"created_at"`
	UpdatedAt             int64           `json:"updated_at"`

	UnitNumber   string `json:"unit_number,omitempty"`
	PropertyID   string `json:"property_id,omitempty"`
	PropertyName string `json:"property_name,omitempty"`
}

func (t *Tenant) FullName() string {
	return t.FirstName + " " + t.LastName
}

// occupies reports whether the tenant holds a unit.
func (t *Tenant) occupies() bool {
	return t.Status == StatusActive && t.UnitID != nil
}

type LeaseHistory struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	UnitID     string          `json:"unit_id"`
	StartDate  string          `json:"start_date"`
	EndDate    *string         `json:"end_date,omitempty"`
	RentAmount decimal.Decimal `json:"rent_amount"`
	Status     string          `json:"status"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  int64           `json:"created_at"`

	UnitNumber string `json:"unit_number,omitempty"`
}
