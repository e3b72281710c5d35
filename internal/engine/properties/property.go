package properties

import (
	"github.com/shopspring/decimal"
)

const (
	TypeApartment   = "apartment"
	TypeCondominium = "condominium"
	TypeHouse       = "house"
	TypeCommercial  = "commercial"
	TypeTownhouse   = "townhouse"
	TypeOther       = "other"
)

var PropertyTypes = []string{TypeApartment, TypeCondominium, TypeHouse, TypeCommercial, TypeTownhouse, TypeOther}

// Unit statuses. occupied is normally set by tenant changes, not by hand.
const (
	UnitVacant      = "vacant"
	UnitOccupied    = "occupied"
	UnitMaintenance = "maintenance"
	UnitUnavailable = "unavailable"
)

var UnitStatuses = []string{UnitVacant, UnitOccupied, UnitMaintenance, UnitUnavailable}

type Property struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	City           string `json:"city"`
	State          string `json:"state"`
	ZipCode        string `json:"zip_code,omitempty"`
	PropertyType   string `json:"property_type"`
	TotalUnits     int    `json:"total_units"`
	Description    string `json:"description,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`

	UnitCount     int `json:"unit_count"`
	OccupiedUnits int `json:"occupied_units"`
}

type Unit struct {
	ID         string          `json:"id"`
	PropertyID string          `json:"property_id"`
	UnitNumber string          `json:"unit_number"`
	UnitType   string          `json:"unit_type,omitempty"`
	Bedrooms   int             `json:"bedrooms"`
	Bathrooms  int             `json:"bathrooms"`
	SquareFeet int             `json:"square_feet"`
	RentAmount decimal.Decimal `json:"rent_amount"`
	Status     string          `json:"status"`
	CreatedAt  int64           `json:"created_at"`
	UpdatedAt  int64           `json:"updated_at"`

	PropertyName string `json:"property_name,omitempty"`
}

type OccupancyStats struct {
	TotalUnits    int             `json:"total_units"`
	ByStatus      map[string]int  `json:"by_status"`
	OccupancyRate decimal.Decimal `json:"occupancy_rate"`
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
