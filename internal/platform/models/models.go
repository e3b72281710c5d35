package models

// Subscription statuses for an organization.
const (
	SubscriptionTrial     = "trial"
	SubscriptionActive    = "active"
	SubscriptionSuspended = "suspended"
	SubscriptionCanceled  = "canceled"
)

// Subscription plans.
const (
	PlanStarter      = "starter"
	PlanProfessional = "professional"
	PlanEnterprise   = "enterprise"
)

// User roles inside an organization. RoleAPI is only ever carried by API-key credentials.
const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
	RoleAPI     = "api"
)

type Organization struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Slug               string `json:"slug"`
	SubscriptionPlan   string `json:"subscription_plan"`
	SubscriptionStatus string `json:"subscription_status"`
	TrialEndsAt        *int64 `json:"trial_ends_at,omitempty"`
	DBFilePath         string `json:"-"`
	WebhookSecret      string `json:"-"`
	CreatedAt          int64  `json:"created_at"`
	UpdatedAt          int64  `json:"updated_at"`
}

// IsAccessible reports whether members of the organization may use the API at unix time now.
func (o *Organization) IsAccessible(now int64) bool {
	switch o.SubscriptionStatus {
	case SubscriptionActive:
		return true
	case SubscriptionTrial:
		return o.TrialEndsAt == nil || *o.TrialEndsAt > now
	default:
		return false
	}
}

type User struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id,omitempty"`
	Email          string `json:"email"`
	PasswordHash   string `json:"-"`
	FullName       string `json:"full_name"`
	Role           string `json:"role"`
	IsSuperAdmin   bool   `json:"is_super_admin"`
	LastLoginAt    *int64 `json:"last_login_at,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	UpdatedAt      int64  `json:"updated_at"`
	DeletedAt      *int64 `json:"deleted_at,omitempty"`

	Organization *Organization `json:"organization,omitempty"`
}

type AuditLog struct {
	ID             string                 `json:"id"`
	OrganizationID string                 `json:"organization_id"`
	UserID         string                 `json:"user_id"`
	Action         string                 `json:"action"`
	ResourceType   string                 `json:"resource_type"`
	ResourceID     string                 `json:"resource_id"`
	Metadata       map[string]interface{} `json:"metadata"`
	IPAddress      string                 `json:"ip_address"`
	UserAgent      string                 `json:"user_agent"`
	CreatedAt      int64                  `json:"created_at"`
}

// PlatformStats is the super-admin overview.
type PlatformStats struct {
	TotalOrganizations int            `json:"total_organizations"`
	ByStatus           map[string]int `json:"by_status"`
	ByPlan             map[string]int `json:"by_plan"`
	TotalUsers         int            `json:"total_users"`
}
