package model

import (
	"time"
)

// Payment statuses
const (
	PaymentSucceeded = "succeeded"
	PaymentPending   = "pending"
	PaymentFailed    = "failed"
)

// Payment records a subscription payment made by a user
type Payment struct {
	ID                 string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID             string    `json:"user_id" gorm:"type:uuid;index"`
	Status             string    `json:"status" gorm:"type:varchar(30);index"`
	SubscriptionPlanID string    `json:"subscription_plan_id" gorm:"type:varchar(100)"`
	Amount             float64   `json:"amount"`
	CreatedAt          time.Time `json:"created_at"`
}

// TableName overrides the table name used by gorm
func (Payment) TableName() string {
	return "payments"
}

// SMSValidation is a one-time code sent to a user's phone. CodeHash is never
// serialized. Attempts counts verification tries against the code.
type SMSValidation struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:uuid;index"`
	Phone     string    `json:"phone" gorm:"type:varchar(30)"`
	CodeHash  string    `json:"-" gorm:"type:varchar(255)"`
	IsUsed    bool      `json:"is_used" gorm:"default:false"`
	Attempts  int       `json:"attempts" gorm:"not null;default:0"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name used by gorm
func (SMSValidation) TableName() string {
	return "sms_validations"
}

// Organization is the business a tenant admin sets up during onboarding
type Organization struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(200)"`
	TenantID  string    `json:"tenant_id" gorm:"type:uuid;index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name used by gorm
func (Organization) TableName() string {
	return "organizations"
}

// UserOrganization is a membership of a user in an organization
type UserOrganization struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID         string    `json:"user_id" gorm:"type:uuid;index"`
	OrganizationID string    `json:"organization_id" gorm:"type:uuid;index"`
	Role           string    `json:"role" gorm:"type:varchar(50)"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName overrides the table name used by gorm
func (UserOrganization) TableName() string {
	return "user_organization"
}

// Garage is the first site registered for an organization
type Garage struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey"`
	OrganizationID string    `json:"organization_id" gorm:"type:uuid;index"`
	Name           string    `json:"name" gorm:"type:varchar(200)"`
	Address        string    `json:"address" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName overrides the table name used by gorm
func (Garage) TableName() string {
	return "garages"
}

// All lists the onboarding models for migrations
func All() []interface{} {
	return []interface{}{
		&Profile{}, &UserRole{}, &Payment{}, &SMSValidation{},
		&Organization{}, &UserOrganization{}, &Garage{},
	}
}
