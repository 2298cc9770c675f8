package model

import (
	"time"
)

// Roles stored in profiles.role, user_roles.role and user_organization.role
const (
	RoleSuperAdmin  = "super_admin"
	RoleAdmin       = "admin"
	RoleTenantAdmin = "tenant_admin"
	RoleMember      = "member"
)

// Profile is the per-user row of the hosted backend. TenantID names the
// tenant that owns every row the user reads or writes.
type Profile struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID     *string   `json:"tenant_id" gorm:"type:uuid;index"`
	Role         string    `json:"role" gorm:"type:varchar(50);index"`
	SelectedPlan *string   `json:"selected_plan" gorm:"type:varchar(100)"`
	FullName     string    `json:"full_name" gorm:"type:varchar(200)"`
	Email        string    `json:"email" gorm:"type:varchar(200)"`
	Phone        string    `json:"phone" gorm:"type:varchar(30)"`
	IsActive     bool      `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName overrides the table name used by gorm
func (Profile) TableName() string {
	return "profiles"
}

// HasPlan reports whether a subscription plan was picked
func (p *Profile) HasPlan() bool {
	return p.SelectedPlan != nil && *p.SelectedPlan != ""
}

// UserRole is a secondary role assignment row
type UserRole struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:uuid;index"`
	Role      string    `json:"role" gorm:"type:varchar(50);index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name used by gorm
func (UserRole) TableName() string {
	return "user_roles"
}
