package domain

import "time"

// AdminRole is the permission level of an operator account
type AdminRole string

const (
	RoleAdmin      AdminRole = "admin"
	RoleSuperAdmin AdminRole = "super_admin"
)

// AdminUser is an operator allowed to capture payments, create quotes and
// charge for additional materials.
type AdminUser struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name"`
	Role      AdminRole `json:"role" gorm:"not null;default:admin"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}

// CanOperate reports whether the account may call admin endpoints
func (a *AdminUser) CanOperate() bool {
	return a.Active && (a.Role == RoleAdmin || a.Role == RoleSuperAdmin)
}
