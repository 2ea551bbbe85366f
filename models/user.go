package models

import "time"

// Role IDs used across controllers and middleware.
const (
	RoleCustomer = 1
	RoleCompany  = 2
	RoleAdmin    = 3
)

// User represents the users table
type User struct {
	UserID    int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	Email     string     `gorm:"column:email" json:"email"`
	Password  string     `gorm:"column:password" json:"-"`
	FirstName string     `gorm:"column:first_name" json:"first_name"`
	LastName  string     `gorm:"column:last_name" json:"last_name"`
	Locale    string     `gorm:"column:locale;default:'en'" json:"locale"`
	RoleID    int        `gorm:"column:role_id;default:1" json:"role_id"`
	CompanyID *int       `gorm:"column:company_id" json:"company_id"`
	CreateAt  time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt  *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt  *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	Company *Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) IsAdmin() bool {
	return u.RoleID == RoleAdmin
}
