package models

import "time"

// Reseller represents the resellers table: a third-party API consumer that
// submits card orders programmatically. The API secret is stored as a bcrypt
// hash; the plaintext is shown exactly once at key issuance.
type Reseller struct {
	ResellerID   int        `gorm:"primaryKey;column:reseller_id" json:"reseller_id"`
	Name         string     `gorm:"column:name" json:"name"`
	ContactEmail string     `gorm:"column:contact_email" json:"contact_email"`
	APIKeyID     string     `gorm:"column:api_key_id;uniqueIndex" json:"api_key_id"`
	APISecret    string     `gorm:"column:api_secret" json:"-"`
	Active       bool       `gorm:"column:active;default:true" json:"active"`
	Webhook      *string    `gorm:"column:webhook" json:"webhook"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt     time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (Reseller) TableName() string {
	return "resellers"
}

// ResellerResponse represents the reseller data returned to admins. It
// carries the key id but never the secret hash.
type ResellerResponse struct {
	ResellerID   int       `json:"reseller_id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email"`
	APIKeyID     string    `json:"api_key_id"`
	Active       bool      `json:"active"`
	Webhook      *string   `json:"webhook"`
	CreateAt     time.Time `json:"create_at"`
}

func (r *Reseller) ToResponse() ResellerResponse {
	return ResellerResponse{
		ResellerID:   r.ResellerID,
		Name:         r.Name,
		ContactEmail: r.ContactEmail,
		APIKeyID:     r.APIKeyID,
		Active:       r.Active,
		Webhook:      r.Webhook,
		CreateAt:     r.CreateAt,
	}
}
