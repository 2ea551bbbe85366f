package models

import (
	"fmt"
	"time"
)

// Order statuses follow Mollie payment states.
const (
	OrderStatusOpen     = "open"
	OrderStatusPaid     = "paid"
	OrderStatusFailed   = "failed"
	OrderStatusExpired  = "expired"
	OrderStatusCanceled = "canceled"
)

// Order represents the orders table: one card order for a playlist.
type Order struct {
	OrderID         int        `gorm:"primaryKey;column:order_id" json:"order_id"`
	OrderNumber     string     `gorm:"column:order_number;uniqueIndex" json:"order_number"`
	UserID          *int       `gorm:"column:user_id" json:"user_id"`
	ResellerID      *int       `gorm:"column:reseller_id" json:"reseller_id"`
	Email           string     `gorm:"column:email" json:"email"`
	PlaylistID      string     `gorm:"column:playlist_id" json:"playlist_id"`
	PlaylistName    string     `gorm:"column:playlist_name" json:"playlist_name"`
	CardCount       int        `gorm:"column:card_count" json:"card_count"`
	Digital         bool       `gorm:"column:digital;default:false" json:"digital"`
	AmountCents     int        `gorm:"column:amount_cents" json:"amount_cents"`
	Currency        string     `gorm:"column:currency;default:'EUR'" json:"currency"`
	Status          string     `gorm:"column:status;type:enum('open','paid','failed','expired','canceled');default:'open'" json:"status"`
	MolliePaymentID *string    `gorm:"column:mollie_payment_id;index" json:"mollie_payment_id"`
	PaidAt          *time.Time `gorm:"column:paid_at" json:"paid_at"`
	InvoiceID       *int       `gorm:"column:invoice_id" json:"invoice_id"`
	CreateAt        time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt        time.Time  `gorm:"column:update_at" json:"update_at"`
	DeleteAt        *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Reseller *Reseller `gorm:"foreignKey:ResellerID" json:"reseller,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// AmountFormatted renders the amount the way Mollie expects it ("12.50").
func (o *Order) AmountFormatted() string {
	return fmt.Sprintf("%d.%02d", o.AmountCents/100, o.AmountCents%100)
}

// IsFinal reports whether the order reached a terminal payment state.
func (o *Order) IsFinal() bool {
	return o.Status != OrderStatusOpen
}

// PrinterInvoice represents the printer_invoices table: a monthly batch of
// physical orders billed by the card printing partner.
type PrinterInvoice struct {
	InvoiceID     int        `gorm:"primaryKey;column:invoice_id" json:"invoice_id"`
	InvoiceNumber string     `gorm:"column:invoice_number;uniqueIndex" json:"invoice_number"`
	Year          int        `gorm:"column:year" json:"year"`
	Month         int        `gorm:"column:month" json:"month"`
	OrderCount    int        `gorm:"column:order_count" json:"order_count"`
	CardCount     int        `gorm:"column:card_count" json:"card_count"`
	AmountCents   int        `gorm:"column:amount_cents" json:"amount_cents"`
	Currency      string     `gorm:"column:currency;default:'EUR'" json:"currency"`
	Paid          bool       `gorm:"column:paid;default:false" json:"paid"`
	PaidAt        *time.Time `gorm:"column:paid_at" json:"paid_at"`
	CreateAt      time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt      time.Time  `gorm:"column:update_at" json:"update_at"`
}

func (PrinterInvoice) TableName() string {
	return "printer_invoices"
}

func (i *PrinterInvoice) AmountFormatted() string {
	return fmt.Sprintf("%d.%02d", i.AmountCents/100, i.AmountCents%100)
}
