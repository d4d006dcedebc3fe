package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Order is the shared mutable record of the checkout flow. Payment fields
// are written only by the webhook processor; every write sets an absolute
// target state so provider redelivery is safe.
type Order struct {
	ID                    string        `gorm:"primaryKey;size:36" json:"id"`
	CustomerEmail         string        `gorm:"size:255;index" json:"customer_email"`
	TotalAmount           float64       `gorm:"not null" json:"total_amount"`
	PaymentStatus         PaymentStatus `gorm:"size:16;not null;default:pending;index" json:"payment_status"`
	DeliveryMethod        string        `gorm:"size:128" json:"delivery_method"`
	DeliveryFee           float64       `json:"delivery_fee"`
	DeliveryDescription   string        `gorm:"size:255" json:"delivery_description"`
	StripeSessionID       string        `gorm:"size:255;index" json:"stripe_session_id,omitempty"`
	StripePaymentIntentID string        `gorm:"size:255;index" json:"stripe_payment_intent_id,omitempty"`
	InvoiceURL            string        `gorm:"size:512" json:"invoice_url,omitempty"`
	InvoiceArchiveKey     string        `gorm:"size:512" json:"invoice_archive_key,omitempty"`
	Items                 []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

type OrderItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	OrderID     string  `gorm:"size:36;not null;index" json:"order_id"`
	ProductName string  `gorm:"size:255;not null" json:"product_name"`
	UnitPrice   float64 `gorm:"not null" json:"unit_price"`
	Quantity    int     `gorm:"not null;default:1" json:"quantity"`
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}
