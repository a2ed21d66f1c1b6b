package donations

import "time"

// Donation types.
const (
	TypeFinancial = "financial"
	TypeItem      = "item"
)

// Donation statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

var (
	validStatuses = map[string]struct{}{
		StatusPending: {}, StatusConfirmed: {}, StatusDelivered: {}, StatusCancelled: {},
	}
	validPaymentMethods = map[string]struct{}{
		"pix": {}, "credit_card": {}, "debit_card": {}, "bank_transfer": {}, "cash": {}, "other": {},
	}
	validCategories = map[string]struct{}{
		"food": {}, "medicine": {}, "toys": {}, "accessories": {}, "hygiene": {}, "other": {},
	}
)

// Donation covers both money and goods. Financial donations carry amount and
// payment method; item donations carry the item fields. DonorID is null when
// the donor asked to stay anonymous.
type Donation struct {
	ID            string     `gorm:"primaryKey" json:"id"`
	Type          string     `gorm:"not null;index" json:"type"`
	DonorID       *string    `gorm:"index" json:"donorId"`
	RecipientID   string     `gorm:"not null;index" json:"recipientId"`
	CampaignID    *string    `json:"campaignId"`
	Amount        float64    `json:"amount,omitempty"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
	ItemName      string     `json:"itemName,omitempty"`
	Quantity      int        `json:"quantity,omitempty"`
	Category      string     `json:"category,omitempty"`
	Description   string     `json:"description"`
	IsAnonymous   bool       `gorm:"default:false" json:"isAnonymous"`
	Status        string     `gorm:"default:'pending';index" json:"status"`
	ReceiptPath   string     `json:"receiptUrl"`
	ConfirmedAt   *time.Time `json:"confirmedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (Donation) TableName() string { return "donations" }

// recipient is a read-only projection of the users table used to validate
// that donations go to NGOs.
type recipient struct {
	ID   string
	Role string
}

func (recipient) TableName() string { return "users" }

// campaign is a read-only projection of the events table: fundraising events
// double as donation campaigns.
type campaign struct {
	ID string
}

func (campaign) TableName() string { return "events" }
