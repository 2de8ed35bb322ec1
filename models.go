package sessiongate

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Profile is the authorization record keyed 1:1 by identity id. Active is
// stored nullable so an absent field can be told apart from an explicit
// false: absence means active.
type Profile struct {
	bun.BaseModel `bun:"table:profiles,alias:prf"`
	IdentityID    string     `bun:"identity_id,pk" json:"identity_id,omitempty"`
	Name          string     `bun:"name" json:"name,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Phone         string     `bun:"phone_number" json:"phone_number,omitempty"`
	Role          Role       `bun:"user_role,notnull" json:"role,omitempty"`
	Active        *bool      `bun:"is_active" json:"is_active,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsActive applies the storage default: only an explicit false locks the account.
func (p *Profile) IsActive() bool {
	return p.Active == nil || *p.Active
}

// IdentityRecord backs the local identity provider. It is deliberately
// separate from Profile: the provider and the profile store sit on opposite
// sides of the trust boundary and are written independently.
type IdentityRecord struct {
	bun.BaseModel `bun:"table:identities,alias:idn"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	DisplayName   string     `bun:"display_name" json:"display_name,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"password_hash,omitempty"`
	LastSignInAt  *time.Time `bun:"last_signin_at,nullzero" json:"last_signin_at,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// CatalogService is a bookable service entry in the public catalog.
type CatalogService struct {
	bun.BaseModel `bun:"table:services,alias:svc"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title         string     `bun:"title,notnull" json:"title,omitempty"`
	Description   string     `bun:"description" json:"description,omitempty"`
	Price         int64      `bun:"price,notnull" json:"price,omitempty"`
	Location      string     `bun:"location" json:"location,omitempty"`
	Category      string     `bun:"category" json:"category,omitempty"`
	Active        bool       `bun:"active" json:"active"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// AppointmentStatus tracks a booking through moderation.
type AppointmentStatus = string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

// BookingDetails is the slot the customer picked.
type BookingDetails struct {
	Date         string `json:"date,omitempty"`
	Time         string `json:"time,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// PaymentDetails mirrors whatever the payment widget handed back; the core
// never interprets it.
type PaymentDetails struct {
	Reference string `json:"reference,omitempty"`
	Method    string `json:"method,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
}

// Appointment is a booking record tying a user to a catalog service.
type Appointment struct {
	bun.BaseModel `bun:"table:appointments,alias:apt"`
	ID            uuid.UUID         `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        string            `bun:"user_id,notnull" json:"user_id,omitempty"`
	UserEmail     string            `bun:"user_email" json:"user_email,omitempty"`
	ServiceID     uuid.UUID         `bun:"service_id,type:uuid" json:"service_id,omitempty"`
	ServiceName   string            `bun:"service_name" json:"service_name,omitempty"`
	Price         int64             `bun:"price" json:"price,omitempty"`
	Booking       BookingDetails    `bun:"booking,type:jsonb" json:"booking,omitempty"`
	Payment       PaymentDetails    `bun:"payment,type:jsonb" json:"payment,omitempty"`
	Status        AppointmentStatus `bun:"status,notnull" json:"status,omitempty"`
	CreatedAt     *time.Time        `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time        `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
