package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role distinguishes back-office operators from portal customers.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// User represents an account on the platform. PriceMultiplier is the
// per-customer markup applied to raw carrier prices when shipments created
// by this user are quoted.
type User struct {
	ID              uuid.UUID `gorm:"type:uuid;column:id;not null;primaryKey" json:"id"`
	Email           string    `gorm:"type:varchar(255);column:email;not null;uniqueIndex" json:"email"`
	PasswordHash    string    `gorm:"type:varchar(255);column:password_hash;not null" json:"-"`
	Name            string    `gorm:"type:varchar(255);column:name;not null" json:"name"`
	Company         string    `gorm:"type:varchar(255);column:company" json:"company,omitempty"`
	Role            Role      `gorm:"type:varchar(20);column:role;not null;default:'customer'" json:"role"`
	PriceMultiplier float64   `gorm:"type:numeric;column:price_multiplier;not null;default:1" json:"priceMultiplier"`
	Balance         float64   `gorm:"type:numeric;column:balance;not null;default:0" json:"balance"`
	CreatedAt       time.Time `gorm:"type:timestamptz;column:created_at;not null" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"type:timestamptz;column:updated_at;not null" json:"updatedAt"`
}

// TableName specifies the database table name for User
func (u *User) TableName() string {
	return "users"
}

// BeforeCreate is a GORM hook that is triggered before a new record is created.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID, err = uuid.NewRandom()
		if err != nil {
			return
		}
	}
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = time.Now().UTC()
	return
}

// BeforeUpdate is a GORM hook that is triggered before an existing record is updated.
func (u *User) BeforeUpdate(tx *gorm.DB) (err error) {
	u.UpdatedAt = time.Now().UTC()
	return
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Multiplier returns the user's price multiplier, defaulting to 1 when unset.
func (u *User) Multiplier() float64 {
	if u.PriceMultiplier <= 0 {
		return 1
	}
	return u.PriceMultiplier
}
