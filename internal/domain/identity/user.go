package identity

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Role represents what a user may do on the marketplace
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleVendor   Role = "VENDOR"
	RoleAdmin    Role = "ADMIN"
)

// User is a marketplace account
type User struct {
	shared.BaseEntity
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Role      Role
	IsActive  bool
}

// NewUser creates a new active customer
func NewUser(email, firstName, lastName string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email address is invalid")
	}
	return &User{
		BaseEntity: shared.NewBaseEntity(),
		Email:      email,
		FirstName:  strings.TrimSpace(firstName),
		LastName:   strings.TrimSpace(lastName),
		Role:       RoleCustomer,
		IsActive:   true,
	}, nil
}

// FullName returns the display name of the user
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Address is a shipping destination owned by a user
type Address struct {
	shared.BaseEntity
	UserID    uuid.UUID
	FullName  string
	Line1     string
	Line2     string
	City      string
	Country   string
	Phone     string
	IsDefault bool
}

// BelongsTo reports whether the address is owned by the user
func (a *Address) BelongsTo(userID uuid.UUID) bool {
	return a.UserID == userID
}

// UserRepository defines persistence operations for users
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
}

// AddressRepository defines persistence operations for addresses
type AddressRepository interface {
	// FindByIDForUser returns NOT_FOUND when the address does not exist or
	// belongs to another user.
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*Address, error)
	Create(ctx context.Context, address *Address) error
}
