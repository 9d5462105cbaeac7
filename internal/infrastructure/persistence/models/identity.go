package models

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
)

// UserModel is the persistence model for users
type UserModel struct {
	BaseModel
	Email     string        `gorm:"type:varchar(255);not null;uniqueIndex"`
	FirstName string        `gorm:"type:varchar(100)"`
	LastName  string        `gorm:"type:varchar(100)"`
	Phone     string        `gorm:"type:varchar(30)"`
	Role      identity.Role `gorm:"type:varchar(20);not null;default:'CUSTOMER'"`
	IsActive  bool          `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity: m.BaseModel.ToDomain(),
		Email:      m.Email,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Phone:      m.Phone,
		Role:       m.Role,
		IsActive:   m.IsActive,
	}
}

// UserModelFromDomain converts a domain User to its persistence model
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Role:      u.Role,
		IsActive:  u.IsActive,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}

// AddressModel is the persistence model for shipping addresses
type AddressModel struct {
	BaseModel
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	FullName  string    `gorm:"type:varchar(200)"`
	Line1     string    `gorm:"column:line1;type:varchar(255);not null"`
	Line2     string    `gorm:"column:line2;type:varchar(255)"`
	City      string    `gorm:"type:varchar(100);not null"`
	Country   string    `gorm:"type:varchar(100);not null"`
	Phone     string    `gorm:"type:varchar(30)"`
	IsDefault bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (AddressModel) TableName() string {
	return "addresses"
}

// ToDomain converts the persistence model to a domain Address
func (m *AddressModel) ToDomain() *identity.Address {
	return &identity.Address{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		FullName:   m.FullName,
		Line1:      m.Line1,
		Line2:      m.Line2,
		City:       m.City,
		Country:    m.Country,
		Phone:      m.Phone,
		IsDefault:  m.IsDefault,
	}
}

// AddressModelFromDomain converts a domain Address to its persistence model
func AddressModelFromDomain(a *identity.Address) *AddressModel {
	m := &AddressModel{
		UserID:    a.UserID,
		FullName:  a.FullName,
		Line1:     a.Line1,
		Line2:     a.Line2,
		City:      a.City,
		Country:   a.Country,
		Phone:     a.Phone,
		IsDefault: a.IsDefault,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}
