package models

import (
	"strconv"

	"gorm.io/gorm"
)

// User roles
const (
	RoleDonor   = "donor"
	RoleNGO     = "ngo"
	RoleCompany = "company"
	RoleAdmin   = "admin"
)

// CampaignCreatorRoles are the roles allowed to run campaigns.
var CampaignCreatorRoles = []string{RoleNGO, RoleCompany}

type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	Password     string `gorm:"not null"`
	Name         string
	Role         string `gorm:"index;default:'donor'"`
	IsActive     bool   `gorm:"index;default:true"`
	Country      string `gorm:"index"`
	State        string
	TokenVersion int `gorm:"default:1"`
}

// Account is the storage-neutral view of a user used for authentication.
// ID is the decimal row id in SQL and the hex ObjectID in mongo.
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	TokenVersion int
}

func (u *User) Account() *Account {
	return &Account{
		ID:           strconv.FormatUint(uint64(u.ID), 10),
		Email:        u.Email,
		PasswordHash: u.Password,
		Role:         u.Role,
		IsActive:     u.IsActive,
		TokenVersion: u.TokenVersion,
	}
}
