package models

import (
	"gorm.io/gorm"
)

// Campaign statuses
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusCompleted = "completed"
	CampaignStatusCancelled = "cancelled"
)

// Donation statuses
const (
	DonationStatusPending   = "pending"
	DonationStatusCompleted = "completed"
	DonationStatusFailed    = "failed"
	DonationStatusRefunded  = "refunded"
)

type Campaign struct {
	gorm.Model
	Title        string   `gorm:"not null"`
	Category     Category `gorm:"index"`
	GoalAmount   float64  `gorm:"not null;default:0"`
	RaisedAmount float64  `gorm:"not null;default:0"`
	Status       string   `gorm:"index;not null;default:'draft'"`
	CreatedBy    uint     `gorm:"index"`
}

type Donation struct {
	gorm.Model
	CampaignID    uint   `gorm:"index"`
	DonorEmail    string `gorm:"index"`
	DonorName     string
	Amount        float64       `gorm:"not null"`
	Status        string        `gorm:"index;not null;default:'pending'"`
	PaymentMethod PaymentMethod `gorm:"index"`
	Country       string
	State         string
}

type Company struct {
	gorm.Model
	Name       string `gorm:"not null"`
	UserID     uint   `gorm:"index"`
	IsActive   bool   `gorm:"default:true"`
	IsVerified bool   `gorm:"default:false"`
}

type NGO struct {
	gorm.Model
	Name       string `gorm:"not null"`
	UserID     uint   `gorm:"index"`
	IsActive   bool   `gorm:"default:true"`
	IsVerified bool   `gorm:"default:false"`
	Has12A     bool   `gorm:"column:has_12a;default:false"`
	Has80G     bool   `gorm:"column:has_80g;default:false"`
}

// TableName keeps the table name readable; the default would be "ng_os".
func (NGO) TableName() string {
	return "ngos"
}
