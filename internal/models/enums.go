package models

import (
	"strings"

	apperrors "donaid/internal/errors"
)

// Category is a cause category campaigns are filed under.
type Category string

const (
	CategoryEducation        Category = "education"
	CategoryHealthcare       Category = "healthcare"
	CategoryEnvironment      Category = "environment"
	CategoryPoverty          Category = "poverty"
	CategoryDisasterRelief   Category = "disaster_relief"
	CategoryAnimalWelfare    Category = "animal_welfare"
	CategoryWomenEmpowerment Category = "women_empowerment"
	CategoryChildWelfare     Category = "child_welfare"
	CategoryElderlyCare      Category = "elderly_care"
	CategoryCommunity        Category = "community"
	CategoryArtsCulture      Category = "arts_culture"
	CategorySports           Category = "sports"
	CategoryTechnology       Category = "technology"
	CategoryOther            Category = "other"
)

var AllCategories = []Category{
	CategoryEducation,
	CategoryHealthcare,
	CategoryEnvironment,
	CategoryPoverty,
	CategoryDisasterRelief,
	CategoryAnimalWelfare,
	CategoryWomenEmpowerment,
	CategoryChildWelfare,
	CategoryElderlyCare,
	CategoryCommunity,
	CategoryArtsCulture,
	CategorySports,
	CategoryTechnology,
	CategoryOther,
}

func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", apperrors.Newf(apperrors.ErrInvalidCategory, "invalid category %q", s)
	}
	return c, nil
}

// PaymentMethod is the instrument a donation was paid with.
type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentDebitCard    PaymentMethod = "debit_card"
	PaymentUPI          PaymentMethod = "upi"
	PaymentNetBanking   PaymentMethod = "net_banking"
	PaymentWallet       PaymentMethod = "wallet"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentPaypal       PaymentMethod = "paypal"
	PaymentCheque       PaymentMethod = "cheque"
	PaymentCash         PaymentMethod = "cash"
)

var AllPaymentMethods = []PaymentMethod{
	PaymentCreditCard,
	PaymentDebitCard,
	PaymentUPI,
	PaymentNetBanking,
	PaymentWallet,
	PaymentBankTransfer,
	PaymentPaypal,
	PaymentCheque,
	PaymentCash,
}

func (m PaymentMethod) IsValid() bool {
	for _, known := range AllPaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", apperrors.Newf(apperrors.ErrInvalidPaymentMethod, "invalid payment method %q", s)
	}
	return m, nil
}

// Certification is one of the two tax certifications an NGO can hold.
type Certification string

const (
	Certification12A Certification = "12a"
	Certification80G Certification = "80g"
)

var AllCertifications = []Certification{Certification12A, Certification80G}

func (c Certification) IsValid() bool {
	return c == Certification12A || c == Certification80G
}
