package models

import (
	"errors"
	"time"
)

// Customer is a wallet holder targeted by coupon campaigns.
type Customer struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	TotalSpent    float64 `json:"totalSpent"`
	IsNew         bool    `json:"isNew"`
	WalletBalance float64 `json:"walletBalance"`
}

// User is an account stored in the users table.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PhoneNumber  string    `json:"phoneNumber,omitempty"`
	TotalSpent   float64   `json:"totalSpent"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// CampaignTarget selects coupon recipients.
type CampaignTarget string

const (
	TargetNewCustomers  CampaignTarget = "NEW_CUSTOMERS"
	TargetTotalSpentMin CampaignTarget = "TOTAL_SPENT_MIN"
)

var (
	ErrInvalidTarget      = errors.New("invalid campaign target")
	ErrInvalidAmount      = errors.New("campaign amount must be positive")
	ErrMissingMinPurchase = errors.New("minPurchase is required for TOTAL_SPENT_MIN")
)

// CouponCampaign is interpreted from a vendor prompt and consumed once.
type CouponCampaign struct {
	Amount      float64        `json:"amount"`
	Target      CampaignTarget `json:"target"`
	MinPurchase *float64       `json:"minPurchase,omitempty"`
}

func (c *CouponCampaign) Validate() error {
	switch c.Target {
	case TargetNewCustomers:
	case TargetTotalSpentMin:
		if c.MinPurchase == nil || *c.MinPurchase <= 0 {
			return ErrMissingMinPurchase
		}
	default:
		return ErrInvalidTarget
	}
	if c.Amount <= 0 {
		return ErrInvalidAmount
	}
	return nil
}
