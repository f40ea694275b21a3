// internal/handlers/coupon-dispatch/models.go
package coupondispatch

import "shop-assistant/internal/models"

type Input struct {
	Prompt string `json:"prompt"`
}

type Output struct {
	Success  bool                   `json:"success"`
	Credited int                    `json:"credited"`
	Campaign *models.CouponCampaign `json:"campaign,omitempty"`
}
