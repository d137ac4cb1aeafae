// Package pricing computes booking totals in whole taka.
package pricing

import (
	"fmt"
	"math"

	"github.com/bdticketpro/backoffice/internal/domain"
)

const (
	MinPaxCount = 1
	MaxPaxCount = 9
)

// Quote is the per-booking price breakdown. All amounts are whole taka.
type Quote struct {
	SellingPrice   int64   `json:"selling_price"`
	PaxCount       int     `json:"pax_count"`
	Discount       float64 `json:"discount"`
	BaseAmount     int64   `json:"base_amount"`
	DiscountAmount int64   `json:"discount_amount"`
	TotalAmount    int64   `json:"total_amount"`
}

// Calculate prices a booking: total = selling × pax × (1 − discount/100),
// rounded half-up to whole taka. floorPrice is the lowest selling price the
// ticket may be sold at.
func Calculate(floorPrice, sellingPrice int64, paxCount int, discount float64) (*Quote, error) {
	v := domain.NewValidationError()

	if sellingPrice <= 0 {
		v.Add("selling_price", "selling price must be positive")
	} else if sellingPrice < floorPrice {
		v.Add("selling_price", fmt.Sprintf("selling price must be at least %d", floorPrice))
	}
	if paxCount < MinPaxCount || paxCount > MaxPaxCount {
		v.Add("pax_count", fmt.Sprintf("passenger count must be between %d and %d", MinPaxCount, MaxPaxCount))
	}
	if discount < 0 || discount > 100 {
		v.Add("discount", "discount must be between 0 and 100")
	}
	if err := v.ErrOrNil(); err != nil {
		return nil, err
	}

	base := sellingPrice * int64(paxCount)
	discountAmount := int64(math.Round(float64(base) * discount / 100))
	return &Quote{
		SellingPrice:   sellingPrice,
		PaxCount:       paxCount,
		Discount:       discount,
		BaseAmount:     base,
		DiscountAmount: discountAmount,
		TotalAmount:    base - discountAmount,
	}, nil
}
