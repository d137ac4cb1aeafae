package pricing

import (
	"errors"
	"testing"

	"github.com/bdticketpro/backoffice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		name     string
		floor    int64
		selling  int64
		pax      int
		discount float64
		want     int64
	}{
		{name: "two passengers no discount", floor: 75000, selling: 85000, pax: 2, discount: 0, want: 170000},
		{name: "single passenger", floor: 0, selling: 85000, pax: 1, discount: 0, want: 85000},
		{name: "ten percent discount", floor: 0, selling: 10000, pax: 1, discount: 10, want: 9000},
		{name: "discount rounds to whole taka", floor: 0, selling: 3333, pax: 1, discount: 10, want: 3000},
		{name: "full discount", floor: 0, selling: 5000, pax: 3, discount: 100, want: 0},
		{name: "max passengers", floor: 0, selling: 1000, pax: 9, discount: 0, want: 9000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := Calculate(tt.floor, tt.selling, tt.pax, tt.discount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, quote.TotalAmount)
		})
	}
}

func TestCalculate_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		floor    int64
		selling  int64
		pax      int
		discount float64
		field    string
	}{
		{name: "below floor", floor: 75000, selling: 74999, pax: 1, discount: 0, field: "selling_price"},
		{name: "zero price", floor: 0, selling: 0, pax: 1, discount: 0, field: "selling_price"},
		{name: "zero passengers", floor: 0, selling: 1000, pax: 0, discount: 0, field: "pax_count"},
		{name: "too many passengers", floor: 0, selling: 1000, pax: 10, discount: 0, field: "pax_count"},
		{name: "negative discount", floor: 0, selling: 1000, pax: 1, discount: -1, field: "discount"},
		{name: "discount above 100", floor: 0, selling: 1000, pax: 1, discount: 101, field: "discount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := Calculate(tt.floor, tt.selling, tt.pax, tt.discount)
			require.Error(t, err)
			assert.Nil(t, quote)

			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Contains(t, vErr.Fields, tt.field)
		})
	}
}

func TestCalculate_BreakdownFields(t *testing.T) {
	quote, err := Calculate(0, 85000, 2, 10)
	require.NoError(t, err)

	assert.Equal(t, int64(170000), quote.BaseAmount)
	assert.Equal(t, int64(17000), quote.DiscountAmount)
	assert.Equal(t, int64(153000), quote.TotalAmount)
	assert.Equal(t, quote.BaseAmount-quote.DiscountAmount, quote.TotalAmount)
}
