package invoice

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobill/internal/core/apperror"
	"autobill/internal/core/types"
)

func rate(s string) *types.Rate {
	r := types.MustMoney(s)
	return &r
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		unitPrice string
		quantity  int
		rate      string
		extended  string
		tax       string
		incl      string
	}{
		{"oil filter", "100.00", 2, "17", "200.00", "34.00", "234.00"},
		{"service", "50.00", 1, "15", "50.00", "7.50", "57.50"},
		{"zero rate", "10.00", 3, "0", "30.00", "0.00", "30.00"},
		{"free item", "0.00", 4, "17", "0.00", "0.00", "0.00"},
		{"half up", "0.15", 1, "10", "0.15", "0.02", "0.17"},
		{"fractional rate", "33.33", 3, "12.50", "99.99", "12.50", "112.49"},
		{"large quantity", "2500.00", 1000, "17", "2500000.00", "425000.00", "2925000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(types.MustMoney(tt.unitPrice), tt.quantity, rate(tt.rate))
			require.NoError(t, err)

			assert.Equal(t, tt.extended, types.FormatMoney(got.ExtendedPrice))
			assert.Equal(t, tt.tax, types.FormatMoney(got.TaxAmount))
			assert.Equal(t, tt.incl, types.FormatMoney(got.PriceInclTax))
			assert.True(t, got.PriceInclTax.Equal(got.ExtendedPrice.Add(got.TaxAmount)))
		})
	}
}

func TestCompute_Errors(t *testing.T) {
	t.Run("zero quantity", func(t *testing.T) {
		_, err := Compute(types.MustMoney("1.00"), 0, rate("17"))
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidQuantity))
	})

	t.Run("negative quantity", func(t *testing.T) {
		_, err := Compute(types.MustMoney("1.00"), -3, rate("17"))
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidQuantity))
	})

	t.Run("quantity above column range", func(t *testing.T) {
		_, err := Compute(types.MustMoney("1.00"), MaxQuantity, rate("17"))
		require.NoError(t, err)

		tooMany := MaxQuantity
		tooMany++
		_, err = Compute(types.MustMoney("1.00"), tooMany, rate("17"))
		assert.True(t, apperror.IsCode(err, apperror.CodeInvalidQuantity))
	})

	t.Run("missing rate is not zero", func(t *testing.T) {
		_, err := Compute(types.MustMoney("1.00"), 1, nil)
		assert.True(t, apperror.IsCode(err, apperror.CodeMissingTaxCategory))
	})

	t.Run("negative price", func(t *testing.T) {
		_, err := Compute(types.MustMoney("-1.00"), 1, rate("17"))
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("rate above 100", func(t *testing.T) {
		_, err := Compute(types.MustMoney("1.00"), 1, rate("100.01"))
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})
}

func TestCompute_IdentityHoldsAcrossGrid(t *testing.T) {
	prices := []string{"0.01", "0.05", "1.99", "19.95", "800.00", "1234.56"}
	rates := []string{"0", "5", "12.5", "15", "17", "33.33", "100"}

	for _, p := range prices {
		for _, r := range rates {
			for q := 1; q <= 7; q++ {
				got, err := Compute(types.MustMoney(p), q, rate(r))
				require.NoError(t, err)
				require.True(t, got.PriceInclTax.Equal(got.ExtendedPrice.Add(got.TaxAmount)), "%s x %d @ %s", p, q, r)
				require.True(t, got.ExtendedPrice.Equal(types.MustMoney(p).Mul(decimal.NewFromInt(int64(q)))), "%s x %d", p, q)
			}
		}
	}
}
