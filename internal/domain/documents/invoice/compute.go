package invoice

import (
	"math"

	"github.com/shopspring/decimal"

	"autobill/internal/core/apperror"
	"autobill/internal/core/types"
)

// Amounts are the monetary fields of one line item, rounded to two places.
type Amounts struct {
	ExtendedPrice types.Money
	TaxAmount     types.Money
	PriceInclTax  types.Money
}

// MaxQuantity is the largest quantity the invoice_items.quantity column holds.
const MaxQuantity = math.MaxInt32

// CheckQuantity rejects quantities outside 1..MaxQuantity with INVALID_QUANTITY.
func CheckQuantity(quantity int) error {
	if quantity <= 0 || quantity > MaxQuantity {
		return apperror.NewInvalidQuantity(quantity)
	}
	return nil
}

// Compute prices a line:
//
//	extended = unitPrice * quantity
//	tax      = extended * rate / 100
//	incl     = extended + tax
//
// Arithmetic is exact; results are rounded half-up to two places. A nil rate
// means no tax category could be resolved and is an error, never a zero rate.
func Compute(unitPrice types.Money, quantity int, rate *types.Rate) (Amounts, error) {
	if err := CheckQuantity(quantity); err != nil {
		return Amounts{}, err
	}
	if rate == nil {
		return Amounts{}, apperror.NewMissingTaxCategory(nil)
	}
	if unitPrice.IsNegative() {
		return Amounts{}, apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice").
			WithDetail("value", unitPrice.String())
	}
	if !types.IsValidRate(*rate) {
		return Amounts{}, apperror.NewValidation("tax rate must be between 0 and 100").
			WithDetail("field", "taxRate").
			WithDetail("value", rate.String())
	}

	extended := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	tax := types.PercentOf(extended, *rate)

	// incl is built from the rounded parts so the stored fields always add up.
	roundedExt := types.RoundMoney(extended)
	roundedTax := types.RoundMoney(tax)

	return Amounts{
		ExtendedPrice: roundedExt,
		TaxAmount:     roundedTax,
		PriceInclTax:  roundedExt.Add(roundedTax),
	}, nil
}
