package invoice

import (
	"strings"

	"autobill/internal/core/apperror"
	"autobill/internal/domain/catalogs/taxcategory"
)

// Variant selects the items shown on a bill.
type Variant string

const (
	VariantAll          Variant = "ALL"
	VariantGoodsOnly    Variant = "GOODS_ONLY"
	VariantServicesOnly Variant = "SERVICES_ONLY"
)

// Variants lists every bill variant.
var Variants = []Variant{VariantAll, VariantGoodsOnly, VariantServicesOnly}

// ParseVariant accepts the variant names in any case; empty means ALL.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(VariantAll):
		return VariantAll, nil
	case string(VariantGoodsOnly), "GOODS":
		return VariantGoodsOnly, nil
	case string(VariantServicesOnly), "SERVICES":
		return VariantServicesOnly, nil
	}
	return "", apperror.NewValidation("unknown bill variant").
		WithDetail("field", "variant").
		WithDetail("value", s).
		WithDetail("allowed", Variants)
}

// label returns the tax category label a filtered variant selects.
func (v Variant) label() string {
	switch v {
	case VariantGoodsOnly:
		return taxcategory.LabelGoods
	case VariantServicesOnly:
		return taxcategory.LabelService
	}
	return ""
}

// Includes reports whether item belongs on a bill of this variant.
// Filtered variants never include uncategorized items.
func (v Variant) Includes(item *LineItem) bool {
	if v == VariantAll {
		return true
	}
	if !item.Categorized() {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(item.TaxLabel), v.label())
}

// BillView is the fully computed input of one rendered bill.
type BillView struct {
	Invoice *Invoice   `json:"-"`
	Variant Variant    `json:"variant"`
	Items   []LineItem `json:"items"`
	Totals
}

// Partition selects the items of variant from inv, keeping their order.
// ALL carries the invoice's stored totals; filtered variants are re-totaled
// from their own items. An empty selection is valid and totals zero.
func Partition(inv *Invoice, variant Variant) (BillView, error) {
	if inv == nil {
		return BillView{}, apperror.NewNotFound("invoice", nil)
	}

	if variant == VariantAll {
		items := make([]LineItem, len(inv.Items))
		copy(items, inv.Items)
		return BillView{Invoice: inv, Variant: variant, Items: items, Totals: inv.Totals()}, nil
	}

	if variant.label() == "" {
		return BillView{}, apperror.NewValidation("unknown bill variant").
			WithDetail("field", "variant").
			WithDetail("value", string(variant))
	}

	items := make([]LineItem, 0, len(inv.Items))
	for i := range inv.Items {
		if variant.Includes(&inv.Items[i]) {
			items = append(items, inv.Items[i])
		}
	}

	return BillView{
		Invoice: inv,
		Variant: variant,
		Items:   items,
		Totals:  Aggregate(items),
	}, nil
}
