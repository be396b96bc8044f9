package discount

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyMetafield is returned when the product carries no tier table.
	ErrEmptyMetafield = errors.New("metafield value empty")
	// ErrMalformedMetafield indicates the tier table is not valid JSON of the expected shape.
	ErrMalformedMetafield = errors.New("metafield value malformed")
	// ErrNoDiscounts is returned when the decoded object has no discounts field.
	ErrNoDiscounts = errors.New("metafield has no discounts")

	errNullTier           = errors.New("null tier entry")
	errMissingQuantity    = errors.New("quantity missing")
	errMissingDiscount    = errors.New("discount missing")
	errFractionalQuantity = errors.New("quantity is not an integer")
)

type tierTable struct {
	Discounts *[]*tierWire `json:"discounts"`
}

// tierWire keeps presence so absent fields are rejected instead of zeroed.
type tierWire struct {
	Quantity *decimal.Decimal `json:"quantity"`
	Discount *decimal.Decimal `json:"discount"`
	Message  string           `json:"message"`
}

func (w tierWire) tier() (Tier, error) {
	if w.Quantity == nil {
		return Tier{}, errMissingQuantity
	}
	if w.Discount == nil {
		return Tier{}, errMissingDiscount
	}
	if !w.Quantity.IsInteger() || !w.Quantity.Equal(decimal.NewFromInt(w.Quantity.IntPart())) {
		return Tier{}, errFractionalQuantity
	}
	return Tier{Quantity: w.Quantity.IntPart(), Discount: *w.Discount, Message: w.Message}, nil
}

// ParseTiers decodes a metafield value of the form {"discounts":[...]}.
// Every tier needs a quantity and a discount; integral quantities written as
// 5.0 are accepted. Tiers are returned in payload order.
func ParseTiers(value string) ([]Tier, error) {
	if value == "" {
		return nil, ErrEmptyMetafield
	}
	var table *tierTable
	if err := json.Unmarshal([]byte(value), &table); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMetafield, err)
	}
	if table == nil || table.Discounts == nil {
		return nil, ErrNoDiscounts
	}
	tiers := make([]Tier, 0, len(*table.Discounts))
	for i, entry := range *table.Discounts {
		if entry == nil {
			return nil, fmt.Errorf("%w: discounts[%d]: %w", ErrMalformedMetafield, i, errNullTier)
		}
		tier, err := entry.tier()
		if err != nil {
			return nil, fmt.Errorf("%w: discounts[%d]: %w", ErrMalformedMetafield, i, err)
		}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}

// SelectTier picks the tier with the largest threshold not above quantity.
// Equal thresholds resolve to the one listed first.
func SelectTier(tiers []Tier, quantity int64) (Tier, bool) {
	sorted := slices.Clone(tiers)
	slices.SortStableFunc(sorted, func(a, b Tier) int {
		return cmp.Compare(b.Quantity, a.Quantity)
	})
	for _, tier := range sorted {
		if quantity >= tier.Quantity {
			return tier, true
		}
	}
	return Tier{}, false
}
