package discount

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Strategy tells the platform how to combine the returned applications.
type Strategy string

const (
	// StrategyFirst applies only the first application. Used for the empty result.
	StrategyFirst Strategy = "FIRST"
	// StrategyMaximum applies every listed application.
	StrategyMaximum Strategy = "MAXIMUM"
)

const productVariantType = "ProductVariant"

// RunInput is the document the platform sends on each invocation.
type RunInput struct {
	Cart Cart `json:"cart"`
}

// Cart is an ordered snapshot of cart lines.
type Cart struct {
	Lines []Line `json:"lines" validate:"dive"`
}

// Line is a single cart line.
type Line struct {
	ID          string      `json:"id" validate:"required"`
	Quantity    int64       `json:"quantity" validate:"gte=1"`
	Merchandise Merchandise `json:"merchandise"`
}

// Merchandise is either a ProductVariant or OtherMerchandise.
type Merchandise interface {
	TypeName() string
	isMerchandise()
}

// ProductVariant is the only merchandise kind eligible for volume discounts.
type ProductVariant struct {
	Product Product `json:"product"`
}

// TypeName implements Merchandise.
func (ProductVariant) TypeName() string { return productVariantType }
func (ProductVariant) isMerchandise()   {}

// OtherMerchandise covers every non-variant kind, e.g. custom products.
type OtherMerchandise struct {
	Kind string
}

// TypeName implements Merchandise.
func (o OtherMerchandise) TypeName() string { return o.Kind }
func (OtherMerchandise) isMerchandise()     {}

// Product carries the tag flag and tier metafield of a variant's product.
type Product struct {
	HasAnyTag bool       `json:"hasAnyTag"`
	Metafield *Metafield `json:"metafield"`
}

// UnmarshalJSON treats hasAnyTag as set only for a literal JSON true.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw struct {
		HasAnyTag json.RawMessage `json:"hasAnyTag"`
		Metafield *Metafield      `json:"metafield"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.HasAnyTag = bytes.Equal(bytes.TrimSpace(raw.HasAnyTag), []byte("true"))
	p.Metafield = raw.Metafield
	return nil
}

// Metafield is the platform-attached string field holding the tier table.
type Metafield struct {
	Value *string `json:"value"`
}

// UnmarshalJSON keeps only string values. Anything else leaves Value nil so the
// line is treated as having no tier table rather than failing the whole input.
func (m *Metafield) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Value = nil
	var value string
	if err := json.Unmarshal(raw.Value, &value); err == nil && len(bytes.TrimSpace(raw.Value)) > 0 && raw.Value[0] == '"' {
		m.Value = &value
	}
	return nil
}

// metafieldValue returns "" when the field or its value is absent.
func (p Product) metafieldValue() string {
	if p.Metafield == nil || p.Metafield.Value == nil {
		return ""
	}
	return *p.Metafield.Value
}

type lineWire struct {
	ID          string          `json:"id"`
	Quantity    int64           `json:"quantity"`
	Merchandise json.RawMessage `json:"merchandise"`
}

type merchandiseWire struct {
	TypeName string   `json:"__typename"`
	Product  *Product `json:"product,omitempty"`
}

// UnmarshalJSON dispatches the merchandise on its __typename.
func (l *Line) UnmarshalJSON(data []byte) error {
	var wire lineWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	l.ID = wire.ID
	l.Quantity = wire.Quantity
	l.Merchandise = nil

	raw := bytes.TrimSpace(wire.Merchandise)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		l.Merchandise = OtherMerchandise{}
		return nil
	}
	var head merchandiseWire
	if err := json.Unmarshal(raw, &head); err != nil {
		return fmt.Errorf("line %s: merchandise: %w", wire.ID, err)
	}
	if head.TypeName != productVariantType {
		l.Merchandise = OtherMerchandise{Kind: head.TypeName}
		return nil
	}
	variant := ProductVariant{}
	if head.Product != nil {
		variant.Product = *head.Product
	}
	l.Merchandise = variant
	return nil
}

// MarshalJSON writes the merchandise back with its __typename.
func (l Line) MarshalJSON() ([]byte, error) {
	head := merchandiseWire{}
	switch m := l.Merchandise.(type) {
	case ProductVariant:
		head.TypeName = productVariantType
		product := m.Product
		head.Product = &product
	case OtherMerchandise:
		head.TypeName = m.Kind
	}
	merch, err := json.Marshal(head)
	if err != nil {
		return nil, err
	}
	return json.Marshal(lineWire{ID: l.ID, Quantity: l.Quantity, Merchandise: merch})
}

// Tier is one row of the metafield tier table.
type Tier struct {
	Quantity int64           `json:"quantity"`
	Discount decimal.Decimal `json:"discount"`
	Message  string          `json:"message"`
}

// Application is a percentage discount on one cart line.
type Application struct {
	Message string   `json:"message"`
	Targets []Target `json:"targets"`
	Value   Value    `json:"value"`
}

// Target points an application at a cart line.
type Target struct {
	CartLine CartLineTarget `json:"cartLine"`
}

// CartLineTarget identifies the discounted line.
type CartLineTarget struct {
	ID string `json:"id"`
}

// Value wraps the discount amount.
type Value struct {
	Percentage Percentage `json:"percentage"`
}

// Percentage is a percent-off value, e.g. 20 for 20%.
type Percentage struct {
	Value decimal.Decimal `json:"value"`
}

// Result is returned to the platform.
type Result struct {
	Strategy  Strategy      `json:"discountApplicationStrategy"`
	Discounts []Application `json:"discounts"`
}

// EmptyResult is the canonical "no discount" result.
func EmptyResult() Result {
	return Result{Strategy: StrategyFirst, Discounts: []Application{}}
}

func newApplication(lineID string, tier Tier) Application {
	return Application{
		Message: tier.Message,
		Targets: []Target{{CartLine: CartLineTarget{ID: lineID}}},
		Value:   Value{Percentage: Percentage{Value: tier.Discount}},
	}
}
