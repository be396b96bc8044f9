package discount

import (
	"errors"

	"github.com/rs/zerolog"
)

// Outcome records why a line did or did not receive a discount.
type Outcome string

const (
	OutcomeApplied           Outcome = "applied"
	OutcomeNotProductVariant Outcome = "not_product_variant"
	OutcomeUntagged          Outcome = "untagged"
	OutcomeNoMetafield       Outcome = "no_metafield"
	OutcomeMalformed         Outcome = "malformed_metafield"
	OutcomeNoDiscounts       Outcome = "no_discounts"
	OutcomeBelowThreshold    Outcome = "below_threshold"
)

// LineReport describes the evaluation of a single line.
type LineReport struct {
	LineID   string  `json:"lineId"`
	Quantity int64   `json:"quantity"`
	Outcome  Outcome `json:"outcome"`
	Tier     *Tier   `json:"tier,omitempty"`
	Warning  string  `json:"warning,omitempty"`
}

// Report is the result together with a per-line trace, in cart order.
type Report struct {
	Result Result       `json:"result"`
	Lines  []LineReport `json:"lines"`
}

// Evaluator computes volume discounts for a cart. The zero value is ready to use
// and logs nothing.
type Evaluator struct {
	Logger *zerolog.Logger
}

// Evaluate returns the discount result for the cart.
func Evaluate(cart Cart) Result {
	return Evaluator{}.Evaluate(cart)
}

// Evaluate returns the discount result for the cart.
func (e Evaluator) Evaluate(cart Cart) Result {
	return e.Explain(cart).Result
}

// Explain evaluates the cart and reports the outcome of every line.
func (e Evaluator) Explain(cart Cart) Report {
	report := Report{Lines: make([]LineReport, 0, len(cart.Lines))}
	applications := make([]Application, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lr := e.evaluateLine(line)
		if lr.Outcome == OutcomeApplied {
			applications = append(applications, newApplication(line.ID, *lr.Tier))
		}
		report.Lines = append(report.Lines, lr)
	}
	if len(applications) == 0 {
		report.Result = EmptyResult()
		return report
	}
	report.Result = Result{Strategy: StrategyMaximum, Discounts: applications}
	return report
}

func (e Evaluator) evaluateLine(line Line) LineReport {
	lr := LineReport{LineID: line.ID, Quantity: line.Quantity}

	var product Product
	switch m := line.Merchandise.(type) {
	case ProductVariant:
		product = m.Product
	default:
		lr.Outcome = OutcomeNotProductVariant
		return lr
	}
	if !product.HasAnyTag {
		lr.Outcome = OutcomeUntagged
		return lr
	}

	tiers, err := ParseTiers(product.metafieldValue())
	switch {
	case errors.Is(err, ErrEmptyMetafield):
		lr.Outcome = OutcomeNoMetafield
		return lr
	case errors.Is(err, ErrNoDiscounts):
		lr.Outcome = OutcomeNoDiscounts
		return lr
	case err != nil:
		lr.Outcome = OutcomeMalformed
		lr.Warning = err.Error()
		e.logger().Warn().Err(err).Str("line_id", line.ID).Msg("skip line with unparseable metafield")
		return lr
	}

	tier, ok := SelectTier(tiers, line.Quantity)
	if !ok {
		lr.Outcome = OutcomeBelowThreshold
		return lr
	}
	lr.Outcome = OutcomeApplied
	lr.Tier = &tier
	return lr
}

func (e Evaluator) logger() *zerolog.Logger {
	if e.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return e.Logger
}
