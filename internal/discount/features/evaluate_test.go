package features

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-volume-discount/internal/discount"
)

type evaluateTestContext struct {
	tierTable string
	lines     []discount.Line
	result    discount.Result
	second    discount.Result
}

func (c *evaluateTestContext) reset() {
	c.tierTable = ""
	c.lines = nil
	c.result = discount.Result{}
	c.second = discount.Result{}
}

func (c *evaluateTestContext) theTierTable(table *godog.Table) error {
	type tierRow struct {
		Quantity int64           `json:"quantity"`
		Discount decimal.Decimal `json:"discount"`
		Message  string          `json:"message"`
	}
	rows := []tierRow{}
	for i, row := range table.Rows {
		if i == 0 {
			continue // header
		}
		var qty int64
		if _, err := fmt.Sscan(row.Cells[0].Value, &qty); err != nil {
			return err
		}
		pct, err := decimal.NewFromString(row.Cells[1].Value)
		if err != nil {
			return err
		}
		rows = append(rows, tierRow{Quantity: qty, Discount: pct, Message: row.Cells[2].Value})
	}
	data, err := json.Marshal(map[string]any{"discounts": rows})
	if err != nil {
		return err
	}
	c.tierTable = string(data)
	return nil
}

func (c *evaluateTestContext) addVariantLine(id string, qty int, tagged bool, metafield string) {
	value := metafield
	c.lines = append(c.lines, discount.Line{
		ID:       id,
		Quantity: int64(qty),
		Merchandise: discount.ProductVariant{Product: discount.Product{
			HasAnyTag: tagged,
			Metafield: &discount.Metafield{Value: &value},
		}},
	})
}

func (c *evaluateTestContext) aTaggedVariantLineWithQuantity(id string, qty int) error {
	c.addVariantLine(id, qty, true, c.tierTable)
	return nil
}

func (c *evaluateTestContext) anUntaggedVariantLineWithQuantity(id string, qty int) error {
	c.addVariantLine(id, qty, false, c.tierTable)
	return nil
}

func (c *evaluateTestContext) aTaggedVariantLineWithMetafieldAndQuantity(id, metafield string, qty int) error {
	c.addVariantLine(id, qty, true, metafield)
	return nil
}

func (c *evaluateTestContext) anOtherLineWithQuantity(kind, id string, qty int) error {
	c.lines = append(c.lines, discount.Line{
		ID:          id,
		Quantity:    int64(qty),
		Merchandise: discount.OtherMerchandise{Kind: kind},
	})
	return nil
}

func (c *evaluateTestContext) theCartIsEvaluated() error {
	c.result = discount.Evaluate(discount.Cart{Lines: c.lines})
	return nil
}

func (c *evaluateTestContext) theCartIsEvaluatedTwice() error {
	cart := discount.Cart{Lines: c.lines}
	c.result = discount.Evaluate(cart)
	c.second = discount.Evaluate(cart)
	return nil
}

func (c *evaluateTestContext) theStrategyIs(strategy string) error {
	if string(c.result.Strategy) != strategy {
		return fmt.Errorf("expected strategy %s, got %s", strategy, c.result.Strategy)
	}
	return nil
}

func (c *evaluateTestContext) thereAreDiscounts(n int) error {
	if len(c.result.Discounts) != n {
		return fmt.Errorf("expected %d discounts, got %d", n, len(c.result.Discounts))
	}
	return nil
}

func (c *evaluateTestContext) findApplication(id string) (discount.Application, bool) {
	for _, app := range c.result.Discounts {
		for _, target := range app.Targets {
			if target.CartLine.ID == id {
				return app, true
			}
		}
	}
	return discount.Application{}, false
}

func (c *evaluateTestContext) lineIsDiscountedPercentWithMessage(id string, pct int, message string) error {
	app, ok := c.findApplication(id)
	if !ok {
		return fmt.Errorf("expected a discount for line %s", id)
	}
	if !app.Value.Percentage.Value.Equal(decimal.NewFromInt(int64(pct))) {
		return fmt.Errorf("expected %d%%, got %s", pct, app.Value.Percentage.Value)
	}
	if app.Message != message {
		return fmt.Errorf("expected message %q, got %q", message, app.Message)
	}
	return nil
}

func (c *evaluateTestContext) lineIsNotDiscounted(id string) error {
	if _, ok := c.findApplication(id); ok {
		return fmt.Errorf("expected no discount for line %s", id)
	}
	return nil
}

func (c *evaluateTestContext) theResultIsTheEmptyDiscount() error {
	if !reflect.DeepEqual(c.result, discount.EmptyResult()) {
		return fmt.Errorf("expected empty result, got %+v", c.result)
	}
	return nil
}

func (c *evaluateTestContext) everyDiscountTargetsADistinctLine() error {
	seen := map[string]struct{}{}
	for _, app := range c.result.Discounts {
		if len(app.Targets) != 1 {
			return fmt.Errorf("expected a single target, got %d", len(app.Targets))
		}
		id := app.Targets[0].CartLine.ID
		if _, dup := seen[id]; dup {
			return fmt.Errorf("line %s targeted twice", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (c *evaluateTestContext) bothResultsAreIdentical() error {
	first, err := json.Marshal(c.result)
	if err != nil {
		return err
	}
	second, err := json.Marshal(c.second)
	if err != nil {
		return err
	}
	if string(first) != string(second) {
		return errors.New("expected identical results across evaluations")
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &evaluateTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the tier table:$`, tc.theTierTable)
	ctx.Step(`^a tagged variant line "([^"]*)" with quantity (\d+)$`, tc.aTaggedVariantLineWithQuantity)
	ctx.Step(`^an untagged variant line "([^"]*)" with quantity (\d+)$`, tc.anUntaggedVariantLineWithQuantity)
	ctx.Step(`^a tagged variant line "([^"]*)" with metafield "([^"]*)" and quantity (\d+)$`, tc.aTaggedVariantLineWithMetafieldAndQuantity)
	ctx.Step(`^a "([^"]*)" line "([^"]*)" with quantity (\d+)$`, tc.anOtherLineWithQuantity)

	// When steps
	ctx.Step(`^the cart is evaluated$`, tc.theCartIsEvaluated)
	ctx.Step(`^the cart is evaluated twice$`, tc.theCartIsEvaluatedTwice)

	// Then steps
	ctx.Step(`^the strategy is "([^"]*)"$`, tc.theStrategyIs)
	ctx.Step(`^there are (\d+) discounts$`, tc.thereAreDiscounts)
	ctx.Step(`^line "([^"]*)" is discounted (\d+) percent with message "([^"]*)"$`, tc.lineIsDiscountedPercentWithMessage)
	ctx.Step(`^line "([^"]*)" is not discounted$`, tc.lineIsNotDiscounted)
	ctx.Step(`^the result is the empty discount$`, tc.theResultIsTheEmptyDiscount)
	ctx.Step(`^every discount targets a distinct line$`, tc.everyDiscountTargetsADistinctLine)
	ctx.Step(`^both results are identical$`, tc.bothResultsAreIdentical)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"evaluate.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
