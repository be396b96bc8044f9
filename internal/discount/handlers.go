package discount

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/toko-volume-discount/internal/common"
	"github.com/noah-isme/toko-volume-discount/internal/obs"
)

// Handler exposes the evaluator to the commerce platform over HTTP.
type Handler struct {
	Evaluator Evaluator
	Validate  *validator.Validate
}

// NewHandler constructs a handler with a fresh validator.
func NewHandler(evaluator Evaluator) *Handler {
	return &Handler{Evaluator: evaluator, Validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Run evaluates the posted cart and writes the raw function result.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	_, span := otel.Tracer("discount.Handler").Start(r.Context(), "DiscountHandler.Run")
	defer span.End()

	input, appErr := h.decode(r)
	if appErr != nil {
		span.RecordError(appErr)
		common.WriteAppError(w, appErr)
		return
	}
	report := h.Evaluator.Explain(input.Cart)
	observe(report)
	span.SetAttributes(
		attribute.Int("discount.lines", len(input.Cart.Lines)),
		attribute.Int("discount.applications", len(report.Result.Discounts)),
		attribute.String("discount.strategy", string(report.Result.Strategy)),
	)
	common.JSON(w, http.StatusOK, report.Result)
}

// Preview evaluates the posted cart and returns the per-line report.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	_, span := otel.Tracer("discount.Handler").Start(r.Context(), "DiscountHandler.Preview")
	defer span.End()

	input, appErr := h.decode(r)
	if appErr != nil {
		span.RecordError(appErr)
		common.WriteAppError(w, appErr)
		return
	}
	report := h.Evaluator.Explain(input.Cart)
	observe(report)
	span.SetAttributes(
		attribute.Int("discount.lines", len(input.Cart.Lines)),
		attribute.Int("discount.applications", len(report.Result.Discounts)),
	)
	common.JSON(w, http.StatusOK, map[string]any{"data": report})
}

func (h *Handler) decode(r *http.Request) (RunInput, *common.AppError) {
	var input RunInput
	if r.Body == nil {
		return input, common.NewAppError("BAD_REQUEST", "request body required", http.StatusBadRequest, nil)
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return input, common.NewAppError("BAD_REQUEST", "invalid payload", http.StatusBadRequest, err)
	}
	if h.Validate == nil {
		return input, nil
	}
	if err := h.Validate.Struct(input); err != nil {
		appErr := common.NewAppError("BAD_REQUEST", "invalid cart", http.StatusBadRequest, err)
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Namespace()] = fmt.Sprintf("failed %s", fe.Tag())
			}
			appErr.Details = details
		}
		return input, appErr
	}
	return input, nil
}

func observe(report Report) {
	if obs.DiscountEvaluationsTotal != nil {
		obs.DiscountEvaluationsTotal.WithLabelValues(string(report.Result.Strategy)).Inc()
	}
	if obs.DiscountLineOutcomesTotal != nil {
		for _, line := range report.Lines {
			obs.DiscountLineOutcomesTotal.WithLabelValues(string(line.Outcome)).Inc()
		}
	}
}
