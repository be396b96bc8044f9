package auth

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-volume-discount/internal/common"
	"github.com/noah-isme/toko-volume-discount/internal/obs"
)

// Middleware authenticates platform callers before they reach the evaluator.
type Middleware struct {
	Verifier *Verifier
	Logger   zerolog.Logger
}

// RequireCaller rejects requests without a valid bearer token. With no verifier
// configured every request passes through unauthenticated.
func (m Middleware) RequireCaller(next http.Handler) http.Handler {
	if m.Verifier == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			recordFailure("missing_token")
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		caller, err := m.Verifier.Verify(token)
		if err != nil {
			recordFailure("invalid_token")
			m.Logger.Debug().Err(err).Str("remote_addr", common.ClientIP(r)).Msg("reject caller token")
			common.WriteAppError(w, err)
			return
		}
		obs.SetLogShop(r.Context(), caller.ShopID)
		next.ServeHTTP(w, r.WithContext(common.WithShopID(r.Context(), caller.ShopID)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func recordFailure(reason string) {
	if obs.CallerAuthFailuresTotal != nil {
		obs.CallerAuthFailuresTotal.WithLabelValues(reason).Inc()
	}
}
