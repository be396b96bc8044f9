package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:4411"
	require.Equal(t, "10.0.0.5", ClientIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.7")
	require.Equal(t, "192.0.2.7", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	require.Equal(t, "198.51.100.1", ClientIP(req))
}

func TestCallerKeyPrefersShop(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.5:4411"
	require.Equal(t, "ip:10.0.0.5", CallerKey(req))

	req = req.WithContext(WithShopID(req.Context(), "example.myshopify.com"))
	require.Equal(t, "shop:example.myshopify.com", CallerKey(req))
}

func TestWriteAppError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, errors.New("expired")))
	rr := httptest.NewRecorder()
	WriteAppError(rr, wrapped)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	var body struct {
		Error ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "UNAUTHORIZED", body.Error.Code)
	require.Equal(t, "invalid token", body.Error.Message)

	rr = httptest.NewRecorder()
	WriteAppError(rr, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
