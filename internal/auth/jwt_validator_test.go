package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

func buildToken(t *testing.T, issuer, subject string, issued, expires time.Time) jwt.Token {
	t.Helper()
	builder := jwt.NewBuilder().
		Issuer(issuer).
		Audience([]string{"discount-function"}).
		IssuedAt(issued).
		NotBefore(issued).
		Expiration(expires)
	if subject != "" {
		builder = builder.Subject(subject)
	}
	token, err := builder.Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	return token
}

func TestTokenValidatorValidateSuccess(t *testing.T) {
	now := time.Now()
	token := buildToken(t, "platform", "shop.example", now, now.Add(time.Minute))

	validator := TokenValidator{Issuer: "platform", Audience: "discount-function", ClockSkew: time.Second, Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.HS256, now); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestTokenValidatorIssuerMismatch(t *testing.T) {
	now := time.Now()
	token := buildToken(t, "other", "shop.example", now, now.Add(time.Minute))

	validator := TokenValidator{Issuer: "platform", Audience: "discount-function", Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.HS256, now); err == nil {
		t.Fatal("expected issuer mismatch error")
	}
}

func TestTokenValidatorExpiry(t *testing.T) {
	now := time.Now()
	token := buildToken(t, "platform", "shop.example", now.Add(-2*time.Hour), now.Add(-time.Minute))

	validator := TokenValidator{Issuer: "platform", Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.HS256, now); err == nil {
		t.Fatal("expected expiry error")
	}
}

func TestTokenValidatorRequiresSubject(t *testing.T) {
	now := time.Now()
	token := buildToken(t, "platform", "", now, now.Add(time.Minute))

	validator := TokenValidator{Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.HS256, now); err == nil {
		t.Fatal("expected missing subject error")
	}
}

func TestTokenValidatorAlgorithmMismatch(t *testing.T) {
	now := time.Now()
	token := buildToken(t, "platform", "shop.example", now, now.Add(time.Minute))

	validator := TokenValidator{Algorithm: jwa.HS256}
	if err := validator.Validate(token, jwa.HS512, now); err == nil {
		t.Fatal("expected algorithm mismatch error")
	}
}
