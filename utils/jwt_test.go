package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken("user-1", "owner", "s3cret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ParseToken(tok, "s3cret")
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "owner" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseTokenRejects(t *testing.T) {
	good, _ := GenerateToken("user-1", "customer", "s3cret", time.Hour)
	expired, _ := GenerateToken("user-1", "customer", "s3cret", -time.Minute)
	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1", Role: "admin"})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, tok := range map[string]string{
		"wrong secret": good,
		"expired":      expired,
		"alg none":     unsigned,
		"garbage":      "not-a-token",
	} {
		secret := "s3cret"
		if name == "wrong secret" {
			secret = "other"
		}
		if _, err := ParseToken(tok, secret); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
