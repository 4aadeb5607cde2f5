package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/eagle-green/mysked/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, "u-1", model.RoleManager)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != "u-1" {
		t.Errorf("UserID = %q, want u-1", claims.UserID)
	}
	if claims.Role != model.RoleManager {
		t.Errorf("Role = %q, want manager", claims.Role)
	}
	if claims.ID == "" {
		t.Error("expected a JTI")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", "u-1", model.RoleAdmin)

	if _, err := ValidateToken("secret2", token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	if _, err := ValidateToken("secret", "not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
	if _, err := ValidateToken("", "anything"); err == nil {
		t.Error("expected error without a secret")
	}
}

func TestValidateTokenFallsBackToSubject(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  "u-9",
		"role": model.RoleUser,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := ValidateToken("s", signed)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if got.UserID != "u-9" {
		t.Errorf("UserID = %q, want u-9", got.UserID)
	}
}

func TestValidateTokenRequiresExpiry(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u-1"}).SignedString([]byte("s"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken("s", signed); err == nil {
		t.Error("expected error for token without exp")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "u-1",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	}).SignedString([]byte("s"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateToken("s", signed); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestTokenExpiry(t *testing.T) {
	token, _ := GenerateToken("test", "u-1", model.RoleUser)
	claims, err := ValidateToken("test", token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	diff := time.Now().Add(TokenExpiry).Sub(claims.ExpiresAt.Time)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}
