package utils_test

import (
	"testing"

	"shelftrack/internal/utils"
)

func TestJWTRoundTrip(t *testing.T) {
	utils.InitJwtSecret("test-secret")

	token, err := utils.GenerateJWT("64b0c8f0a1b2c3d4e5f60718", "admin")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	claims, err := utils.ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT failed: %v", err)
	}
	if claims.UserID != "64b0c8f0a1b2c3d4e5f60718" {
		t.Errorf("user id mismatch: %s", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Errorf("role mismatch: %s", claims.Role)
	}
}

func TestParseJWTRejectsGarbage(t *testing.T) {
	utils.InitJwtSecret("test-secret")

	if _, err := utils.ParseJWT("not-a-token"); err == nil {
		t.Errorf("expected error for malformed token")
	}
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	utils.InitJwtSecret("first-secret")
	token, err := utils.GenerateJWT("64b0c8f0a1b2c3d4e5f60718", "user")
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	utils.InitJwtSecret("second-secret")
	if _, err := utils.ParseJWT(token); err == nil {
		t.Errorf("expected signature verification to fail")
	}
}
