package auth

import (
	"strings"
	"testing"
)

const testSecret = "test-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(testSecret, 42, "maja")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Username != "maja" {
		t.Errorf("expected username 'maja', got %q", claims.Username)
	}
	if claims.ID == "" {
		t.Error("expected non-empty JTI")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, 1, "maja")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ValidateToken("other-secret", token); err == nil {
		t.Error("expected error for token signed with different secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := ValidateToken(testSecret, "not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestUniqueJTI(t *testing.T) {
	t1, _ := GenerateToken(testSecret, 1, "maja")
	t2, _ := GenerateToken(testSecret, 1, "maja")

	c1, _ := ValidateToken(testSecret, t1)
	c2, _ := ValidateToken(testSecret, t2)
	if c1.ID == c2.ID {
		t.Error("expected distinct JTIs for separate tokens")
	}
	if strings.Count(c1.ID, "-") != 4 {
		t.Errorf("expected UUID-shaped JTI, got %q", c1.ID)
	}
}
