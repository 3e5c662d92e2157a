package auth

import (
	"testing"
)

func TestGenerateTokenPair(t *testing.T) {
	InitializeJWT("test-secret")

	idToken, accessToken, err := GenerateTokenPair("01ARZ3NDEKTSV4RRFFQ69G5FAV", "Ada", "ada@example.com", "admin")
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}
	if idToken == "" || accessToken == "" {
		t.Fatal("expected both tokens to be minted")
	}

	idClaims, err := ValidateToken(idToken)
	if err != nil {
		t.Fatalf("id token did not validate: %v", err)
	}
	if idClaims.TokenUse != UseID {
		t.Errorf("id token_use = %q, want %q", idClaims.TokenUse, UseID)
	}
	if idClaims.Name != "Ada" || idClaims.Email != "ada@example.com" || idClaims.Role != "admin" {
		t.Errorf("unexpected id claims: %+v", idClaims)
	}

	accessClaims, err := ValidateAccessToken(accessToken)
	if err != nil {
		t.Fatalf("access token did not validate: %v", err)
	}
	if accessClaims.Subject != "01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Errorf("access subject = %q", accessClaims.Subject)
	}
	// Profile claims stay off the access token
	if accessClaims.Role != "" || accessClaims.Name != "" {
		t.Errorf("access token leaked profile claims: %+v", accessClaims)
	}
}

func TestValidateAccessTokenRejectsIDToken(t *testing.T) {
	InitializeJWT("test-secret")

	idToken, _, err := GenerateTokenPair("u1", "Ada", "ada@example.com", "visitor")
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}

	if _, err := ValidateAccessToken(idToken); err == nil {
		t.Fatal("expected id token to be rejected as bearer credential")
	}
}

func TestValidateTokenErrors(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{name: "garbage token", secret: "test-secret", token: "not-a-token"},
		{name: "empty token", secret: "test-secret", token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitializeJWT(tt.secret)
			if _, err := ValidateToken(tt.token); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	InitializeJWT("secret-a")
	_, accessToken, err := GenerateTokenPair("u1", "Ada", "ada@example.com", "visitor")
	if err != nil {
		t.Fatalf("GenerateTokenPair failed: %v", err)
	}

	InitializeJWT("secret-b")
	if _, err := ValidateToken(accessToken); err == nil {
		t.Fatal("expected token signed with different secret to fail")
	}
}
