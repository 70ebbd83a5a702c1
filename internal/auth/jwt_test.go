package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/sessionlens/server/domain/entities"
)

var testSecret = []byte("test-secret")

func TestVerifyRoundTrip(t *testing.T) {
	verifier := NewVerifier(testSecret, "school.edu")

	token, err := GenerateToken(testSecret, "user-42", "coach@school.edu", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	principal, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if principal.UserID != "user-42" {
		t.Errorf("Expected user ID user-42, got %s", principal.UserID)
	}
	if principal.Email != "coach@school.edu" {
		t.Errorf("Expected email coach@school.edu, got %s", principal.Email)
	}
	if principal.ExpiresAt.Before(time.Now()) {
		t.Error("Expected expiry in the future")
	}
}

func TestVerifyRejections(t *testing.T) {
	verifier := NewVerifier(testSecret, "school.edu")

	valid, _ := GenerateToken(testSecret, "user-42", "coach@school.edu", time.Hour)
	wrongSecret, _ := GenerateToken([]byte("other-secret"), "user-42", "coach@school.edu", time.Hour)
	expired, _ := GenerateToken(testSecret, "user-42", "coach@school.edu", -time.Minute)
	wrongDomain, _ := GenerateToken(testSecret, "user-42", "coach@elsewhere.com", time.Hour)
	noUser, _ := GenerateToken(testSecret, "", "coach@school.edu", time.Hour)

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid token", valid, false},
		{"empty token", "", true},
		{"garbage token", "not-a-jwt", true},
		{"wrong secret", wrongSecret, true},
		{"expired token", expired, true},
		{"disallowed domain", wrongDomain, true},
		{"missing user id", noUser, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			if tt.wantErr {
				if !errors.Is(err, entities.ErrUnauthenticated) {
					t.Errorf("Expected ErrUnauthenticated, got %v", err)
				}
			} else if err != nil {
				t.Errorf("Expected success, got %v", err)
			}
		})
	}
}

func TestVerifyAnyDomainWhenUnset(t *testing.T) {
	verifier := NewVerifier(testSecret, "")

	token, _ := GenerateToken(testSecret, "user-7", "someone@anywhere.io", time.Hour)
	if _, err := verifier.Verify(token); err != nil {
		t.Errorf("Expected any domain to pass when no allow-list is set, got %v", err)
	}
}
