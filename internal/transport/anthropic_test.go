package transport

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestNewAnthropic_UnavailableWithoutCredentials(t *testing.T) {
	t.Setenv("CLAUDE_CODE_OAUTH_TOKEN", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	os.Unsetenv("CLAUDE_CODE_OAUTH_TOKEN")
	os.Unsetenv("ANTHROPIC_API_KEY")

	call, err := NewAnthropic("")
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}

	_, callErr := call(context.Background(), "system", "user")
	if !errors.Is(callErr, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", callErr)
	}
}

func TestNewAnthropic_PrefersOAuthTokenOverAPIKey(t *testing.T) {
	t.Setenv("CLAUDE_CODE_OAUTH_TOKEN", "oauth-token")
	t.Setenv("ANTHROPIC_API_KEY", "api-key")

	call, err := NewAnthropic("")
	if err != nil {
		t.Fatalf("NewAnthropic: %v", err)
	}
	if call == nil {
		t.Fatal("expected a non-nil Call when a credential is present")
	}
}

func TestUnavailable_AlwaysReturnsSentinel(t *testing.T) {
	_, err := Unavailable(context.Background(), "s", "u")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
