package llm

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsAuthRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "typed 401", err: &APIError{StatusCode: 401, Message: "bad key"}, want: true},
		{name: "typed code", err: &APIError{StatusCode: 400, Code: "invalid_api_key"}, want: true},
		{name: "wrapped typed", err: fmt.Errorf("probe: %w", &APIError{StatusCode: 401}), want: true},
		{name: "rate limited", err: &APIError{StatusCode: 429, Code: "rate_limit_exceeded"}, want: false},
		{name: "message text", err: errors.New("Error code: 401 - Invalid API Key"), want: true},
		{name: "message code", err: errors.New("INVALID_API_KEY"), want: true},
		{name: "network", err: errors.New("connection reset by peer"), want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAuthRejected(tt.err); got != tt.want {
				t.Fatalf("IsAuthRejected(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestKeySuffix(t *testing.T) {
	if got := KeySuffix("gsk_abcdef1234"); got != "1234" {
		t.Fatalf("KeySuffix = %q", got)
	}
	if got := KeySuffix("abc"); got != "abc" {
		t.Fatalf("KeySuffix short = %q", got)
	}
}
