package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestServerMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"Group not found"}`, "Group not found"},
		{"error field", `{"error":"bad token"}`, "bad token"},
		{"message wins", `{"message":"a","error":"b"}`, "a"},
		{"plain text", "User already exists", "User already exists"},
		{"html page", "<html><body>502</body></html>", ""},
		{"empty", "", ""},
		{"broken json", `{"message":`, ""},
		{"too long", strings.Repeat("x", maxTextMessage+1), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serverMessage([]byte(tt.body)); got != tt.want {
				t.Errorf("serverMessage(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestErrorHelpers(t *testing.T) {
	err := fmt.Errorf("load groups: %w", newError(http.MethodGet, "/my-groups", http.StatusBadGateway, nil))

	if !IsStatus(err, http.StatusBadGateway) {
		t.Errorf("IsStatus should see through wrapping")
	}
	if IsStatus(errors.New("boom"), http.StatusBadGateway) {
		t.Errorf("IsStatus on a plain error should be false")
	}
	if msg := Message(err); msg != "" {
		t.Errorf("Message() = %q, want empty", msg)
	}
	if want := "GET /my-groups: 502 Bad Gateway"; !strings.Contains(err.Error(), want) {
		t.Errorf("Error() = %q, want it to contain %q", err.Error(), want)
	}
}
