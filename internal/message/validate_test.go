package message

import (
	"encoding/json"
	"testing"
)

func TestValidateConnectionRequest(t *testing.T) {
	tests := []struct {
		name          string
		fromCode      string
		targetCode    string
		requesterCode string
		expected      error
	}{
		{"valid", "AAA", "BBB", "AAA", nil},
		{"unregistered requester", "AAA", "BBB", "", ErrNotRegistered},
		{"forged from code", "AAA", "BBB", "CCC", ErrNotRegistered},
		{"self connect", "AAA", "AAA", "AAA", ErrSelfConnect},
	}

	for _, test := range tests {
		if err := ValidateConnectionRequest(test.fromCode, test.targetCode, test.requesterCode); err != test.expected {
			t.Errorf("%s: expected %v, got %v", test.name, test.expected, err)
		}
	}
}

func TestValidateConnectionResponse(t *testing.T) {
	if err := ValidateConnectionResponse("BBB", "BBB"); err != nil {
		t.Errorf("Expect matching responder to pass, got %v", err)
	}
	if err := ValidateConnectionResponse("CCC", "BBB"); err != ErrUnauthorizedAnswer {
		t.Errorf("Expect mismatched responder to fail, got %v", err)
	}
	if err := ValidateConnectionResponse("", "BBB"); err != ErrUnauthorizedAnswer {
		t.Errorf("Expect unregistered responder to fail, got %v", err)
	}
}

func TestValidateSessionDescription(t *testing.T) {
	tests := []struct {
		name     string
		desc     SessionDescription
		expected error
	}{
		{"offer", SessionDescription{Type: "offer", SDP: "v=0"}, nil},
		{"answer", SessionDescription{Type: "answer", SDP: "v=0"}, nil},
		{"unknown role", SessionDescription{Type: "rollback", SDP: "v=0"}, ErrInvalidDescription},
		{"missing role", SessionDescription{SDP: "v=0"}, ErrInvalidDescription},
		{"empty blob", SessionDescription{Type: "offer"}, ErrInvalidDescription},
	}

	for _, test := range tests {
		if err := ValidateSessionDescription(test.desc); err != test.expected {
			t.Errorf("%s: expected %v, got %v", test.name, test.expected, err)
		}
	}
}

func TestHasCandidateBody(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		expected  bool
	}{
		{"object", `{"candidate":"candidate:1"}`, true},
		{"string", `"candidate:1"`, true},
		{"null", `null`, false},
		{"whitespace", `  null  `, false},
		{"empty", ``, false},
	}

	for _, test := range tests {
		if got := HasCandidateBody(json.RawMessage(test.candidate)); got != test.expected {
			t.Errorf("%s: expected %v, got %v", test.name, test.expected, got)
		}
	}
}
