package logging

import (
	"testing"
)

func TestRedactCollapsesDataURIs(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "photo attachment",
			input:    "sending data:image/png;base64,iVBORw0KGgoAAAANSUhEUg== now",
			expected: "sending data:image/png;base64,… now",
		},
		{
			name:     "voice attachment",
			input:    "data:audio/webm;base64,R0lGODdhAQABAIAAAP8AAAAAACw=",
			expected: "data:audio/webm;base64,…",
		},
		{
			name:     "no payload",
			input:    "poll tick for chat 12",
			expected: "poll tick for chat 12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Redact(tt.input)
			if result != tt.expected {
				t.Errorf("Redact() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestRedactMap(t *testing.T) {
	m := map[string]interface{}{
		"username": "mira",
		"password": "hunter2",
		"nested": map[string]interface{}{
			"session_token": "abc",
			"chat_id":       int64(7),
		},
	}

	result := RedactMap(m)

	if result["username"] != "mira" {
		t.Errorf("username should pass through: %v", result["username"])
	}
	if result["password"] != RedactedValue {
		t.Errorf("password should be redacted: %v", result["password"])
	}
	nested := result["nested"].(map[string]interface{})
	if nested["session_token"] != RedactedValue {
		t.Errorf("session_token should be redacted: %v", nested["session_token"])
	}
	if nested["chat_id"] != int64(7) {
		t.Errorf("chat_id should pass through: %v", nested["chat_id"])
	}
}

func TestIsSensitiveField(t *testing.T) {
	if !IsSensitiveField("Password") {
		t.Error("Password should be sensitive")
	}
	if !IsSensitiveField("session_token") {
		t.Error("session_token should be sensitive")
	}
	if IsSensitiveField("nickname") {
		t.Error("nickname should not be sensitive")
	}
}
