package logging

import (
	"regexp"
	"strings"
)

// Field names whose values must never reach the log output.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"credential",
	"authorization",
}

// Data URIs (inlined photo/voice attachments) are multi-kilobyte base64 blobs;
// logging them verbatim makes console output unusable.
var dataURIPattern = regexp.MustCompile(`data:[a-z]+/[a-z0-9.+-]+;base64,[A-Za-z0-9+/=]+`)

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Redact scrubs credentials and collapses inlined attachment payloads.
func Redact(s string) string {
	return dataURIPattern.ReplaceAllStringFunc(s, func(uri string) string {
		semi := strings.Index(uri, ";")
		return uri[:semi] + ";base64,…"
	})
}

// IsSensitiveField checks if a field name is considered sensitive.
func IsSensitiveField(name string) bool {
	lowerName := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lowerName, field) {
			return true
		}
	}
	return false
}

// RedactMap redacts sensitive fields in a map before logging it.
func RedactMap(m map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(m))

	for k, v := range m {
		switch {
		case IsSensitiveField(k):
			result[k] = RedactedValue
		default:
			if nested, ok := v.(map[string]interface{}); ok {
				result[k] = RedactMap(nested)
			} else if str, ok := v.(string); ok {
				result[k] = Redact(str)
			} else {
				result[k] = v
			}
		}
	}

	return result
}
