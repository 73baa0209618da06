package errors

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FormatForUser returns a user-friendly error message.
// If debug is true, includes the details map and the underlying cause.
func FormatForUser(err error, debug bool) string {
	if err == nil {
		return ""
	}

	se, ok := As(err)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder

	sb.WriteString("Error: ")
	sb.WriteString(se.Message)
	sb.WriteString("\n")

	if se.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(se.Suggestion)
		sb.WriteString("\n")
	}

	if debug {
		for _, k := range sortedKeys(se.Details) {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, se.Details[k]))
		}
		if se.Cause != nil {
			sb.WriteString(fmt.Sprintf("  cause: %v\n", se.Cause))
		}
	}

	sb.WriteString(fmt.Sprintf("\n[%s]", se.Code))

	return sb.String()
}

// FormatForCLI formats an error for CLI output.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	se, ok := As(err)
	if !ok {
		se = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Error: %s\n", se.Message))
	for _, k := range sortedKeys(se.Details) {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", k, se.Details[k]))
	}
	if se.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", se.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", se.Code))

	return sb.String()
}

// JSONError is the wire representation of an error.
type JSONError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// ToJSONError converts any error into its wire representation.
func ToJSONError(err error) JSONError {
	se, ok := As(err)
	if !ok {
		se = Wrap(ErrCodeInternal, err)
	}
	je := JSONError{
		Code:       se.Code,
		Message:    se.Message,
		Category:   string(se.Category),
		Details:    se.Details,
		Suggestion: se.Suggestion,
		Retryable:  se.Retryable,
	}
	if se.Cause != nil {
		je.Cause = se.Cause.Error()
	}
	return je
}

// ToJSON returns the JSON encoding of err.
func ToJSON(err error) string {
	if err == nil {
		return "{}"
	}
	data, mErr := json.Marshal(ToJSONError(err))
	if mErr != nil {
		return fmt.Sprintf(`{"code":%q,"message":%q}`, ErrCodeInternal, err.Error())
	}
	return string(data)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
