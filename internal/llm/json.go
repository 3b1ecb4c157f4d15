package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMalformedResponse = errors.New("malformed model response")

// DecodeError carries the cleaned payload that failed to decode.
type DecodeError struct {
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMalformedResponse, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrMalformedResponse, e.Err}
}

// StripCodeFence returns the body of the first ``` fenced block in s, or s
// trimmed when there is no fence. A language tag on the opening fence is
// dropped.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	start := strings.Index(s, "```")
	if start == -1 {
		return s
	}
	body := s[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		tag := strings.TrimSpace(body[:nl])
		if tag == "" || isFenceTag(tag) {
			body = body[nl+1:]
		}
	} else {
		body = strings.TrimPrefix(body, "json")
	}
	if end := strings.Index(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func isFenceTag(tag string) bool {
	for _, r := range tag {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// DecodeJSON strips code fences from a model reply and unmarshals it into out.
func DecodeJSON(reply string, out any) error {
	payload := StripCodeFence(reply)
	if payload == "" {
		return &DecodeError{Payload: payload, Err: errors.New("empty payload")}
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return &DecodeError{Payload: payload, Err: err}
	}
	return nil
}
