// Package validator checks submitted video links before they reach the
// summarization service.
package validator

import (
	"regexp"
	"strings"
)

// Reason says why a submission was rejected.
type Reason string

const (
	ReasonRequired      Reason = "required"
	ReasonInvalidFormat Reason = "invalid format"
)

// The id is exactly 11 characters; anything after it must start with a
// character that cannot extend the id.
var youtubeURLPattern = regexp.MustCompile(
	`^(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/)[a-zA-Z0-9_-]{11}([^a-zA-Z0-9_\s-]\S*)?$`,
)

// ValidationError is a form-level rejection. It is never persisted.
type ValidationError struct {
	Reason Reason
}

func (e *ValidationError) Error() string {
	return "video url " + string(e.Reason)
}

// Message is the text shown next to the form field.
func (e *ValidationError) Message() string {
	switch e.Reason {
	case ReasonRequired:
		return "YouTube URL is required"
	case ReasonInvalidFormat:
		return "Please enter a valid YouTube URL"
	default:
		return "Please enter a valid YouTube URL"
	}
}

// Validate accepts raw only if it looks like a YouTube watch or youtu.be link
// and returns it unchanged.
func Validate(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", &ValidationError{Reason: ReasonRequired}
	}
	if !youtubeURLPattern.MatchString(raw) {
		return "", &ValidationError{Reason: ReasonInvalidFormat}
	}
	return raw, nil
}
