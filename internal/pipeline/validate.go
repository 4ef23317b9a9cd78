package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/agenthands/sentinel/internal/model"
)

// Validate checks a post before it enters the pipeline or the queue.
func Validate(post model.RawPost, maxTextLength int) error {
	if strings.TrimSpace(post.Text) == "" {
		return &ValidationError{Field: "text", Reason: "must not be empty"}
	}
	if maxTextLength > 0 && utf8.RuneCountInString(post.Text) > maxTextLength {
		return &ValidationError{Field: "text", Reason: "exceeds maximum length"}
	}
	if !post.Location.ValidCoordinates() {
		return &ValidationError{Field: "location", Reason: "coordinates out of range"}
	}
	return nil
}
