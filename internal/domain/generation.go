package domain

import (
	"context"
	"fmt"
	"strings"
)

// Generator is the hosted text-generation contract.
type Generator interface {
	Generate(ctx context.Context, prompt string) (GenerationResult, error)
}

// GenerationResult carries the generated text and token usage.
type GenerationResult struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// PostingRequest is the structured form input for one job-posting generation.
// JobTitle is required; the remaining fields may be empty.
type PostingRequest struct {
	JobTitle       string
	TargetAudience string
	RequiredSkills string
	WelcomeSkills  string
}

// Validate checks required fields.
func (r PostingRequest) Validate() error {
	if strings.TrimSpace(r.JobTitle) == "" {
		return fmt.Errorf("%w: job_title is required", ErrValidation)
	}
	return nil
}
