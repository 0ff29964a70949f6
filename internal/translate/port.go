// Package translate defines the translation port, the batch codec
// that aligns requests with responses, and the provider clients that
// satisfy the port.
package translate

import (
	"context"
	"errors"
	"fmt"
)

// ErrAlignmentMismatch reports a provider response whose length does
// not match the request. Silent misalignment would write text into
// the wrong slide location with no other symptom, so this is checked
// before any reinjection happens.
var ErrAlignmentMismatch = errors.New("translation response misaligned")

// Style selects the translation register requested from a provider.
type Style string

const (
	StyleFormalTechnical Style = "formal_technical"
	StyleCasual          Style = "casual"
	StyleAcademic        Style = "academic"
)

// ParseStyle validates a style name. The empty string means the
// default formal technical register.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case "", StyleFormalTechnical:
		return StyleFormalTechnical, nil
	case StyleCasual:
		return StyleCasual, nil
	case StyleAcademic:
		return StyleAcademic, nil
	}
	return "", fmt.Errorf("unknown translation style %q", s)
}

// Request is one batched translation call. Texts carries the whole
// document in unit order. Style and Glossary shape how the provider
// translates: Glossary maps source terms to the translation that must
// be used for them, and may be nil.
type Request struct {
	Texts      []string
	TargetLang string
	Style      Style
	Glossary   map[string]string
}

// Port is the one-shot translation operation the pipeline depends on.
// Implementations must return exactly one output string per request
// text, in input order; the batch codec verifies the length part of
// that contract, since it cannot be enforced on a remote provider.
type Port interface {
	Translate(ctx context.Context, req Request) ([]string, error)
	Name() string
}

// ProviderError is a network or provider-side failure (auth, rate
// limit, server error). Rate-limit and server-side statuses are
// retryable; the retry policy itself belongs to the caller.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error (status %d): %s", e.Provider, e.StatusCode, truncate(e.Message, 200))
}

// Retryable reports whether the failure is transient.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
