package provider

import (
	"context"
)

// Provider delivers one message to a batch of phone numbers. Implementations
// are read-only after construction and safe for concurrent SendBatch calls.
//
// SendBatch returns the normalized numbers that were accepted. Failure
// granularity is provider specific: per-recipient providers skip individual
// failures and return the rest, bulk providers fail the whole batch with an
// error.
type Provider interface {
	Name() string
	Ready() bool
	BatchLimit() int
	SendBatch(ctx context.Context, numbers []string, message string) ([]string, error)
}

// Normalizer is implemented by providers that can tell up front whether a raw
// number is deliverable.
type Normalizer interface {
	NormalizeNumber(raw string) (string, bool)
}
