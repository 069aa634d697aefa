// Package payments verifies externally collected payments before credits
// are granted. Verifiers only confirm; money never moves through here.
package payments

import "context"

// Verification is the boundary result consumed by the credit service.
// Amount is in the provider's smallest unit (kobo, satoshi).
type Verification struct {
	Success       bool
	Amount        int64
	Currency      string
	Confirmations int
	Reference     string
}

type Verifier interface {
	Verify(ctx context.Context, reference string) (*Verification, error)
}
