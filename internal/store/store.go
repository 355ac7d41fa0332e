// Package store is the persistence boundary for the question bank.
package store

import (
	"fmt"

	"drivebank/internal/bank"
)

// Store loads and saves a full question bank. Additional backends are added
// as new implementations without touching the pipeline.
type Store interface {
	// Load reconstructs the bank from durable storage. Missing storage
	// yields an empty bank; existing but unreadable storage yields a
	// *CorruptError.
	Load() (*bank.Bank, error)
	// Save atomically replaces the stored content with the full bank.
	// On failure the prior content stays intact.
	Save(b *bank.Bank) error
}

// CorruptError reports stored data that exists but cannot be parsed into
// valid question records. It is never swallowed: starting from scratch over
// unreadable data would mask data loss.
type CorruptError struct {
	Path string
	Err  error
}

// Error returns a readable message naming the storage location.
func (err *CorruptError) Error() string {
	return fmt.Sprintf("corrupt question store %s: %v", err.Path, err.Err)
}

// Unwrap exposes the underlying parse failure.
func (err *CorruptError) Unwrap() error {
	return err.Err
}
