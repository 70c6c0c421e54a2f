/**
 * @description
 * This file defines the `Repository` interface for the ledger store, the only
 * component allowed to mutate balances or append transactions. Both the
 * PostgreSQL and the in-memory implementations satisfy this interface, so the
 * application service stays independent of the persistence technology.
 *
 * @dependencies
 * - context: Standard Go library.
 * - internal/domain: Domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"

	"github.com/creditline/ledger-service/internal/domain"
)

var (
	// ErrAccountNotFound is returned when the referenced account is not provisioned.
	ErrAccountNotFound = errors.New("account not found")

	// ErrLimitExceeded is returned when a debit would push the balance below
	// the account's negative limit. No state is mutated.
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrNonPositiveAmount is returned when the amount is zero or negative.
	// Distinct from ErrLimitExceeded.
	ErrNonPositiveAmount = errors.New("amount must be positive")

	// ErrStorageConflict is reserved for implementations that retry on
	// transient serialization failures and give up. The pessimistic-locking
	// implementations here never return it.
	ErrStorageConflict = errors.New("storage conflict")
)

// Repository is the ledger store contract.
//
// ApplyTransaction must serialize concurrent calls per account: the read of
// the current balance, the limit check, the balance write, and the entry
// append behave as one unit, and the net effect of N concurrent calls on one
// account equals some total order of those calls. Different accounts must not
// contend with one another.
//
// GetSnapshot must return a point-in-time-consistent view: the balance and
// the returned transactions reflect the same committed state, never an
// interleaving of a half-applied update.
type Repository interface {
	// GetSnapshot returns the account's balance, limit, and up to `limit`
	// most recent transactions, newest first.
	GetSnapshot(ctx context.Context, accountID int64, limit int) (*domain.AccountSnapshot, error)

	// ApplyTransaction atomically applies one credit or debit and appends the
	// corresponding ledger entry, returning the post-transaction balance and
	// the account's limit.
	ApplyTransaction(ctx context.Context, accountID int64, amount int64, kind domain.TransactionKind, description string) (*domain.BalanceUpdate, error)
}
