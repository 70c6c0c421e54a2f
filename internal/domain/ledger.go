/**
 * @description
 * This file defines the core domain models for the ledger-service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Amounts are stored as `int64` in the smallest currency unit, which avoids
 *   floating-point inaccuracies with financial data.
 * - A transaction carries only the magnitude of the movement; its direction is
 *   carried by `Kind`.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionKind is the direction of a ledger entry: "c" credits the account,
// "d" debits it.
type TransactionKind string

const (
	KindCredit TransactionKind = "c"
	KindDebit  TransactionKind = "d"
)

// Valid reports whether the kind is one of the two accepted values.
func (k TransactionKind) Valid() bool {
	return k == KindCredit || k == KindDebit
}

// Delta returns the signed effect of a transaction of this kind on a balance.
func (k TransactionKind) Delta(amount int64) int64 {
	if k == KindDebit {
		return -amount
	}
	return amount
}

// Account represents a provisioned customer account. Accounts are static:
// this service never creates or deletes them, it only mutates Balance
// through the transaction-application path.
type Account struct {
	ID      int64 `json:"id"`
	Limit   int64 `json:"limit"`   // maximum magnitude the balance may go negative
	Balance int64 `json:"balance"` // derived: sum of credits minus sum of debits
}

// Transaction is an immutable ledger entry recording one credit or debit
// applied to an account. Entries are append-only and queried newest-first.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	AccountID   int64           `json:"account_id"`
	Amount      int64           `json:"amount"`
	Kind        TransactionKind `json:"kind"`
	Description string          `json:"description"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// PostTransactionRequest is the DTO for incoming transaction API requests.
type PostTransactionRequest struct {
	Amount      int64  `json:"amount"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

// BalanceUpdate is the result of a successfully applied transaction: the
// post-transaction balance together with the account's limit.
type BalanceUpdate struct {
	Limit   int64 `json:"limit"`
	Balance int64 `json:"balance"`
}

// AccountSnapshot is a point-in-time-consistent view of an account: the
// balance and the recent entries reflect the same committed state.
type AccountSnapshot struct {
	Balance      int64
	Limit        int64
	Transactions []Transaction // newest first
}

// BalanceSummary is the statement header returned to clients.
type BalanceSummary struct {
	Total              int64     `json:"total"`
	Limit              int64     `json:"limit"`
	StatementTimestamp time.Time `json:"statement_timestamp"`
}

// StatementEntry is one transaction as rendered on a statement.
type StatementEntry struct {
	Amount      int64           `json:"amount"`
	Kind        TransactionKind `json:"kind"`
	Description string          `json:"description"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// StatementResponse is the full statement payload: balance snapshot plus the
// most recent transactions, newest first.
type StatementResponse struct {
	Balance            BalanceSummary   `json:"balance"`
	RecentTransactions []StatementEntry `json:"recent_transactions"`
}
