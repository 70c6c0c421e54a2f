/**
 * @description
 * This file provides the in-memory implementation of the `Repository`
 * interface, used for local development and the test suite. Each account
 * carries its own mutex, so applies on one account serialize while different
 * accounts never contend. The account map itself is fixed at construction
 * time (accounts are pre-provisioned) and is therefore safe for concurrent
 * lookup without a lock.
 *
 * @dependencies
 * - context, sync, time: Standard Go libraries.
 * - github.com/google/uuid: Ledger entry identifiers.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/creditline/ledger-service/internal/domain"
)

// memoryAccount is one account's state. Balance and entries are only touched
// while mu is held, so a snapshot can never observe a half-applied update.
type memoryAccount struct {
	mu      sync.Mutex
	limit   int64
	balance int64
	entries []domain.Transaction // append order == occurrence order
}

// MemoryRepository is an in-memory Repository keyed by account id.
type MemoryRepository struct {
	accounts map[int64]*memoryAccount
}

// NewMemoryRepository seeds a repository with the provisioned accounts.
func NewMemoryRepository(seed []domain.Account) *MemoryRepository {
	accounts := make(map[int64]*memoryAccount, len(seed))
	for _, a := range seed {
		accounts[a.ID] = &memoryAccount{limit: a.Limit, balance: a.Balance}
	}
	return &MemoryRepository{accounts: accounts}
}

// ApplyTransaction applies one credit or debit under the account's mutex.
// The balance write and the entry append happen in the same critical section,
// so both effects become visible together or not at all.
func (r *MemoryRepository) ApplyTransaction(ctx context.Context, accountID int64, amount int64, kind domain.TransactionKind, description string) (*domain.BalanceUpdate, error) {
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}

	account, ok := r.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}

	account.mu.Lock()
	defer account.mu.Unlock()

	candidate := account.balance + kind.Delta(amount)
	if kind == domain.KindDebit && candidate < -account.limit {
		return nil, ErrLimitExceeded
	}

	account.balance = candidate
	account.entries = append(account.entries, domain.Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		OccurredAt:  time.Now().UTC(),
	})

	return &domain.BalanceUpdate{Limit: account.limit, Balance: account.balance}, nil
}

// GetSnapshot copies the balance and the last `limit` entries out under the
// account's mutex, newest first.
func (r *MemoryRepository) GetSnapshot(ctx context.Context, accountID int64, limit int) (*domain.AccountSnapshot, error) {
	account, ok := r.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}

	account.mu.Lock()
	defer account.mu.Unlock()

	n := limit
	if n > len(account.entries) {
		n = len(account.entries)
	}
	if n < 0 {
		n = 0
	}
	recent := make([]domain.Transaction, 0, n)
	for i := len(account.entries) - 1; i >= len(account.entries)-n; i-- {
		recent = append(recent, account.entries[i])
	}

	return &domain.AccountSnapshot{
		Balance:      account.balance,
		Limit:        account.limit,
		Transactions: recent,
	}, nil
}

var _ Repository = (*MemoryRepository)(nil)
