/**
 * @description
 * This file contains the core business logic for the ledger-service. The
 * `Service` struct orchestrates between the external request shape and the
 * ledger store: it validates incoming transactions once, before any store
 * call, delegates the atomic apply to the repository, and translates store
 * outcomes into the response payloads.
 *
 * @dependencies
 * - context, errors, log, time: Standard Go libraries.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For publishing transaction events.
 */

package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/creditline/ledger-service/internal/domain"
	"github.com/creditline/ledger-service/internal/store"
	"github.com/creditline/ledger-service/pkg/rabbitmq"
)

const (
	// DefaultStatementLimit caps the number of entries on a statement.
	DefaultStatementLimit = 10

	// Description length bounds for a ledger entry.
	minDescriptionLen = 1
	maxDescriptionLen = 10
)

var (
	// ErrInvalidAmount is returned when the amount is not a positive integer.
	ErrInvalidAmount = errors.New("amount must be a positive integer")

	// ErrInvalidKind is returned when the kind is neither "c" nor "d".
	ErrInvalidKind = errors.New(`kind must be "c" or "d"`)

	// ErrInvalidDescription is returned when the description is not 1-10 characters.
	ErrInvalidDescription = errors.New("description must be 1 to 10 characters")
)

// Service provides the core business logic for statements and transactions.
type Service struct {
	repo           store.Repository
	events         rabbitmq.Publisher // nil when event publishing is disabled
	statementLimit int
}

// NewService creates a new ledger service instance. A nil producer disables
// event publishing; statementLimit falls back to DefaultStatementLimit when
// not positive.
func NewService(repo store.Repository, events rabbitmq.Publisher, statementLimit int) *Service {
	if statementLimit <= 0 {
		statementLimit = DefaultStatementLimit
	}
	return &Service{
		repo:           repo,
		events:         events,
		statementLimit: statementLimit,
	}
}

// Statement returns the account's balance snapshot plus its most recent
// transactions, newest first.
func (s *Service) Statement(ctx context.Context, accountID int64) (*domain.StatementResponse, error) {
	snapshot, err := s.repo.GetSnapshot(ctx, accountID, s.statementLimit)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.StatementEntry, 0, len(snapshot.Transactions))
	for _, tx := range snapshot.Transactions {
		entries = append(entries, domain.StatementEntry{
			Amount:      tx.Amount,
			Kind:        tx.Kind,
			Description: tx.Description,
			OccurredAt:  tx.OccurredAt,
		})
	}

	return &domain.StatementResponse{
		Balance: domain.BalanceSummary{
			Total:              snapshot.Balance,
			Limit:              snapshot.Limit,
			StatementTimestamp: time.Now().UTC(),
		},
		RecentTransactions: entries,
	}, nil
}

// PostTransaction validates the request and applies it atomically. Validation
// failures never reach the store; store outcomes pass through unchanged so
// the API layer can map them to status codes with errors.Is.
func (s *Service) PostTransaction(ctx context.Context, accountID int64, req domain.PostTransactionRequest) (*domain.BalanceUpdate, error) {
	kind, err := validatePostTransaction(req)
	if err != nil {
		return nil, err
	}

	update, err := s.repo.ApplyTransaction(ctx, accountID, req.Amount, kind, req.Description)
	if err != nil {
		return nil, err
	}

	s.publishTransactionPosted(ctx, accountID, req, kind, update)

	return update, nil
}

// validatePostTransaction enforces the unified input contract: positive
// integer amount, kind in {c, d}, description 1-10 characters.
func validatePostTransaction(req domain.PostTransactionRequest) (domain.TransactionKind, error) {
	if req.Amount <= 0 {
		return "", ErrInvalidAmount
	}
	kind := domain.TransactionKind(req.Kind)
	if !kind.Valid() {
		return "", ErrInvalidKind
	}
	if len(req.Description) < minDescriptionLen || len(req.Description) > maxDescriptionLen {
		return "", ErrInvalidDescription
	}
	return kind, nil
}

// publishTransactionPosted emits a transaction.posted event after a
// successful apply. Publishing is best effort: a broker failure is logged and
// never fails the request that already committed.
func (s *Service) publishTransactionPosted(ctx context.Context, accountID int64, req domain.PostTransactionRequest, kind domain.TransactionKind, update *domain.BalanceUpdate) {
	if s.events == nil {
		return
	}
	event := rabbitmq.TransactionPostedEvent{
		AccountID:   accountID,
		Amount:      req.Amount,
		Kind:        string(kind),
		Description: req.Description,
		Balance:     update.Balance,
		Limit:       update.Limit,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.events.PublishTransactionPostedEvent(ctx, event); err != nil {
		log.Printf("level=warn component=app msg=\"transaction event publish failed\" account_id=%d err=%v", accountID, err)
	}
}

// StatementLimit reports the configured statement entry cap.
func (s *Service) StatementLimit() int {
	return s.statementLimit
}
