/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. The balance/limit invariant is enforced inside a database
 * transaction that takes a row lock on the account, so concurrent
 * transactions on the same account serialize at the database while different
 * accounts proceed in parallel.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: Ledger entry identifiers.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creditline/ledger-service/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ApplyTransaction applies one credit or debit to an account and records the
// ledger entry as a single atomic unit.
//
// The account row is locked with FOR UPDATE for the duration of the database
// transaction, so the read balance cannot go stale between the limit check
// and the write. Credits have no upper bound; debits fail with
// ErrLimitExceeded when the candidate balance would fall below -limit, in
// which case nothing is mutated.
func (r *PostgresRepository) ApplyTransaction(ctx context.Context, accountID int64, amount int64, kind domain.TransactionKind, description string) (*domain.BalanceUpdate, error) {
	if amount <= 0 {
		return nil, ErrNonPositiveAmount
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var balance, creditLimit int64
	// FOR UPDATE locks the account row, serializing concurrent applies per account.
	err = tx.QueryRow(ctx, "SELECT balance, credit_limit FROM accounts WHERE id = $1 FOR UPDATE", accountID).Scan(&balance, &creditLimit)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	candidate := balance + kind.Delta(amount)
	if kind == domain.KindDebit && candidate < -creditLimit {
		return nil, ErrLimitExceeded
	}

	if _, err := tx.Exec(ctx, "UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2", candidate, accountID); err != nil {
		return nil, err
	}

	entry := domain.Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Amount:      amount,
		Kind:        kind,
		Description: description,
		OccurredAt:  time.Now().UTC(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO transactions (id, account_id, amount, kind, description, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.AccountID, entry.Amount, string(entry.Kind), entry.Description, entry.OccurredAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &domain.BalanceUpdate{Limit: creditLimit, Balance: candidate}, nil
}

// GetSnapshot returns the account's balance, limit, and up to `limit` most
// recent transactions, newest first.
//
// Both reads run inside one repeatable-read transaction so the balance and
// the entry list reflect the same committed state, even while applies commit
// concurrently.
func (r *PostgresRepository) GetSnapshot(ctx context.Context, accountID int64, limit int) (*domain.AccountSnapshot, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var snapshot domain.AccountSnapshot
	err = tx.QueryRow(ctx, "SELECT balance, credit_limit FROM accounts WHERE id = $1", accountID).Scan(&snapshot.Balance, &snapshot.Limit)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	rows, err := tx.Query(ctx,
		`SELECT id, account_id, amount, kind, description, occurred_at
		 FROM transactions
		 WHERE account_id = $1
		 ORDER BY occurred_at DESC
		 LIMIT $2`,
		accountID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.Transaction
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Amount, &entry.Kind, &entry.Description, &entry.OccurredAt); err != nil {
			return nil, err
		}
		snapshot.Transactions = append(snapshot.Transactions, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

var _ Repository = (*PostgresRepository)(nil)
