package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/creditline/ledger-service/internal/app"
	"github.com/creditline/ledger-service/internal/domain"
	"github.com/creditline/ledger-service/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo := store.NewMemoryRepository([]domain.Account{
		{ID: 1, Limit: 1000},
	})
	handlers := NewLedgerHandlers(app.NewService(repo, nil, app.DefaultStatementLimit))
	server := httptest.NewServer(AccountRoutes(handlers))
	t.Cleanup(server.Close)
	return server
}

func postTransaction(t *testing.T, server *httptest.Server, path string, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(server.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getStatement(t *testing.T, server *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPostTransactionHandler_Success(t *testing.T) {
	server := newTestServer(t)

	resp := postTransaction(t, server, "/1/transactions", `{"amount":500,"kind":"d","description":"rent"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var update domain.BalanceUpdate
	if err := json.NewDecoder(resp.Body).Decode(&update); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if update.Balance != -500 || update.Limit != 1000 {
		t.Fatalf("unexpected body: %+v", update)
	}
}

func TestPostTransactionHandler_LimitExceeded(t *testing.T) {
	server := newTestServer(t)

	if resp := postTransaction(t, server, "/1/transactions", `{"amount":500,"kind":"d","description":"rent"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("setup debit failed with %d", resp.StatusCode)
	}

	resp := postTransaction(t, server, "/1/transactions", `{"amount":600,"kind":"d","description":"toomuch"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}

	// Rejection must not move the balance.
	stmt := getStatement(t, server, "/1/statement")
	var statement domain.StatementResponse
	if err := json.NewDecoder(stmt.Body).Decode(&statement); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if statement.Balance.Total != -500 {
		t.Fatalf("expected balance -500 after rejection, got %d", statement.Balance.Total)
	}
	if len(statement.RecentTransactions) != 1 {
		t.Fatalf("expected 1 entry after rejection, got %d", len(statement.RecentTransactions))
	}
}

func TestPostTransactionHandler_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "zero amount", body: `{"amount":0,"kind":"c","description":"x"}`},
		{name: "fractional amount", body: `{"amount":1.2,"kind":"d","description":"x"}`},
		{name: "bad kind", body: `{"amount":10,"kind":"x","description":"x"}`},
		{name: "empty description", body: `{"amount":10,"kind":"c","description":""}`},
		{name: "long description", body: `{"amount":10,"kind":"c","description":"elevenchars"}`},
		{name: "malformed json", body: `{"amount":`},
		{name: "string amount", body: `{"amount":"10","kind":"c","description":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)

			resp := postTransaction(t, server, "/1/transactions", tt.body)
			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", resp.StatusCode)
			}

			// No mutation may have happened.
			stmt := getStatement(t, server, "/1/statement")
			var statement domain.StatementResponse
			if err := json.NewDecoder(stmt.Body).Decode(&statement); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if statement.Balance.Total != 0 || len(statement.RecentTransactions) != 0 {
				t.Fatalf("invalid request mutated state: %+v", statement)
			}
		})
	}
}

func TestPostTransactionHandler_UnknownAccount(t *testing.T) {
	server := newTestServer(t)

	resp := postTransaction(t, server, "/999/transactions", `{"amount":10,"kind":"c","description":"x"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPostTransactionHandler_MalformedAccountID(t *testing.T) {
	server := newTestServer(t)

	resp := postTransaction(t, server, "/abc/transactions", `{"amount":10,"kind":"c","description":"x"}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestStatementHandler_Success(t *testing.T) {
	server := newTestServer(t)

	if resp := postTransaction(t, server, "/1/transactions", `{"amount":300,"kind":"c","description":"pay"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("setup credit failed with %d", resp.StatusCode)
	}

	resp := getStatement(t, server, "/1/statement")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var statement domain.StatementResponse
	if err := json.NewDecoder(resp.Body).Decode(&statement); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if statement.Balance.Total != 300 || statement.Balance.Limit != 1000 {
		t.Fatalf("unexpected balance summary: %+v", statement.Balance)
	}
	if statement.Balance.StatementTimestamp.IsZero() {
		t.Fatal("statement timestamp not set")
	}
	if len(statement.RecentTransactions) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(statement.RecentTransactions))
	}
	entry := statement.RecentTransactions[0]
	if entry.Amount != 300 || entry.Kind != domain.KindCredit || entry.Description != "pay" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestStatementHandler_UnknownAccount(t *testing.T) {
	server := newTestServer(t)

	resp := getStatement(t, server, "/999/statement")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	resp := getStatement(t, server, "/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

// stubRateLimiter drives the throttling paths without Redis.
type stubRateLimiter struct {
	count int
	err   error
}

func (s *stubRateLimiter) ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (int, int, error) {
	if s.err != nil {
		return 0, 0, s.err
	}
	s.count++
	return s.count, 1, nil
}

func TestPostTransactionHandler_RateLimited(t *testing.T) {
	repo := store.NewMemoryRepository([]domain.Account{{ID: 1, Limit: 1000}})
	handlers := NewLedgerHandlers(app.NewService(repo, nil, app.DefaultStatementLimit))
	handlers.SetRateLimiter(&stubRateLimiter{}, 2)
	server := httptest.NewServer(AccountRoutes(handlers))
	t.Cleanup(server.Close)

	body := `{"amount":10,"kind":"c","description":"x"}`
	for i := 0; i < 2; i++ {
		if resp := postTransaction(t, server, "/1/transactions", body); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.StatusCode)
		}
	}

	resp := postTransaction(t, server, "/1/transactions", body)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on throttled response")
	}
}

func TestPostTransactionHandler_RateLimiterOutageFailsOpen(t *testing.T) {
	repo := store.NewMemoryRepository([]domain.Account{{ID: 1, Limit: 1000}})
	handlers := NewLedgerHandlers(app.NewService(repo, nil, app.DefaultStatementLimit))
	handlers.SetRateLimiter(&stubRateLimiter{err: errors.New("redis down")}, 1)
	server := httptest.NewServer(AccountRoutes(handlers))
	t.Cleanup(server.Close)

	resp := postTransaction(t, server, "/1/transactions", `{"amount":10,"kind":"c","description":"x"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("limiter outage must fail open, got %d", resp.StatusCode)
	}
}
