/**
 * @description
 * This file contains the HTTP handlers for the ledger-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application service, and writing the HTTP
 * response. They act as the bridge between the web layer and the business
 * logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/creditline/ledger-service/internal/app"
	"github.com/creditline/ledger-service/internal/domain"
	"github.com/creditline/ledger-service/internal/store"
)

const postRateLimitScope = "post_transaction"

// LedgerHandlers holds the application service that handlers will use.
type LedgerHandlers struct {
	service *app.Service

	// Optional POST throttling; nil disables it.
	rateLimiter        app.RateLimiter
	postLimitPerMinute int
}

// NewLedgerHandlers creates a new instance of LedgerHandlers.
func NewLedgerHandlers(service *app.Service) *LedgerHandlers {
	return &LedgerHandlers{service: service}
}

// SetRateLimiter enables per-account throttling of transaction posts.
func (h *LedgerHandlers) SetRateLimiter(limiter app.RateLimiter, limitPerMinute int) {
	h.rateLimiter = limiter
	h.postLimitPerMinute = limitPerMinute
}

// StatementHandler handles GET /accounts/{accountID}/statement.
func (h *LedgerHandlers) StatementHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.parseAccountID(w, r)
	if !ok {
		return
	}

	statement, err := h.service.Statement(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			h.writeError(w, http.StatusNotFound, "Account not found")
			return
		}
		log.Printf("level=error component=api endpoint=statement account_id=%d err=%v", accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, statement)
}

// PostTransactionHandler handles POST /accounts/{accountID}/transactions.
func (h *LedgerHandlers) PostTransactionHandler(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.parseAccountID(w, r)
	if !ok {
		return
	}

	if !h.allowPost(w, r, accountID) {
		return
	}

	var req domain.PostTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=post_transaction outcome=reject reason=invalid_json account_id=%d err=%v", accountID, err)
		h.writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	update, err := h.service.PostTransaction(r.Context(), accountID, req)
	if err != nil {
		h.writePostTransactionError(w, accountID, err)
		return
	}

	h.writeJSON(w, http.StatusOK, update)
}

// writePostTransactionError maps service and store errors to status codes.
// Validation failures and limit violations are unprocessable; unknown
// accounts are not found; anything else is a server error.
func (h *LedgerHandlers) writePostTransactionError(w http.ResponseWriter, accountID int64, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidAmount),
		errors.Is(err, app.ErrInvalidKind),
		errors.Is(err, app.ErrInvalidDescription),
		errors.Is(err, store.ErrNonPositiveAmount):
		log.Printf("level=warn component=api endpoint=post_transaction outcome=reject reason=validation account_id=%d err=%v", accountID, err)
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, store.ErrLimitExceeded):
		log.Printf("level=info component=api endpoint=post_transaction outcome=reject reason=limit_exceeded account_id=%d", accountID)
		h.writeError(w, http.StatusUnprocessableEntity, "Limit exceeded")
	case errors.Is(err, store.ErrAccountNotFound):
		h.writeError(w, http.StatusNotFound, "Account not found")
	default:
		log.Printf("level=error component=api endpoint=post_transaction account_id=%d err=%v", accountID, err)
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// allowPost consults the optional rate limiter. Limiter outages fail open:
// the post proceeds and the failure is logged.
func (h *LedgerHandlers) allowPost(w http.ResponseWriter, r *http.Request, accountID int64) bool {
	if h.rateLimiter == nil || h.postLimitPerMinute <= 0 {
		return true
	}

	count, retryAfter, err := h.rateLimiter.ConsumeRateLimit(
		r.Context(),
		postRateLimitScope,
		strconv.FormatInt(accountID, 10),
		h.postLimitPerMinute,
		time.Minute,
	)
	if err != nil {
		log.Printf("level=warn component=api endpoint=post_transaction msg=\"rate limiter unavailable; allowing request\" account_id=%d err=%v", accountID, err)
		return true
	}
	if count > h.postLimitPerMinute {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		h.writeError(w, http.StatusTooManyRequests, "Too many transactions; slow down")
		return false
	}
	return true
}

// parseAccountID extracts the {accountID} route parameter. A non-numeric id
// is a malformed request, not an unknown account.
func (h *LedgerHandlers) parseAccountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "accountID")
	accountID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("level=warn component=api outcome=reject reason=invalid_account_id raw=%q", raw)
		h.writeError(w, http.StatusUnprocessableEntity, "Invalid account id")
		return 0, false
	}
	return accountID, true
}

func (h *LedgerHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func (h *LedgerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
