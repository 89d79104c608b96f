package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/outcomefi/marketd/internal/domain"
)

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a service error onto an HTTP status and body. Domain
// sentinels become 4xx responses with the sentinel text; anything unmapped is
// a 500 with a generic message so internals do not leak.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrLockHeld):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrIncorrectAuthority):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotWhitelisted):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrNotInitialized):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidOutcome),
		errors.Is(err, domain.ErrInvalidParameter),
		errors.Is(err, domain.ErrInvalidStartSlot),
		errors.Is(err, domain.ErrInvalidEndSlot),
		errors.Is(err, domain.ErrWithdrawAmount):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrMarketCompleted),
		errors.Is(err, domain.ErrMarketNotResolved),
		errors.Is(err, domain.ErrTradingNotStarted),
		errors.Is(err, domain.ErrTradingEnded),
		errors.Is(err, domain.ErrNotLP):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientTokens),
		errors.Is(err, domain.ErrInsufficientSol),
		errors.Is(err, domain.ErrReturnAmountTooSmall):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		writeError(w, status, fallback)
		return
	}
	writeError(w, status, unwrapped(err).Error())
}

// unwrapped walks to the innermost error so responses carry the sentinel
// text without the service-layer wrapping chain.
func unwrapped(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// parseListOpts extracts standard pagination parameters from the query string.
// Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}
