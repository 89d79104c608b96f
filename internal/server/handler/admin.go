package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/outcomefi/marketd/internal/domain"
)

// PlatformService defines the admin-facing platform operations.
type PlatformService interface {
	Get(ctx context.Context) (domain.PlatformParams, error)
	Configure(ctx context.Context, caller string, next domain.PlatformParams) (domain.PlatformParams, error)
	NominateAuthority(ctx context.Context, caller, nominee string) error
	AcceptAuthority(ctx context.Context, caller string) error
	AddWhitelistedCreator(ctx context.Context, caller, wallet string) error
	RemoveWhitelistedCreator(ctx context.Context, caller, wallet string) error
}

// ResolutionService defines the admin-facing resolution operations.
type ResolutionService interface {
	Resolve(ctx context.Context, marketID, authority string, winning domain.Outcome) (domain.Market, error)
	Finalize(ctx context.Context, marketID, authority string) (domain.Market, error)
}

// AuditReader lists audit log entries.
type AuditReader interface {
	List(ctx context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error)
}

// AdminHandler serves the authenticated admin endpoints.
type AdminHandler struct {
	platform    PlatformService
	resolutions ResolutionService
	audit       AuditReader
	logger      *slog.Logger
}

// NewAdminHandler creates an AdminHandler with the given services and logger.
func NewAdminHandler(platform PlatformService, resolutions ResolutionService, audit AuditReader, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		platform:    platform,
		resolutions: resolutions,
		audit:       audit,
		logger:      logger,
	}
}

// GetPlatform returns the current platform parameters.
// GET /api/admin/platform
func (h *AdminHandler) GetPlatform(w http.ResponseWriter, r *http.Request) {
	params, err := h.platform.Get(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: get platform failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to get platform params")
		return
	}
	writeJSON(w, http.StatusOK, params)
}

// configureRequest is the JSON body for platform configuration.
type configureRequest struct {
	Caller string                `json:"caller"`
	Params domain.PlatformParams `json:"params"`
}

// ConfigurePlatform writes the platform parameters. The first successful call
// seeds the record and makes the caller the authority.
// PUT /api/admin/platform
func (h *AdminHandler) ConfigurePlatform(w http.ResponseWriter, r *http.Request) {
	var req configureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "caller is required")
		return
	}

	params, err := h.platform.Configure(r.Context(), req.Caller, req.Params)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: configure platform failed",
			slog.String("caller", req.Caller),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to configure platform")
		return
	}

	writeJSON(w, http.StatusOK, params)
}

// nominateRequest is the JSON body for authority nomination.
type nominateRequest struct {
	Caller  string `json:"caller"`
	Nominee string `json:"nominee"`
}

// NominateAuthority starts the two-phase authority transfer.
// POST /api/admin/platform/nominate
func (h *AdminHandler) NominateAuthority(w http.ResponseWriter, r *http.Request) {
	var req nominateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "caller is required")
		return
	}

	if err := h.platform.NominateAuthority(r.Context(), req.Caller, req.Nominee); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: nominate authority failed",
			slog.String("caller", req.Caller),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to nominate authority")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "nominated",
		"nominee": req.Nominee,
	})
}

// acceptRequest is the JSON body for accepting a nomination.
type acceptRequest struct {
	Caller string `json:"caller"`
}

// AcceptAuthority completes the authority transfer.
// POST /api/admin/platform/accept
func (h *AdminHandler) AcceptAuthority(w http.ResponseWriter, r *http.Request) {
	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "caller is required")
		return
	}

	if err := h.platform.AcceptAuthority(r.Context(), req.Caller); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: accept authority failed",
			slog.String("caller", req.Caller),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to accept authority")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "accepted",
		"authority": req.Caller,
	})
}

// whitelistRequest is the JSON body for whitelist membership changes.
type whitelistRequest struct {
	Caller string `json:"caller"`
	Wallet string `json:"wallet"`
}

// AddWhitelistedCreator grants a wallet market-creation rights.
// POST /api/admin/whitelist
func (h *AdminHandler) AddWhitelistedCreator(w http.ResponseWriter, r *http.Request) {
	var req whitelistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Caller == "" || req.Wallet == "" {
		writeError(w, http.StatusBadRequest, "caller and wallet are required")
		return
	}

	if err := h.platform.AddWhitelistedCreator(r.Context(), req.Caller, req.Wallet); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: whitelist add failed",
			slog.String("wallet", req.Wallet),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to whitelist creator")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "whitelisted",
		"wallet": req.Wallet,
	})
}

// RemoveWhitelistedCreator revokes a wallet's market-creation rights.
// DELETE /api/admin/whitelist/{wallet}
func (h *AdminHandler) RemoveWhitelistedCreator(w http.ResponseWriter, r *http.Request) {
	wallet := pathParam(r, "wallet")
	if wallet == "" {
		writeError(w, http.StatusBadRequest, "missing wallet")
		return
	}

	var req acceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Caller == "" {
		writeError(w, http.StatusBadRequest, "caller is required")
		return
	}

	if err := h.platform.RemoveWhitelistedCreator(r.Context(), req.Caller, wallet); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: whitelist remove failed",
			slog.String("wallet", wallet),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to remove creator from whitelist")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "removed",
		"wallet": wallet,
	})
}

// resolveRequest is the JSON body for market resolution.
type resolveRequest struct {
	Authority string `json:"authority"`
	Outcome   string `json:"outcome"`
}

// ResolveMarket publishes the winning outcome for a market.
// POST /api/admin/markets/{id}/resolve
func (h *AdminHandler) ResolveMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	outcome, err := domain.ParseOutcome(req.Outcome)
	if err != nil {
		writeError(w, http.StatusBadRequest, "outcome must be yes or no")
		return
	}

	market, err := h.resolutions.Resolve(r.Context(), id, req.Authority, outcome)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: resolve market failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to resolve market")
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// finalizeRequest is the JSON body for market finalization.
type finalizeRequest struct {
	Authority string `json:"authority"`
}

// FinalizeMarket freezes a resolved market and sweeps the remaining pool.
// POST /api/admin/markets/{id}/finalize
func (h *AdminHandler) FinalizeMarket(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing market id")
		return
	}

	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	market, err := h.resolutions.Finalize(r.Context(), id, req.Authority)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: finalize market failed",
			slog.String("market_id", id),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to finalize market")
		return
	}

	writeJSON(w, http.StatusOK, market)
}

// listAuditResponse wraps the audit list endpoint.
type listAuditResponse struct {
	Entries []domain.AuditEntry `json:"entries"`
}

// ListAudit returns recent audit log entries.
// GET /api/admin/audit?limit=50&offset=0
func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	entries, err := h.audit.List(r.Context(), parseListOpts(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list audit failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}

	writeJSON(w, http.StatusOK, listAuditResponse{Entries: entries})
}
