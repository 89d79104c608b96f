package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/outcomefi/marketd/internal/domain"
)

// PlatformService manages the singleton platform parameter record: fee
// rates, the token template applied to new markets, and the two-phase
// authority transfer.
type PlatformService struct {
	platform domain.PlatformStore
	audit    domain.AuditStore
	logger   *slog.Logger
}

// NewPlatformService creates a PlatformService with all required dependencies.
func NewPlatformService(platform domain.PlatformStore, audit domain.AuditStore, logger *slog.Logger) *PlatformService {
	return &PlatformService{platform: platform, audit: audit, logger: logger}
}

// Get returns the current platform parameters.
func (s *PlatformService) Get(ctx context.Context) (domain.PlatformParams, error) {
	params, err := s.platform.Get(ctx)
	if err != nil {
		return domain.PlatformParams{}, fmt.Errorf("platform_service: get params: %w", err)
	}
	return params, nil
}

// Configure writes the platform parameters. The first call seeds the record
// and establishes the authority; afterwards only the current authority may
// change settings, and authority transfer goes through Nominate/Accept
// rather than this path.
func (s *PlatformService) Configure(ctx context.Context, caller string, next domain.PlatformParams) (domain.PlatformParams, error) {
	current, err := s.platform.Get(ctx)
	switch {
	case errors.Is(err, domain.ErrNotInitialized):
		// First boot: the caller becomes the authority.
		next.Authority = caller
		next.PendingAuthority = ""
	case err != nil:
		return domain.PlatformParams{}, fmt.Errorf("platform_service: get params: %w", err)
	default:
		if caller != current.Authority {
			return domain.PlatformParams{}, fmt.Errorf("platform_service: %w", domain.ErrIncorrectAuthority)
		}
		// Authority fields are immutable here, and whitelist membership only
		// changes through the whitelist operations.
		next.Authority = current.Authority
		next.PendingAuthority = current.PendingAuthority
		next.CreatorWhitelist = current.CreatorWhitelist
	}

	if err := next.Validate(); err != nil {
		return domain.PlatformParams{}, fmt.Errorf("platform_service: validate params: %w", err)
	}

	next.Initialized = true
	next.UpdatedAt = time.Now().UTC()
	if err := s.platform.Save(ctx, next); err != nil {
		return domain.PlatformParams{}, fmt.Errorf("platform_service: save params: %w", err)
	}

	s.auditLog(ctx, "platform_configured", map[string]any{
		"authority":             next.Authority,
		"team_wallet":           next.TeamWallet,
		"platform_buy_fee_bps":  next.PlatformBuyFeeBps,
		"platform_sell_fee_bps": next.PlatformSellFeeBps,
		"lp_buy_fee_bps":        next.LpBuyFeeBps,
		"lp_sell_fee_bps":       next.LpSellFeeBps,
	})
	s.logger.InfoContext(ctx, "platform_service: parameters configured",
		slog.String("authority", next.Authority),
	)
	return next, nil
}

// NominateAuthority starts the two-phase authority transfer. The nomination
// has no effect until the nominee accepts; the current authority can
// overwrite or clear it at any time before that.
func (s *PlatformService) NominateAuthority(ctx context.Context, caller, nominee string) error {
	params, err := s.platform.Get(ctx)
	if err != nil {
		return fmt.Errorf("platform_service: get params: %w", err)
	}
	if caller != params.Authority {
		return fmt.Errorf("platform_service: %w", domain.ErrIncorrectAuthority)
	}

	params.PendingAuthority = nominee
	params.UpdatedAt = time.Now().UTC()
	if err := s.platform.Save(ctx, params); err != nil {
		return fmt.Errorf("platform_service: save params: %w", err)
	}

	s.auditLog(ctx, "authority_nominated", map[string]any{
		"authority": params.Authority,
		"nominee":   nominee,
	})
	s.logger.InfoContext(ctx, "platform_service: authority nominated",
		slog.String("nominee", nominee),
	)
	return nil
}

// AcceptAuthority completes the transfer: the pending nominee becomes the
// authority and the nomination is cleared.
func (s *PlatformService) AcceptAuthority(ctx context.Context, caller string) error {
	params, err := s.platform.Get(ctx)
	if err != nil {
		return fmt.Errorf("platform_service: get params: %w", err)
	}
	if params.PendingAuthority == "" || caller != params.PendingAuthority {
		return fmt.Errorf("platform_service: %w", domain.ErrIncorrectAuthority)
	}

	previous := params.Authority
	params.Authority = caller
	params.PendingAuthority = ""
	params.UpdatedAt = time.Now().UTC()
	if err := s.platform.Save(ctx, params); err != nil {
		return fmt.Errorf("platform_service: save params: %w", err)
	}

	s.auditLog(ctx, "authority_accepted", map[string]any{
		"previous":  previous,
		"authority": caller,
	})
	s.logger.InfoContext(ctx, "platform_service: authority transferred",
		slog.String("previous", previous),
		slog.String("authority", caller),
	)
	return nil
}

// AddWhitelistedCreator grants a wallet market-creation rights. Adding a
// wallet already on the list is a no-op.
func (s *PlatformService) AddWhitelistedCreator(ctx context.Context, caller, wallet string) error {
	params, err := s.platform.Get(ctx)
	if err != nil {
		return fmt.Errorf("platform_service: get params: %w", err)
	}
	if caller != params.Authority {
		return fmt.Errorf("platform_service: %w", domain.ErrIncorrectAuthority)
	}
	if wallet == "" {
		return fmt.Errorf("platform_service: wallet is required: %w", domain.ErrInvalidParameter)
	}

	for _, w := range params.CreatorWhitelist {
		if w == wallet {
			return nil
		}
	}
	params.CreatorWhitelist = append(params.CreatorWhitelist, wallet)
	params.UpdatedAt = time.Now().UTC()
	if err := s.platform.Save(ctx, params); err != nil {
		return fmt.Errorf("platform_service: save params: %w", err)
	}

	s.auditLog(ctx, "whitelist_added", map[string]any{"wallet": wallet})
	s.logger.InfoContext(ctx, "platform_service: creator whitelisted",
		slog.String("wallet", wallet),
	)
	return nil
}

// RemoveWhitelistedCreator revokes a wallet's market-creation rights.
func (s *PlatformService) RemoveWhitelistedCreator(ctx context.Context, caller, wallet string) error {
	params, err := s.platform.Get(ctx)
	if err != nil {
		return fmt.Errorf("platform_service: get params: %w", err)
	}
	if caller != params.Authority {
		return fmt.Errorf("platform_service: %w", domain.ErrIncorrectAuthority)
	}

	kept := make([]string, 0, len(params.CreatorWhitelist))
	found := false
	for _, w := range params.CreatorWhitelist {
		if w == wallet {
			found = true
			continue
		}
		kept = append(kept, w)
	}
	if !found {
		return fmt.Errorf("platform_service: wallet not whitelisted: %w", domain.ErrNotFound)
	}
	params.CreatorWhitelist = kept
	params.UpdatedAt = time.Now().UTC()
	if err := s.platform.Save(ctx, params); err != nil {
		return fmt.Errorf("platform_service: save params: %w", err)
	}

	s.auditLog(ctx, "whitelist_removed", map[string]any{"wallet": wallet})
	s.logger.InfoContext(ctx, "platform_service: creator removed from whitelist",
		slog.String("wallet", wallet),
	)
	return nil
}

func (s *PlatformService) auditLog(ctx context.Context, event string, detail map[string]any) {
	if err := s.audit.Log(ctx, event, detail); err != nil {
		s.logger.WarnContext(ctx, "platform_service: audit log failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
