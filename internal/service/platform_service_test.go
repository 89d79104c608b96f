package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outcomefi/marketd/internal/domain"
)

func newPlatformService(store *fakePlatformStore) (*PlatformService, *fakeAuditStore) {
	audit := &fakeAuditStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewPlatformService(store, audit, logger), audit
}

func TestConfigure_FirstBootSeedsAuthority(t *testing.T) {
	svc, audit := newPlatformService(&fakePlatformStore{})

	next := testParams()
	next.Authority = "" // first boot ignores whatever is passed here
	got, err := svc.Configure(context.Background(), "admin", next)
	require.NoError(t, err)

	assert.Equal(t, "admin", got.Authority)
	assert.True(t, got.Initialized)
	assert.Contains(t, audit.events(), "platform_configured")

	stored, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin", stored.Authority)
}

func TestConfigure_OnlyAuthorityAfterBoot(t *testing.T) {
	params := testParams()
	svc, _ := newPlatformService(&fakePlatformStore{params: &params})

	next := testParams()
	next.PlatformBuyFeeBps = 200
	_, err := svc.Configure(context.Background(), "mallory", next)
	assert.ErrorIs(t, err, domain.ErrIncorrectAuthority)

	got, err := svc.Configure(context.Background(), "admin", next)
	require.NoError(t, err)
	assert.Equal(t, uint64(200), got.PlatformBuyFeeBps)
}

func TestConfigure_CannotHijackAuthority(t *testing.T) {
	params := testParams()
	svc, _ := newPlatformService(&fakePlatformStore{params: &params})

	next := testParams()
	next.Authority = "mallory"
	got, err := svc.Configure(context.Background(), "admin", next)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Authority)
}

func TestConfigure_RejectsBadSettings(t *testing.T) {
	params := testParams()
	svc, _ := newPlatformService(&fakePlatformStore{params: &params})

	next := testParams()
	next.TeamWallet = ""
	_, err := svc.Configure(context.Background(), "admin", next)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)

	next = testParams()
	next.PlatformBuyFeeBps = 6_000
	next.LpBuyFeeBps = 5_000
	_, err = svc.Configure(context.Background(), "admin", next)
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestGet_Uninitialized(t *testing.T) {
	svc, _ := newPlatformService(&fakePlatformStore{})
	_, err := svc.Get(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestAuthorityTransfer_TwoPhase(t *testing.T) {
	params := testParams()
	svc, audit := newPlatformService(&fakePlatformStore{params: &params})

	err := svc.NominateAuthority(context.Background(), "mallory", "mallory")
	assert.ErrorIs(t, err, domain.ErrIncorrectAuthority)

	require.NoError(t, svc.NominateAuthority(context.Background(), "admin", "carol"))

	// The nomination alone changes nothing.
	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Authority)
	assert.Equal(t, "carol", got.PendingAuthority)

	err = svc.AcceptAuthority(context.Background(), "mallory")
	assert.ErrorIs(t, err, domain.ErrIncorrectAuthority)

	require.NoError(t, svc.AcceptAuthority(context.Background(), "carol"))
	got, err = svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "carol", got.Authority)
	assert.Empty(t, got.PendingAuthority)

	// Accepting twice fails once the nomination is cleared.
	err = svc.AcceptAuthority(context.Background(), "carol")
	assert.ErrorIs(t, err, domain.ErrIncorrectAuthority)

	assert.Contains(t, audit.events(), "authority_nominated")
	assert.Contains(t, audit.events(), "authority_accepted")
}

func TestNominate_CanBeCleared(t *testing.T) {
	params := testParams()
	svc, _ := newPlatformService(&fakePlatformStore{params: &params})

	require.NoError(t, svc.NominateAuthority(context.Background(), "admin", "carol"))
	require.NoError(t, svc.NominateAuthority(context.Background(), "admin", ""))

	err := svc.AcceptAuthority(context.Background(), "carol")
	assert.ErrorIs(t, err, domain.ErrIncorrectAuthority)
}

func TestWhitelist_AddRemove(t *testing.T) {
	params := testParams()
	svc, audit := newPlatformService(&fakePlatformStore{params: &params})

	require.NoError(t, svc.AddWhitelistedCreator(context.Background(), "admin", "alice"))
	// Adding twice is a no-op.
	require.NoError(t, svc.AddWhitelistedCreator(context.Background(), "admin", "alice"))

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, got.CreatorWhitelist)
	assert.Contains(t, audit.events(), "whitelist_added")

	require.NoError(t, svc.RemoveWhitelistedCreator(context.Background(), "admin", "alice"))
	got, err = svc.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.CreatorWhitelist)
	assert.Contains(t, audit.events(), "whitelist_removed")

	err = svc.RemoveWhitelistedCreator(context.Background(), "admin", "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWhitelist_OnlyAuthority(t *testing.T) {
	params := testParams()
	svc, _ := newPlatformService(&fakePlatformStore{params: &params})

	err := svc.AddWhitelistedCreator(context.Background(), "mallory", "mallory")
	assert.ErrorIs(t, err, domain.ErrIncorrectAuthority)

	require.NoError(t, svc.AddWhitelistedCreator(context.Background(), "admin", "alice"))
	err = svc.RemoveWhitelistedCreator(context.Background(), "mallory", "alice")
	assert.ErrorIs(t, err, domain.ErrIncorrectAuthority)
}

func TestConfigure_PreservesWhitelistMembership(t *testing.T) {
	params := testParams()
	svc, _ := newPlatformService(&fakePlatformStore{params: &params})
	require.NoError(t, svc.AddWhitelistedCreator(context.Background(), "admin", "alice"))

	next := testParams()
	next.WhitelistEnabled = true
	next.CreatorWhitelist = []string{"mallory"}
	got, err := svc.Configure(context.Background(), "admin", next)
	require.NoError(t, err)

	assert.True(t, got.WhitelistEnabled)
	assert.Equal(t, []string{"alice"}, got.CreatorWhitelist)
}
