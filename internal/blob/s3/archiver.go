package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/outcomefi/marketd/internal/domain"
)

// archiveBatchSize is the page size used when draining a market's trade
// history from the store.
const archiveBatchSize = 500

// Archiver implements domain.SettlementArchiver: once a market is finalized,
// its full record (final state plus every trade) is serialized to JSONL and
// uploaded to cold storage. The primary store keeps its rows; the archive is
// the long-term copy, not a replacement.
type Archiver struct {
	writer  domain.BlobWriter
	reader  domain.BlobReader
	markets domain.MarketStore
	trades  domain.TradeStore
	audit   domain.AuditStore
	prefix  string
	logger  *slog.Logger
}

var _ domain.SettlementArchiver = (*Archiver)(nil)

// NewArchiver creates an Archiver over the given blob and store layers.
// Objects are keyed under the given prefix ("settlements" when empty).
func NewArchiver(
	writer domain.BlobWriter,
	reader domain.BlobReader,
	markets domain.MarketStore,
	trades domain.TradeStore,
	audit domain.AuditStore,
	prefix string,
	logger *slog.Logger,
) *Archiver {
	if prefix == "" {
		prefix = "settlements"
	}
	return &Archiver{
		writer:  writer,
		reader:  reader,
		markets: markets,
		trades:  trades,
		audit:   audit,
		prefix:  prefix,
		logger:  logger,
	}
}

// ArchiveSettled exports every market finalized since the given time that is
// not yet in the archive. It returns the number of markets uploaded. A
// failure on one market aborts the run so the next pass retries it.
func (a *Archiver) ArchiveSettled(ctx context.Context, since time.Time) (int64, error) {
	markets, err := a.markets.ListCompletedSince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("s3blob: list settled markets: %w", err)
	}

	var archived int64
	for _, market := range markets {
		path := a.settlementPath(market)

		exists, err := a.reader.Exists(ctx, path)
		if err != nil {
			return archived, fmt.Errorf("s3blob: check archive %s: %w", path, err)
		}
		if exists {
			continue
		}

		doc, count, err := a.settlementDoc(ctx, market)
		if err != nil {
			return archived, err
		}
		if err := a.writer.Put(ctx, path, bytes.NewReader(doc), "application/x-ndjson"); err != nil {
			return archived, fmt.Errorf("s3blob: upload archive %s: %w", path, err)
		}
		archived++

		if err := a.audit.Log(ctx, "settlement_archived", map[string]any{
			"market_id": market.ID,
			"path":      path,
			"trades":    count,
		}); err != nil {
			a.logger.WarnContext(ctx, "s3blob: audit log failed",
				slog.String("market_id", market.ID),
				slog.String("error", err.Error()),
			)
		}

		a.logger.InfoContext(ctx, "s3blob: settlement archived",
			slog.String("market_id", market.ID),
			slog.String("path", path),
			slog.Int("trades", count),
		)
	}

	return archived, nil
}

// settlementDoc builds the JSONL document for one settled market: the final
// market record on the first line, then one line per trade in store order.
func (a *Archiver) settlementDoc(ctx context.Context, market domain.Market) ([]byte, int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(market); err != nil {
		return nil, 0, fmt.Errorf("s3blob: encode market %s: %w", market.ID, err)
	}

	count := 0
	for offset := 0; ; offset += archiveBatchSize {
		batch, err := a.trades.ListByMarket(ctx, market.ID, domain.ListOpts{
			Limit:  archiveBatchSize,
			Offset: offset,
		})
		if err != nil {
			return nil, 0, fmt.Errorf("s3blob: list trades for %s: %w", market.ID, err)
		}
		for _, trade := range batch {
			if err := enc.Encode(trade); err != nil {
				return nil, 0, fmt.Errorf("s3blob: encode trade %s: %w", trade.ID, err)
			}
			count++
		}
		if len(batch) < archiveBatchSize {
			break
		}
	}

	return buf.Bytes(), count, nil
}

// settlementPath builds the S3 key for a settled market, partitioned by the
// year-month of its final update:
//
//	settlements/2026-08/MARKET_ID.jsonl
func (a *Archiver) settlementPath(market domain.Market) string {
	return fmt.Sprintf("%s/%s/%s.jsonl", a.prefix, market.UpdatedAt.Format("2006-01"), market.ID)
}
