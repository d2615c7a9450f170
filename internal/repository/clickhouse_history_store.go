package repository

import (
	"context"
	"database/sql"
	"fmt"

	"PairScout/internal/domain/models"
	domrepo "PairScout/internal/domain/repository"
	pkgch "PairScout/pkg/clickhouse"
)

const historyTable = "pairscout.trade_history"

// CHHistoryStore implements HistoryStore on ClickHouse: closed trades are
// append-only rows, aggregates are computed server-side.
type CHHistoryStore struct {
	db *sql.DB
}

func NewCHHistoryStore(ch *pkgch.Client) *CHHistoryStore {
	return &CHHistoryStore{db: ch.DB()}
}

var _ domrepo.HistoryStore = (*CHHistoryStore)(nil)

func (s *CHHistoryStore) Append(ctx context.Context, r *models.HistoryRecord) error {
	q := fmt.Sprintf(`INSERT INTO %s
        (trade_key, pair_key, asset1, asset2, direction, entry_at, exit_at, entry_z, exit_z, pnl_pct, exit_reason, duration_days)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, historyTable)
	_, err := s.db.ExecContext(ctx, q,
		r.TradeKey, r.PairKey, r.Asset1, r.Asset2, r.Direction,
		r.EntryAt, r.ExitAt, r.EntryZ, r.ExitZ, r.PnLPct, r.ExitReason, r.DurationDays,
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *CHHistoryStore) List(ctx context.Context, pairKey string, limit int) ([]*models.HistoryRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	q := fmt.Sprintf(`SELECT trade_key, pair_key, asset1, asset2, direction, entry_at, exit_at, entry_z, exit_z, pnl_pct, exit_reason, duration_days
        FROM %s`, historyTable)
	args := []interface{}{}
	if pairKey != "" {
		q += " WHERE pair_key = ?"
		args = append(args, pairKey)
	}
	q += " ORDER BY exit_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []*models.HistoryRecord
	for rows.Next() {
		var r models.HistoryRecord
		if err := rows.Scan(&r.TradeKey, &r.PairKey, &r.Asset1, &r.Asset2, &r.Direction,
			&r.EntryAt, &r.ExitAt, &r.EntryZ, &r.ExitZ, &r.PnLPct, &r.ExitReason, &r.DurationDays); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *CHHistoryStore) Stats(ctx context.Context) (*models.TradeStats, error) {
	q := fmt.Sprintf(`SELECT
        count() AS total,
        countIf(pnl_pct > 0) AS wins,
        countIf(pnl_pct <= 0) AS losses,
        sum(pnl_pct) AS total_pnl,
        avg(pnl_pct) AS avg_pnl
        FROM %s`, historyTable)

	var st models.TradeStats
	var totalPnL, avgPnL sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, q).Scan(&st.TotalTrades, &st.Wins, &st.Losses, &totalPnL, &avgPnL); err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	st.TotalPnLPct = totalPnL.Float64
	st.AvgPnLPct = avgPnL.Float64
	if st.TotalTrades > 0 {
		st.WinRate = float64(st.Wins) / float64(st.TotalTrades)
	}
	return &st, nil
}
