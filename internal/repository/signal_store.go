package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FinScan/internal/domain/models"
	domrepo "FinScan/internal/domain/repository"
	pkgch "FinScan/pkg/clickhouse"
	applogger "FinScan/pkg/logger"
)

// SignalStore persists scored signals and their outcomes in ClickHouse.
type SignalStore struct {
	ch       *pkgch.Client
	db       *sql.DB
	database string
	l        *applogger.Logger
}

var _ domrepo.SignalStore = (*SignalStore)(nil)

func NewSignalStore(ch *pkgch.Client, database string, l *applogger.Logger) *SignalStore {
	return &SignalStore{ch: ch, db: ch.DB(), database: database, l: l}
}

const signalColumns = `id, created_at, symbol, direction, category, score, confluence,
entry, stop, tp1, tp2, tp3, rr1, rr2, rr3, leverage, session, regime,
rsi, adx, atr, macd_hist, stoch_k, volume_ratio, reasons`

// Init creates the signal tables if they are missing. Idempotent.
func (s *SignalStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.signals (
			id String,
			created_at DateTime64(3, 'UTC'),
			symbol LowCardinality(String),
			direction LowCardinality(String),
			category LowCardinality(String),
			score UInt8,
			confluence UInt8,
			entry Float64,
			stop Float64,
			tp1 Float64,
			tp2 Float64,
			tp3 Float64,
			rr1 Float64,
			rr2 Float64,
			rr3 Float64,
			leverage UInt8,
			session LowCardinality(String),
			regime LowCardinality(String),
			rsi Float64,
			adx Float64,
			atr Float64,
			macd_hist Float64,
			stoch_k Float64,
			volume_ratio Float64,
			reasons Array(String)
		) ENGINE = MergeTree ORDER BY (symbol, created_at)`, s.database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.signal_outcomes (
			signal_id String,
			status LowCardinality(String),
			hit_level LowCardinality(String),
			pnl_pct Float64,
			closed_at DateTime64(3, 'UTC')
		) ENGINE = MergeTree ORDER BY closed_at`, s.database),
	}
	if err := s.ch.InitSchema(ctx, stmts); err != nil {
		return fmt.Errorf("signal store: %w", err)
	}
	return nil
}

func (s *SignalStore) Store(ctx context.Context, sig *models.ScoredSignal) error {
	q := fmt.Sprintf(`INSERT INTO %s.signals (%s)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.database, signalColumns)
	_, err := s.db.ExecContext(ctx, q,
		sig.ID,
		sig.CreatedAt,
		sig.Symbol,
		string(sig.Direction),
		sig.Category,
		uint8(sig.Score),
		uint8(sig.Confluence),
		sig.Entry,
		sig.Levels.Stop,
		sig.Levels.TP1,
		sig.Levels.TP2,
		sig.Levels.TP3,
		sig.Levels.RR1,
		sig.Levels.RR2,
		sig.Levels.RR3,
		uint8(sig.Leverage),
		sig.Session,
		string(sig.Regime),
		sig.Indicators.RSI,
		sig.Indicators.ADX,
		sig.Indicators.ATR,
		sig.Indicators.MACDHist,
		sig.Indicators.StochK,
		sig.Indicators.VolumeRatio,
		sig.Reasons,
	)
	if err != nil {
		s.l.Error("clickhouse store signal failed",
			applogger.String("symbol", sig.Symbol),
			applogger.String("signal_id", sig.ID),
			applogger.Error(err))
		return fmt.Errorf("store signal: %w", err)
	}
	return nil
}

// History returns the most recent signals, newest first. An empty symbol
// returns signals across all symbols.
func (s *SignalStore) History(ctx context.Context, symbol string, limit int) ([]models.ScoredSignal, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s.signals`, signalColumns, s.database)
	args := make([]interface{}, 0, 2)
	if symbol != "" {
		q += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("signal history: %w", err)
	}
	defer rows.Close()
	return scanSignals(rows)
}

// OpenSignals returns signals with no recorded outcome yet, oldest first.
// The window is twice maxAge so the outcome tracker still sees entries it
// must expire; anything older than that was missed across long downtime
// and is left alone.
func (s *SignalStore) OpenSignals(ctx context.Context, maxAge time.Duration) ([]models.ScoredSignal, error) {
	cutoff := time.Now().UTC().Add(-2 * maxAge)
	q := fmt.Sprintf(`SELECT %s FROM %s.signals
		WHERE created_at >= ?
		  AND id NOT IN (SELECT signal_id FROM %s.signal_outcomes)
		ORDER BY created_at ASC`, signalColumns, s.database, s.database)

	rows, err := s.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, fmt.Errorf("open signals: %w", err)
	}
	defer rows.Close()
	return scanSignals(rows)
}

func (s *SignalStore) StoreOutcome(ctx context.Context, out *models.SignalOutcome) error {
	q := fmt.Sprintf(`INSERT INTO %s.signal_outcomes (signal_id, status, hit_level, pnl_pct, closed_at)
		VALUES (?, ?, ?, ?, ?)`, s.database)
	_, err := s.db.ExecContext(ctx, q,
		out.SignalID,
		string(out.Status),
		out.HitLevel,
		out.PnlPct,
		out.ClosedAt,
	)
	if err != nil {
		s.l.Error("clickhouse store outcome failed",
			applogger.String("signal_id", out.SignalID),
			applogger.Error(err))
		return fmt.Errorf("store outcome: %w", err)
	}
	return nil
}

// Stats aggregates outcomes over the trailing window.
func (s *SignalStore) Stats(ctx context.Context, days int) (*models.PerformanceStats, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	q := fmt.Sprintf(`SELECT
			count() AS total,
			countIf(o.status = 'WIN') AS wins,
			countIf(o.status = 'LOSS') AS losses,
			countIf(o.status = 'EXPIRED') AS expired,
			countIf(o.status = '') AS open,
			sum(sig.score) AS score_sum,
			sum(o.pnl_pct) AS pnl_sum
		FROM %s.signals AS sig
		LEFT JOIN %s.signal_outcomes AS o ON o.signal_id = sig.id
		WHERE sig.created_at >= ?`, s.database, s.database)

	var (
		total, wins, losses, expired, open uint64
		scoreSum, pnlSum                   float64
	)
	row := s.db.QueryRowContext(ctx, q, cutoff)
	if err := row.Scan(&total, &wins, &losses, &expired, &open, &scoreSum, &pnlSum); err != nil {
		return nil, fmt.Errorf("signal stats: %w", err)
	}

	stats := &models.PerformanceStats{
		Days:    days,
		Total:   int(total),
		Wins:    int(wins),
		Losses:  int(losses),
		Open:    int(open),
		Expired: int(expired),
		SumPnl:  pnlSum,
	}
	if resolved := stats.Wins + stats.Losses; resolved > 0 {
		stats.WinRate = float64(stats.Wins) / float64(resolved) * 100
	}
	if stats.Total > 0 {
		stats.AvgScore = scoreSum / float64(stats.Total)
	}
	return stats, nil
}

func (s *SignalStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

// Close is a no-op; the connection pool belongs to the shared client.
func (s *SignalStore) Close() error { return nil }

func scanSignals(rows *sql.Rows) ([]models.ScoredSignal, error) {
	var out []models.ScoredSignal
	for rows.Next() {
		var (
			sig                         models.ScoredSignal
			direction, category, regime string
			score, confluence, leverage uint8
			reasons                     []string
		)
		if err := rows.Scan(
			&sig.ID,
			&sig.CreatedAt,
			&sig.Symbol,
			&direction,
			&category,
			&score,
			&confluence,
			&sig.Entry,
			&sig.Levels.Stop,
			&sig.Levels.TP1,
			&sig.Levels.TP2,
			&sig.Levels.TP3,
			&sig.Levels.RR1,
			&sig.Levels.RR2,
			&sig.Levels.RR3,
			&leverage,
			&sig.Session,
			&regime,
			&sig.Indicators.RSI,
			&sig.Indicators.ADX,
			&sig.Indicators.ATR,
			&sig.Indicators.MACDHist,
			&sig.Indicators.StochK,
			&sig.Indicators.VolumeRatio,
			&reasons,
		); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Direction = models.Direction(direction)
		sig.Category = category
		sig.Score = int(score)
		sig.Confluence = int(confluence)
		sig.Leverage = int(leverage)
		sig.Regime = models.TrendState(regime)
		sig.Reasons = reasons
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}
