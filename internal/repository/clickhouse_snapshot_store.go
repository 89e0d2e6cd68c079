package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tradehits/internal/domain/models"
	domrepo "tradehits/internal/domain/repository"
	pkgch "tradehits/pkg/clickhouse"
	applogger "tradehits/pkg/logger"
)

// CHSnapshotStore implements SnapshotStore backed by ClickHouse.
type CHSnapshotStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSnapshotStore(ch *pkgch.Client) *CHSnapshotStore {
	return &CHSnapshotStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSnapshotStore) SetLogger(l *applogger.Logger) { s.l = l }

const snapshotColumns = "ts, symbol, tf, close, vol, rsi, macd, macd_signal, macd_hist, ema_fast, ema_slow, growth_score, pivot_low, pivot_high, sma_200, vwap"

func (s *CHSnapshotStore) GetSnapshots(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.IndicatorSnapshot, error) {
	start := time.Now()
	table, err := tableForTF(tf)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE symbol = ? AND ts >= ? AND ts <= ?
        ORDER BY ts ASC
    `, snapshotColumns, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_snapshots query error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]models.IndicatorSnapshot, 0, 1024)
	for rows.Next() {
		snap, err := scanSnapshot(rows, tf)
		if err != nil {
			if s.l != nil {
				s.l.Error("clickhouse get_snapshots scan error",
					applogger.String("table", table),
					applogger.String("symbol", symbol),
					applogger.String("tf", string(tf)),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse get_snapshots rows error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse get_snapshots ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHSnapshotStore) GetLatestN(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.IndicatorSnapshot, error) {
	start := time.Now()
	table, err := tableForTF(tf)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`
        SELECT %s
        FROM %s
        WHERE symbol = ?
        ORDER BY ts DESC
        LIMIT ?
    `, snapshotColumns, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_snapshots query error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("get latest snapshots: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.IndicatorSnapshot, 0, n)
	for rows.Next() {
		snap, err := scanSnapshot(rows, tf)
		if err != nil {
			if s.l != nil {
				s.l.Error("clickhouse latest_snapshots scan error",
					applogger.String("table", table),
					applogger.String("symbol", symbol),
					applogger.String("tf", string(tf)),
					applogger.Int("limit", n),
					applogger.Error(err),
				)
			}
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		tmp = append(tmp, snap)
	}
	if err := rows.Err(); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse latest_snapshots rows error",
				applogger.String("table", table),
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Int("limit", n),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Info("clickhouse latest_snapshots ok",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("limit", n),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

func scanSnapshot(rows *sql.Rows, tf domrepo.Timeframe) (models.IndicatorSnapshot, error) {
	var snap models.IndicatorSnapshot
	var storedTF string
	err := rows.Scan(
		&snap.Timestamp, &snap.Symbol, &storedTF,
		&snap.Close, &snap.Volume,
		&snap.RSI, &snap.MACD, &snap.MACDSignal, &snap.MACDHistogram,
		&snap.EMAFast, &snap.EMASlow,
		&snap.GrowthScore, &snap.PivotLowFlag, &snap.PivotHighFlag,
		&snap.SMA200, &snap.VWAP,
	)
	if err != nil {
		return snap, err
	}
	snap.Timeframe = string(tf)
	if storedTF != "" {
		snap.Timeframe = storedTF
	}
	return snap, nil
}

func tableForTF(tf domrepo.Timeframe) (string, error) {
	switch tf {
	case domrepo.TFDaily:
		return "tradehits.ind_snapshots_1d", nil
	case domrepo.TFHourly:
		return "tradehits.ind_snapshots_1h", nil
	case domrepo.TFFiveMin:
		return "tradehits.ind_snapshots_5m", nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}
