package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tradehits/internal/domain/models"
	"tradehits/internal/domain/repository"
	pkgkafka "tradehits/pkg/kafka"
)

const crossoverTable = "tradehits.crossover_events"

// ClickHouseStorage implements Storage for ClickHouse.
type ClickHouseStorage struct {
	db *sql.DB
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB) repository.Storage {
	return &ClickHouseStorage{db: db}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, snap *models.IndicatorSnapshot) error {
	table, err := tableForTF(repository.Timeframe(snap.Timeframe))
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", table, snapshotColumns)
	_, err = s.db.ExecContext(ctx, q, snapshotArgs(snap)...)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, snaps []*models.IndicatorSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	// Group by timeframe; each timeframe lives in its own table.
	byTF := make(map[repository.Timeframe][]*models.IndicatorSnapshot, 3)
	for _, snap := range snaps {
		if snap == nil || snap.Symbol == "" || snap.Timestamp.IsZero() {
			continue
		}
		tf := repository.Timeframe(snap.Timeframe)
		byTF[tf] = append(byTF[tf], snap)
	}
	for tf, group := range byTF {
		table, err := tableForTF(tf)
		if err != nil {
			return err
		}
		// Multi-row VALUES to reduce round-trips, chunked at 2000 rows.
		const chunkSize = 2000
		for start := 0; start < len(group); start += chunkSize {
			end := start + chunkSize
			if end > len(group) {
				end = len(group)
			}
			values := make([]string, 0, end-start)
			args := make([]interface{}, 0, (end-start)*16)
			for _, snap := range group[start:end] {
				values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
				args = append(args, snapshotArgs(snap)...)
			}
			q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, snapshotColumns, strings.Join(values, ","))
			if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *ClickHouseStorage) StoreCrossover(ctx context.Context, ev *models.CrossoverEvent) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, signal_type, magnitude, confidence) VALUES (?, ?, ?, ?, ?)", crossoverTable)
	_, err := s.db.ExecContext(ctx, q,
		ev.Timestamp,
		ev.Symbol,
		string(ev.SignalType),
		ev.Magnitude,
		ev.Confidence,
	)
	return err
}

func (s *ClickHouseStorage) QueryCrossovers(ctx context.Context, symbol string, limit int) ([]models.CrossoverEvent, error) {
	q := fmt.Sprintf("SELECT ts, symbol, signal_type, magnitude, confidence FROM %s", crossoverTable)
	args := make([]interface{}, 0, 2)
	if symbol != "" {
		q += " WHERE symbol = ?"
		args = append(args, symbol)
	}
	q += " ORDER BY ts DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.CrossoverEvent
	for rows.Next() {
		var ev models.CrossoverEvent
		var st string
		if err := rows.Scan(&ev.Timestamp, &ev.Symbol, &st, &ev.Magnitude, &ev.Confidence); err != nil {
			return nil, err
		}
		ev.SignalType = models.SignalType(st)
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *ClickHouseStorage) Query(ctx context.Context, symbol string, from, to time.Time, tf repository.Timeframe, limit int) ([]models.IndicatorSnapshot, error) {
	table, err := tableForTF(tf)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT %s FROM %s WHERE symbol = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", snapshotColumns, table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []models.IndicatorSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows, tf)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

func snapshotArgs(snap *models.IndicatorSnapshot) []interface{} {
	return []interface{}{
		snap.Timestamp,
		snap.Symbol,
		snap.Timeframe,
		snap.Close,
		snap.Volume,
		snap.RSI,
		snap.MACD,
		snap.MACDSignal,
		snap.MACDHistogram,
		snap.EMAFast,
		snap.EMASlow,
		snap.GrowthScore,
		snap.PivotLowFlag,
		snap.PivotHighFlag,
		snap.SMA200,
		snap.VWAP,
	}
}

// KafkaPublisher implements Publisher for Kafka.
type KafkaPublisher struct {
	producer       *pkgkafka.Producer
	snapshotTopic  string
	crossoverTopic string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, snapshotTopic, crossoverTopic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, snapshotTopic: snapshotTopic, crossoverTopic: crossoverTopic}
}

func (p *KafkaPublisher) PublishSnapshot(ctx context.Context, snap *models.IndicatorSnapshot) error {
	return p.producer.Publish(ctx, p.snapshotTopic, []byte(snap.Symbol), snapshotPayload(snap))
}

func (p *KafkaPublisher) PublishSnapshotBatch(ctx context.Context, snaps []*models.IndicatorSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(snaps))
	for i, snap := range snaps {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(snap.Symbol),
			Value: snapshotPayload(snap),
		}
	}
	return p.producer.PublishBatch(ctx, p.snapshotTopic, msgs)
}

func (p *KafkaPublisher) PublishCrossover(ctx context.Context, ev *models.CrossoverEvent) error {
	return p.producer.Publish(ctx, p.crossoverTopic, []byte(ev.Symbol), map[string]interface{}{
		"symbol":      ev.Symbol,
		"ts":          ev.Timestamp.Unix(),
		"signal_type": string(ev.SignalType),
		"magnitude":   ev.Magnitude,
		"confidence":  ev.Confidence,
	})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func snapshotPayload(snap *models.IndicatorSnapshot) map[string]interface{} {
	return map[string]interface{}{
		"symbol":       snap.Symbol,
		"timeframe":    snap.Timeframe,
		"ts":           snap.Timestamp.Unix(),
		"close":        snap.Close,
		"volume":       snap.Volume,
		"rsi":          snap.RSI,
		"growth_score": snap.GrowthScore,
	}
}
