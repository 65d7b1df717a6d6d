package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"AgriGenie/internal/model"
)

const defaultSnapshotLimit = 50

// SQLiteRecorder persists trend snapshots to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the scheduler writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger.With(zap.String("component", "recorder"))}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.logger.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS trend_snapshots (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			state           TEXT NOT NULL,
			commodity       TEXT NOT NULL,
			market          TEXT,
			district        TEXT,
			query_limit     INTEGER,
			source          TEXT,
			record_count    INTEGER,
			current_price   REAL,
			trend           TEXT,
			percent_change  REAL,
			volatility      REAL,
			band_low        REAL,
			band_high       REAL,
			band_average    REAL,
			historical_json TEXT,
			forecast_json   TEXT,
			factors_json    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_series ON trend_snapshots(state, commodity, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON trend_snapshots(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshot(ctx context.Context, snap *model.TrendSnapshot) error {
	if snap == nil || snap.Result == nil {
		return errors.New("record snapshot: empty snapshot")
	}
	historical, err := json.Marshal(snap.Result.HistoricalPrices)
	if err != nil {
		return fmt.Errorf("marshal historical: %w", err)
	}
	forecast, err := json.Marshal(snap.Result.ForecastPrices)
	if err != nil {
		return fmt.Errorf("marshal forecast: %w", err)
	}
	factors, err := json.Marshal(snap.Result.Factors)
	if err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	res := snap.Result
	_, err = r.db.ExecContext(ctx, `INSERT INTO trend_snapshots
		(id, timestamp, state, commodity, market, district, query_limit, source, record_count,
		 current_price, trend, percent_change, volatility,
		 band_low, band_high, band_average,
		 historical_json, forecast_json, factors_json)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		snap.ID, snap.ComputedAt.UnixMilli(),
		snap.Query.State, snap.Query.Commodity, snap.Query.Market, snap.Query.District, snap.Query.Limit,
		snap.Source, snap.RecordCount,
		res.CurrentPrice, string(res.Trend), res.PercentChange, res.Volatility,
		snap.Band.Low, snap.Band.High, snap.Band.Average,
		string(historical), string(forecast), string(factors),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

const snapshotColumns = `id, timestamp, state, commodity, market, district, query_limit, source, record_count,
	current_price, trend, percent_change, volatility, band_low, band_high, band_average,
	historical_json, forecast_json, factors_json`

func (r *SQLiteRecorder) RecentSnapshots(ctx context.Context, f SnapshotFilter) ([]model.TrendSnapshot, error) {
	var where []string
	var args []any
	if f.State != "" {
		where = append(where, "state = ? COLLATE NOCASE")
		args = append(args, f.State)
	}
	if f.Commodity != "" {
		where = append(where, "commodity = ? COLLATE NOCASE")
		args = append(args, f.Commodity)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultSnapshotLimit
	}

	query := "SELECT " + snapshotColumns + " FROM trend_snapshots"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC, rowid DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []model.TrendSnapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return snaps, nil
}

func (r *SQLiteRecorder) LatestSnapshot(ctx context.Context, state, commodity string) (*model.TrendSnapshot, error) {
	snaps, err := r.RecentSnapshots(ctx, SnapshotFilter{State: state, Commodity: commodity, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, ErrNotFound
	}
	return &snaps[0], nil
}

func scanSnapshot(rows *sql.Rows) (*model.TrendSnapshot, error) {
	var (
		snap                           model.TrendSnapshot
		res                            model.TrendResult
		ts                             int64
		market, district, source       sql.NullString
		trendLabel                     sql.NullString
		historical, forecast, factors  sql.NullString
		queryLimit, recordCount        sql.NullInt64
		price, pct, vol, low, high, av sql.NullFloat64
	)
	if err := rows.Scan(&snap.ID, &ts, &snap.Query.State, &snap.Query.Commodity, &market, &district,
		&queryLimit, &source, &recordCount, &price, &trendLabel, &pct, &vol, &low, &high, &av,
		&historical, &forecast, &factors); err != nil {
		return nil, fmt.Errorf("scan snapshot: %w", err)
	}

	snap.ComputedAt = time.UnixMilli(ts).UTC()
	snap.Query.Market = market.String
	snap.Query.District = district.String
	snap.Query.Limit = int(queryLimit.Int64)
	snap.Source = source.String
	snap.RecordCount = int(recordCount.Int64)
	snap.Band = model.PriceBand{Low: low.Float64, High: high.Float64, Average: av.Float64}

	res.CurrentPrice = price.Float64
	res.Trend = model.Direction(trendLabel.String)
	res.PercentChange = pct.Float64
	res.Volatility = vol.Float64
	if err := unmarshalColumn(historical, &res.HistoricalPrices); err != nil {
		return nil, fmt.Errorf("decode historical for %s: %w", snap.ID, err)
	}
	if err := unmarshalColumn(forecast, &res.ForecastPrices); err != nil {
		return nil, fmt.Errorf("decode forecast for %s: %w", snap.ID, err)
	}
	if err := unmarshalColumn(factors, &res.Factors); err != nil {
		return nil, fmt.Errorf("decode factors for %s: %w", snap.ID, err)
	}
	snap.Result = &res
	return &snap, nil
}

func unmarshalColumn(col sql.NullString, v any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), v)
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder")
	return r.db.Close()
}
