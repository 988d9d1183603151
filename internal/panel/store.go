package panel

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Store is the read-only collaborator interface the rest of the pipeline
// depends on. Implementations must never return an error for missing data —
// an empty slice is the correct response — and must skip malformed rows
// rather than aborting the whole query.
type Store interface {
	PriceHistory(ctx context.Context, security string) ([]PriceObservation, error)
	BenchmarkHistory(ctx context.Context) ([]BenchmarkObservation, error)
	Industry(ctx context.Context, security string) (string, error)
	TradingDays(ctx context.Context, after time.Time) ([]time.Time, error)
	Securities(ctx context.Context) ([]string, error)
}

// conn is the minimal surface of *store.DB this package needs, so tests can
// exercise SQLStore against any *sql.DB (including an in-memory sqlite).
type conn interface {
	Conn() *sql.DB
}

// SQLStore is the sqlite-backed implementation of Store.
type SQLStore struct {
	db  *sql.DB
	log zerolog.Logger

	malformedRows int64 // counter, not surfaced as an error (§7 data-absent/malformed)
}

// NewSQLStore builds a Store backed by the given connection.
func NewSQLStore(c conn, log zerolog.Logger) *SQLStore {
	return &SQLStore{db: c.Conn(), log: log.With().Str("component", "panel_store").Logger()}
}

const dateLayout = "2006-01-02"

// PriceHistory returns a security's full price history sorted ascending by
// date. Securities absent from the panel resolve to an empty slice, never an
// error.
func (s *SQLStore) PriceHistory(ctx context.Context, security string) ([]PriceObservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_date, close, pct_change, turnover_rate, total_market_value, price_to_book, trailing_pe
		FROM price_observations
		WHERE security = ?
		ORDER BY trade_date ASC
	`, security)
	if err != nil {
		return nil, fmt.Errorf("query price history for %s: %w", security, err)
	}
	defer rows.Close()

	var out []PriceObservation
	for rows.Next() {
		var dateStr string
		var close, pctChange, turnover, mv, ptb, pe sql.NullFloat64

		if err := rows.Scan(&dateStr, &close, &pctChange, &turnover, &mv, &ptb, &pe); err != nil {
			s.malformedRows++
			s.log.Warn().Err(err).Str("security", security).Msg("skipping malformed price row")
			continue
		}

		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			s.malformedRows++
			s.log.Warn().Str("security", security).Str("date", dateStr).Msg("skipping row with unparseable date")
			continue
		}

		out = append(out, PriceObservation{
			Date:             date,
			Close:            nullable(close),
			PctChange:        nullable(pctChange),
			TurnoverRate:     nullable(turnover),
			TotalMarketValue: nullable(mv),
			PriceToBook:      nullable(ptb),
			TrailingPE:       nullable(pe),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price history for %s: %w", security, err)
	}
	return out, nil
}

// BenchmarkHistory returns the single market-wide benchmark series, sorted
// ascending by date. An empty result (no benchmark loaded) is a valid
// response: callers must fall back to a constant beta of 1.0.
func (s *SQLStore) BenchmarkHistory(ctx context.Context) ([]BenchmarkObservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_date, close FROM benchmark_history ORDER BY trade_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query benchmark history: %w", err)
	}
	defer rows.Close()

	var out []BenchmarkObservation
	for rows.Next() {
		var dateStr string
		var close sql.NullFloat64
		if err := rows.Scan(&dateStr, &close); err != nil {
			s.malformedRows++
			s.log.Warn().Err(err).Msg("skipping malformed benchmark row")
			continue
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			s.malformedRows++
			continue
		}
		out = append(out, BenchmarkObservation{Date: date, Close: nullable(close)})
	}
	return out, rows.Err()
}

// Industry resolves a security to one of the 30 canonical industry tags.
// Securities absent from the mapping resolve to "comprehensive" — never an
// error.
func (s *SQLStore) Industry(ctx context.Context, security string) (string, error) {
	var industry string
	err := s.db.QueryRowContext(ctx, `SELECT industry FROM industry_map WHERE security = ?`, security).Scan(&industry)
	if err == sql.ErrNoRows {
		return ComprehensiveFallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("query industry for %s: %w", security, err)
	}
	return industry, nil
}

// TradingDays returns the calendar's open trading sessions strictly after
// the given cursor, sorted ascending.
func (s *SQLStore) TradingDays(ctx context.Context, after time.Time) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_date FROM trading_calendar
		WHERE is_open = 1 AND trade_date > ?
		ORDER BY trade_date ASC
	`, after.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("query trading calendar: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var dateStr string
		if err := rows.Scan(&dateStr); err != nil {
			s.malformedRows++
			continue
		}
		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			s.malformedRows++
			continue
		}
		out = append(out, date)
	}
	return out, rows.Err()
}

// Securities lists every security code with at least one price observation.
// This supplements the spec's four named queries: the full-build
// orchestrator (C7) needs to enumerate securities with a price history
// (§4.7 step 1), which otherwise has no defined entry point.
func (s *SQLStore) Securities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT security FROM price_observations ORDER BY security ASC`)
	if err != nil {
		return nil, fmt.Errorf("query security list: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var security string
		if err := rows.Scan(&security); err != nil {
			continue
		}
		out = append(out, security)
	}
	return out, rows.Err()
}

// MalformedRowCount reports how many rows were skipped due to malformed
// data since the store was created. The orchestrator and the validator do
// not read it, so a non-zero count raises no validation issue.
func (s *SQLStore) MalformedRowCount() int64 {
	return s.malformedRows
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	val := v.Float64
	return &val
}
