// Package journal persists placements and positions in DuckDB so the
// runtime can reconcile its position book after a restart.
package journal

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/execution"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/logger"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/types"
	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/errors"
)

// OrderRecord is one journaled placement outcome.
type OrderRecord struct {
	PlanID    string             `json:"plan_id"`
	OrderID   string             `json:"order_id"`
	Symbol    string             `json:"symbol"`
	Side      types.PurchaseType `json:"side"`
	Entry     float64            `json:"entry"`
	Stop      float64            `json:"stop"`
	Quantity  float64            `json:"quantity"`
	FilledQty float64            `json:"filled_qty"`
	AvgPrice  float64            `json:"avg_price"`
	StopSet   bool               `json:"stop_set"`
	Status    types.OrderStatus  `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
}

// Journal is the DuckDB-backed trade journal.
type Journal struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewJournal opens the database at config.Path and creates the schema.
func NewJournal(config Config, log *logger.Logger) (*Journal, error) {
	path := config.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalInitFailed, "failed to open journal database", err)
	}

	journal := &Journal{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := journal.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return journal, nil
}

// initialize creates the sequence and tables.
func (j *Journal) initialize() error {
	_, err := j.db.Exec(`CREATE SEQUENCE IF NOT EXISTS journal_row_seq`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalInitFailed, "failed to create sequence", err)
	}

	_, err = j.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			row_id BIGINT DEFAULT nextval('journal_row_seq') PRIMARY KEY,
			plan_id TEXT,
			order_id TEXT,
			symbol TEXT,
			side TEXT,
			entry DOUBLE,
			stop DOUBLE,
			quantity DOUBLE,
			filled_qty DOUBLE,
			avg_price DOUBLE,
			stop_set BOOLEAN,
			status TEXT,
			created_at TIMESTAMP
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalInitFailed, "failed to create orders table", err)
	}

	_, err = j.db.Exec(`
		CREATE TABLE IF NOT EXISTS positions (
			row_id BIGINT DEFAULT nextval('journal_row_seq') PRIMARY KEY,
			symbol TEXT,
			side TEXT,
			entry DOUBLE,
			stop DOUBLE,
			quantity DOUBLE,
			sl_active BOOLEAN,
			opened_at TIMESTAMP,
			closed_at TIMESTAMP,
			pnl DOUBLE,
			is_open BOOLEAN
		)
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalInitFailed, "failed to create positions table", err)
	}

	return nil
}

// RecordOrder journals one placement outcome.
func (j *Journal) RecordOrder(at time.Time, plan execution.OrderPlan, result execution.PlaceOrderResult, status types.OrderStatus) error {
	insert := j.sq.
		Insert("orders").
		Columns(
			"plan_id", "order_id", "symbol", "side", "entry", "stop", "quantity",
			"filled_qty", "avg_price", "stop_set", "status", "created_at",
		).
		Values(
			plan.ID, result.OrderID, plan.Symbol, plan.Side, plan.Entry, plan.Stop, plan.Quantity,
			result.FilledQty, result.AvgPrice, result.StopSet, status, at,
		).
		RunWith(j.db)

	if _, err := insert.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to insert order", err)
	}

	return nil
}

// Orders returns the journaled placements for a symbol, oldest first.
func (j *Journal) Orders(symbol string) ([]OrderRecord, error) {
	query := j.sq.
		Select(
			"plan_id", "order_id", "symbol", "side", "entry", "stop", "quantity",
			"filled_qty", "avg_price", "stop_set", "status", "created_at",
		).
		From("orders").
		Where(squirrel.Eq{"symbol": symbol}).
		OrderBy("row_id ASC").
		RunWith(j.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to query orders", err)
	}
	defer rows.Close()

	var records []OrderRecord

	for rows.Next() {
		var record OrderRecord

		err := rows.Scan(
			&record.PlanID,
			&record.OrderID,
			&record.Symbol,
			&record.Side,
			&record.Entry,
			&record.Stop,
			&record.Quantity,
			&record.FilledQty,
			&record.AvgPrice,
			&record.StopSet,
			&record.Status,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to scan order", err)
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "error iterating orders", err)
	}

	return records, nil
}

// OpenPosition journals a newly opened position.
func (j *Journal) OpenPosition(position types.Position) error {
	insert := j.sq.
		Insert("positions").
		Columns("symbol", "side", "entry", "stop", "quantity", "sl_active", "opened_at", "closed_at", "pnl", "is_open").
		Values(position.Symbol, position.Side, position.Entry, position.Stop, position.Quantity,
			position.SLActive, position.OpenedAt, nil, 0.0, true).
		RunWith(j.db)

	if _, err := insert.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to insert position", err)
	}

	return nil
}

// ClosePosition marks the open position for symbol closed at exitPrice
// and returns the realized PnL.
func (j *Journal) ClosePosition(symbol string, exitPrice float64, closedAt time.Time) (float64, error) {
	tx, err := j.db.Begin()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to begin transaction", err)
	}

	var (
		side     string
		entry    float64
		quantity float64
	)

	err = j.sq.
		Select("side", "entry", "quantity").
		From("positions").
		Where(squirrel.Eq{"symbol": symbol, "is_open": true}).
		RunWith(tx).
		QueryRow().
		Scan(&side, &entry, &quantity)

	if err == sql.ErrNoRows {
		tx.Rollback()
		return 0, errors.Newf(errors.ErrCodePositionNotFound, "no open journal position for %s", symbol)
	}

	if err != nil {
		tx.Rollback()
		return 0, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to query position", err)
	}

	// Decimal arithmetic keeps reported PnL free of float drift.
	diff := decimal.NewFromFloat(exitPrice).Sub(decimal.NewFromFloat(entry))
	if side == string(types.PositionTypeShort) {
		diff = decimal.NewFromFloat(entry).Sub(decimal.NewFromFloat(exitPrice))
	}

	pnl, _ := diff.Mul(decimal.NewFromFloat(quantity)).Float64()

	update := j.sq.
		Update("positions").
		Set("is_open", false).
		Set("closed_at", closedAt).
		Set("pnl", pnl).
		Where(squirrel.Eq{"symbol": symbol, "is_open": true}).
		RunWith(tx)

	if _, err := update.Exec(); err != nil {
		tx.Rollback()
		return 0, errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to close position", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to commit close", err)
	}

	j.logger.Info("position journaled closed",
		zap.String("symbol", symbol),
		zap.Float64("exit", exitPrice),
		zap.Float64("pnl", pnl))

	return pnl, nil
}

// UpdateStop records a stop adjustment on the open position for symbol.
func (j *Journal) UpdateStop(symbol string, stop float64) error {
	update := j.sq.
		Update("positions").
		Set("stop", stop).
		Where(squirrel.Eq{"symbol": symbol, "is_open": true}).
		RunWith(j.db)

	if _, err := update.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to update stop", err)
	}

	return nil
}

// MarkUnprotected flags the open position for symbol as running without
// a working stop.
func (j *Journal) MarkUnprotected(symbol string) error {
	update := j.sq.
		Update("positions").
		Set("sl_active", false).
		Where(squirrel.Eq{"symbol": symbol, "is_open": true}).
		RunWith(j.db)

	if _, err := update.Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to mark position unprotected", err)
	}

	return nil
}

// OpenPositions returns all open positions, oldest first. The runtime
// reconciles from this at startup.
func (j *Journal) OpenPositions() ([]types.Position, error) {
	query := j.sq.
		Select("symbol", "side", "entry", "stop", "quantity", "sl_active", "opened_at").
		From("positions").
		Where(squirrel.Eq{"is_open": true}).
		OrderBy("row_id ASC").
		RunWith(j.db)

	rows, err := query.Query()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to query open positions", err)
	}
	defer rows.Close()

	var positions []types.Position

	for rows.Next() {
		var position types.Position

		err := rows.Scan(
			&position.Symbol,
			&position.Side,
			&position.Entry,
			&position.Stop,
			&position.Quantity,
			&position.SLActive,
			&position.OpenedAt,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "failed to scan position", err)
		}

		positions = append(positions, position)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeJournalQueryFailed, "error iterating positions", err)
	}

	return positions, nil
}

// Cleanup drops and recreates the schema.
func (j *Journal) Cleanup() error {
	_, err := j.db.Exec(`
		DROP TABLE IF EXISTS orders;
		DROP TABLE IF EXISTS positions;
		DROP SEQUENCE IF EXISTS journal_row_seq;
	`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeJournalWriteFailed, "failed to drop tables", err)
	}

	return j.initialize()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
