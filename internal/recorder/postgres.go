package recorder

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"CandleKeeper/internal/model"
)

// PostgresRecorder persists candlesticks to PostgreSQL. Each AddRows call
// takes its own pooled connection, so calls for different symbols may run
// concurrently.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects to databaseURL and runs migrations.
func NewPostgresRecorder(ctx context.Context, databaseURL string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &PostgresRecorder{pool: pool}
	if err := r.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] postgres recorder opened: %s/%s", pool.Config().ConnConfig.Host, pool.Config().ConnConfig.Database)
	return r, nil
}

func (r *PostgresRecorder) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS candlesticks (
			timestamp BIGINT           NOT NULL,
			open      DOUBLE PRECISION NOT NULL,
			close     DOUBLE PRECISION NOT NULL,
			low       DOUBLE PRECISION NOT NULL,
			high      DOUBLE PRECISION NOT NULL,
			volume    BIGINT           NOT NULL,
			symbol    TEXT             NOT NULL,
			CONSTRAINT candlesticks_symbol_timestamp_key UNIQUE (symbol, timestamp)
		)`,
		// Returning NULL after a successful update skips the insert, which
		// then reports INSERT 0 0.
		`CREATE OR REPLACE FUNCTION candlesticks_upsert() RETURNS trigger AS $$
		BEGIN
			UPDATE candlesticks
			SET open = NEW.open, close = NEW.close, low = NEW.low, high = NEW.high, volume = NEW.volume
			WHERE symbol = NEW.symbol AND timestamp = NEW.timestamp;
			IF FOUND THEN
				RETURN NULL;
			END IF;
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS candlesticks_upsert ON candlesticks`,
		`CREATE TRIGGER candlesticks_upsert
		BEFORE INSERT ON candlesticks
		FOR EACH ROW EXECUTE FUNCTION candlesticks_upsert()`,
	}

	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *PostgresRecorder) AddRows(ctx context.Context, symbol string, candles []model.Candlestick) error {
	if err := checkBatch(symbol, candles); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, err)
	}
	// Once started, a batch runs to commit or rollback.
	ctx = context.WithoutCancel(ctx)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("%w: begin: %w", model.ErrPersistence, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Printf("[WARN] %s: rollback: %v", symbol, err)
		}
	}()

	batch := &pgx.Batch{}
	for _, c := range candles {
		batch.Queue("INSERT INTO candlesticks ("+insertColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7)",
			insertArgs(symbol, c)...)
	}

	br := tx.SendBatch(ctx, batch)
	counts := make([]int64, 0, len(candles))
	var firstErr error
	for range candles {
		tag, err := br.Exec()
		if err != nil {
			counts = append(counts, RowCountFailed)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		counts = append(counts, tag.RowsAffected())
	}
	if err := br.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	if err := classifyBatch(counts, len(candles)); err != nil {
		if firstErr != nil {
			err = fmt.Errorf("%w: first error: %v", err, firstErr)
		}
		log.Printf("[ERROR] %s: rolling back batch of %d: %v", symbol, len(candles), err)
		return err
	}
	if firstErr != nil {
		return fmt.Errorf("%w: %w", model.ErrPersistence, firstErr)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", model.ErrPersistence, err)
	}
	return nil
}

func (r *PostgresRecorder) AddRow(ctx context.Context, symbol string, c model.Candlestick) error {
	return r.AddRows(ctx, symbol, []model.Candlestick{c})
}

func (r *PostgresRecorder) GetAllRowsByName(ctx context.Context, symbol string) ([]model.Candlestick, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT timestamp, open, close, low, high, volume FROM candlesticks
		WHERE symbol = $1 ORDER BY timestamp ASC`, symbol)
	if err != nil {
		return nil, fmt.Errorf("query candlesticks: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Candlestick, error) {
		var c model.Candlestick
		err := row.Scan(&c.Timestamp, &c.Open, &c.Close, &c.Low, &c.High, &c.Volume)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan candlesticks: %w", err)
	}
	return out, nil
}

func (r *PostgresRecorder) ResetTable(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, "TRUNCATE TABLE candlesticks"); err != nil {
		return fmt.Errorf("%w: reset table: %w", model.ErrPersistence, err)
	}
	log.Println("[WARN] candlesticks table reset")
	return nil
}

func (r *PostgresRecorder) Close() error {
	log.Println("[INFO] closing postgres recorder")
	r.pool.Close()
	return nil
}
