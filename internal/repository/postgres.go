// Package repository содержит журнал результатов торгов в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/lot-auction/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrResultExists возвращается при повторной записи результата по тому же лоту аукциона.
var ErrResultExists = errors.New("lot result already archived")

var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// PostgresRepository хранит журнал результатов в PostgreSQL.
// Журнал только пополняется: состояние аукциона из него не восстанавливается.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// SaveLotResult записывает результат торгов по лоту.
func (r *PostgresRepository) SaveLotResult(ctx context.Context, res model.LotResult) error {
	var (
		amount                           *int64
		bidderID, bidderName, bidderTeam *string
	)
	if res.Outcome == model.OutcomeSold {
		amount = &res.Amount
	}
	if res.Bidder != nil {
		bidderID, bidderName, bidderTeam = &res.Bidder.ID, &res.Bidder.Name, &res.Bidder.Team
	}
	resolvedAt := res.ResolvedAt
	if resolvedAt.IsZero() {
		resolvedAt = time.Now().UTC()
	}

	return withRetry(ctx, retryDelays, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO lot_results
			   (auction_id, lot_id, lot_name, lot_role, lot_country, base_price,
			    outcome, amount, bidder_id, bidder_name, bidder_team, resolved_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			res.AuctionID, res.Lot.ID, res.Lot.Name, res.Lot.Role, res.Lot.Country, res.Lot.BasePrice,
			string(res.Outcome), amount, bidderID, bidderName, bidderTeam, resolvedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
				return fmt.Errorf("%w: %s/%s", ErrResultExists, res.AuctionID, res.Lot.ID)
			}
			return fmt.Errorf("insert lot result: %w", err)
		}
		return nil
	})
}

// ListLotResults возвращает результаты торгов аукциона в порядке фиксации.
func (r *PostgresRepository) ListLotResults(ctx context.Context, auctionID string) ([]model.LotResult, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT lot_id, lot_name, lot_role, lot_country, base_price,
		        outcome, amount, bidder_id, bidder_name, bidder_team, resolved_at
		 FROM lot_results
		 WHERE auction_id = $1
		 ORDER BY resolved_at, id`,
		auctionID,
	)
	if err != nil {
		return nil, fmt.Errorf("select lot results: %w", err)
	}
	defer rows.Close()

	var res []model.LotResult
	for rows.Next() {
		var (
			lot                              model.Lot
			outcome                          string
			amount                           *int64
			bidderID, bidderName, bidderTeam *string
			resolvedAt                       time.Time
		)
		if err := rows.Scan(&lot.ID, &lot.Name, &lot.Role, &lot.Country, &lot.BasePrice,
			&outcome, &amount, &bidderID, &bidderName, &bidderTeam, &resolvedAt); err != nil {
			return nil, fmt.Errorf("scan lot result: %w", err)
		}

		item := model.LotResult{
			AuctionID:  auctionID,
			Lot:        lot,
			Outcome:    model.Outcome(outcome),
			ResolvedAt: resolvedAt,
		}
		if amount != nil {
			item.Amount = *amount
		}
		if bidderID != nil {
			item.Bidder = &model.BidderIdentity{ID: *bidderID, Name: deref(bidderName), Team: deref(bidderTeam)}
		}
		res = append(res, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func withRetry(ctx context.Context, delays []time.Duration, fn func() error) error {
	var err error

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		if !isRetryable(err) || i == len(delays) {
			break
		}

		timer := time.NewTimer(delays[i])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
	}
	return isConnectionError(err)
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}
