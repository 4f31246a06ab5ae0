package database

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ironvault/ironvault/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the query surface shared by *pgxpool.Pool and pgx.Tx.
// Repository methods that must participate in an enclosing transaction take a
// Querier so callers decide the transaction boundary.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ActorContext carries the authenticated actor's identity and role into the
// store as transaction-local session settings, feeding the row-level
// security policies.
type ActorContext struct {
	ActorID string
	Role    string
}

func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return models.ErrConflict
		case "23503": // foreign_key_violation
			return models.ErrBadRequest
		case "23502": // not_null_violation
			return models.ErrBadRequest
		case "23514": // check_violation (balance >= 0, amount > 0)
			return models.ErrInsufficientFunds
		}
	}

	return err
}

// WithTransaction runs fn inside a transaction. The error result is named so
// the deferred commit can overwrite it: a commit-time failure must reach the
// caller, never be reported as success.
func (db *DB) WithTransaction(ctx context.Context, fn func(Querier) error) (err error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(tx)
	return err
}

// WithActorTransaction runs fn inside a transaction with the actor's identity
// and role applied as transaction-local settings (app.actor_id, app.actor_role)
// so the store's row-level policies can filter independently of application
// checks. A failure to apply the settings degrades to a no-op: the request
// proceeds without store-side filtering.
func (db *DB) WithActorTransaction(ctx context.Context, actor ActorContext, fn func(Querier) error) error {
	return db.WithTransaction(ctx, func(q Querier) error {
		if actor.ActorID != "" {
			_, err := q.Exec(ctx,
				`SELECT set_config('app.actor_id', $1, true), set_config('app.actor_role', $2, true)`,
				actor.ActorID, actor.Role,
			)
			if err != nil {
				db.logger.Warn("row-level actor context unavailable, continuing unfiltered",
					slog.Any("error", err))
			}
		}
		return fn(q)
	})
}
