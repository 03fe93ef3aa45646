// Package postgres stores run state in a PostgreSQL table via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderPostgres, func(cfg storage.Config, providerCfg any, log *logger.Logger) (storage.Adapter, error) {
		pc, ok := providerCfg.(*Config)
		if !ok {
			return nil, fmt.Errorf("postgres: expected *postgres.Config, got %T", providerCfg)
		}
		return Open(context.Background(), *pc, cfg.KeyPrefix, log)
	})
}

// Adapter implements storage.Adapter on a pgx connection pool.
type Adapter struct {
	db     *pgxpool.Pool
	log    *logger.Logger
	table  string
	prefix string
	owned  bool
}

var _ storage.Adapter = (*Adapter)(nil)

// New wraps an existing pool. The caller keeps ownership of db.
func New(db *pgxpool.Pool, table, prefix string) *Adapter {
	if table == "" {
		table = DefaultTable
	}
	return &Adapter{db: db, log: logger.Nop(), table: table, prefix: prefix}
}

// Open creates a pool from cfg, pings it and optionally creates the schema.
func Open(ctx context.Context, cfg Config, prefix string, log *logger.Logger) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	timeout, _ := time.ParseDuration(cfg.ConnectTimeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	a := &Adapter{db: db, log: log, table: cfg.Table, prefix: prefix, owned: true}
	if cfg.AutoMigrate {
		if err := a.CreateSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	log.Info("PostgreSQL storage ready", map[string]interface{}{
		"table":     cfg.Table,
		"max_conns": poolCfg.MaxConns,
	})
	return a, nil
}

// Set upserts value under namespace/key.
func (a *Adapter) Set(ctx context.Context, namespace, key string, value []byte) error {
	_, err := a.db.Exec(ctx, fmt.Sprintf(
		`INSERT INTO %s (prefix, namespace, key, value, updated_at) VALUES ($1, $2, $3, $4, NOW())
		 ON CONFLICT (prefix, namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`, a.table),
		a.prefix, namespace, key, value,
	)
	if err != nil {
		return fmt.Errorf("postgres: set %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Get returns the value under namespace/key or storage.ErrNotFound.
func (a *Adapter) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var value []byte
	err := a.db.QueryRow(ctx, fmt.Sprintf(
		`SELECT value FROM %s WHERE prefix = $1 AND namespace = $2 AND key = $3`, a.table),
		a.prefix, namespace, key,
	).Scan(&value)
	if err != nil {
		if isNoRows(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("postgres: get %s/%s: %w", namespace, key, err)
	}
	return value, nil
}

// Delete removes namespace/key.
func (a *Adapter) Delete(ctx context.Context, namespace, key string) error {
	_, err := a.db.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE prefix = $1 AND namespace = $2 AND key = $3`, a.table),
		a.prefix, namespace, key,
	)
	if err != nil {
		return fmt.Errorf("postgres: delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Clear removes every row written under the adapter's prefix.
func (a *Adapter) Clear(ctx context.Context) error {
	ct, err := a.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE prefix = $1`, a.table), a.prefix)
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	a.log.Debug("cleared state", map[string]interface{}{"rows": ct.RowsAffected()})
	return nil
}

// ClearNamespace removes every row of one namespace.
func (a *Adapter) ClearNamespace(ctx context.Context, namespace string) error {
	_, err := a.db.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE prefix = $1 AND namespace = $2`, a.table),
		a.prefix, namespace,
	)
	if err != nil {
		return fmt.Errorf("postgres: clear namespace %s: %w", namespace, err)
	}
	return nil
}

// Keys lists the keys of one namespace in ascending order.
func (a *Adapter) Keys(ctx context.Context, namespace string) ([]string, error) {
	rows, err := a.db.Query(ctx, fmt.Sprintf(
		`SELECT key FROM %s WHERE prefix = $1 AND namespace = $2 ORDER BY key COLLATE "C"`, a.table),
		a.prefix, namespace,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: keys %s: %w", namespace, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: scan keys: %w", err)
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// Ping checks the pool connection.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.Ping(ctx)
}

// Close releases the pool when the adapter created it.
func (a *Adapter) Close() error {
	if a.owned {
		a.db.Close()
	}
	return nil
}

// isNoRows checks if the error is a "no rows" error from pgx.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
