package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-vault-local/internal/logger"
)

const kvTable = "vault_kv"

// sqliteKeyValue is the SQLite-backed implementation of [KeyValue]. All
// statements are built with squirrel; SQLite uses '?' placeholders, which is
// squirrel's default format.
type sqliteKeyValue struct {
	*DB
	logger *logger.Logger
}

func NewSQLiteKeyValue(db *DB, logger *logger.Logger) KeyValue {
	return &sqliteKeyValue{
		DB:     db,
		logger: logger,
	}
}

func (s *sqliteKeyValue) Get(ctx context.Context, key string) ([]byte, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select("value").
		From(kvTable).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build kv get query: %w", err)
	}

	var value []byte
	err = s.DB.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		log.Err(err).
			Str("func", "sqliteKeyValue.Get").
			Str("key", key).
			Msg("failed to query kv value")
		return nil, fmt.Errorf("failed to query kv value (key=%s): %w", key, err)
	}

	return value, nil
}

func (s *sqliteKeyValue) Set(ctx context.Context, key string, value []byte) error {
	log := logger.FromContext(ctx)

	query, args, err := sq.Insert(kvTable).
		Columns("key", "value").
		Values(key, value).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value").
		ToSql()
	if err != nil {
		return fmt.Errorf("build kv set query: %w", err)
	}

	if _, err = s.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "sqliteKeyValue.Set").
			Str("key", key).
			Msg("failed to execute kv upsert")
		return fmt.Errorf("failed to set kv value (key=%s): %w", key, err)
	}

	return nil
}

func (s *sqliteKeyValue) Delete(ctx context.Context, key string) error {
	log := logger.FromContext(ctx)

	query, args, err := sq.Delete(kvTable).
		Where(sq.Eq{"key": key}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build kv delete query: %w", err)
	}

	if _, err = s.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "sqliteKeyValue.Delete").
			Str("key", key).
			Msg("failed to execute kv delete")
		return fmt.Errorf("failed to delete kv value (key=%s): %w", key, err)
	}

	return nil
}

func (s *sqliteKeyValue) DeleteAll(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	log := logger.FromContext(ctx)

	// squirrel generates IN (?,?,?) for a slice.
	query, args, err := sq.Delete(kvTable).
		Where(sq.Eq{"key": keys}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build kv delete-all query: %w", err)
	}

	if _, err = s.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "sqliteKeyValue.DeleteAll").
			Int("keys", len(keys)).
			Msg("failed to execute kv batch delete")
		return fmt.Errorf("failed to delete kv values: %w", err)
	}

	return nil
}

func (s *sqliteKeyValue) Keys(ctx context.Context, prefix string) ([]string, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select("key").
		From(kvTable).
		Where(sq.Like{"key": prefix + "%"}).
		OrderBy("key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build kv keys query: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "sqliteKeyValue.Keys").
			Str("prefix", prefix).
			Msg("failed to query kv keys")
		return nil, fmt.Errorf("failed to query kv keys (prefix=%s): %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if scanErr := rows.Scan(&key); scanErr != nil {
			log.Err(scanErr).
				Str("func", "sqliteKeyValue.Keys").
				Msg("failed to scan kv key row")
			return nil, fmt.Errorf("failed to scan kv key row: %w", scanErr)
		}
		keys = append(keys, key)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "sqliteKeyValue.Keys").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("error iterating kv key rows: %w", rowsErr)
	}

	return keys, nil
}
