package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// SQL keeps entries in the cache_entries table so every server process
// sees the same cache.
type SQL struct {
	db  *sqlx.DB
	qb  sq.StatementBuilderType
	now func() time.Time
}

// NewSQL creates a cache backed by db
func NewSQL(db *sqlx.DB) *SQL {
	return &SQL{
		db:  db,
		qb:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now: time.Now,
	}
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := s.qb.Select("value").
		From("cache_entries").
		Where(sq.Eq{"key": key}).
		Where(sq.Gt{"expires_at": s.now()}).
		ToSql()
	if err != nil {
		return nil, false, err
	}

	var value []byte
	if err := s.db.GetContext(ctx, &value, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return value, true, nil
}

func (s *SQL) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	query, args, err := s.qb.Insert("cache_entries").
		Columns("key", "value", "expires_at").
		Values(key, value, s.now().Add(ttl)).
		Suffix("ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) (bool, error) {
	query, args, err := s.qb.Delete("cache_entries").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return false, err
	}
	n, err := s.exec(ctx, query, args)
	return n > 0, err
}

func (s *SQL) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	query, args, err := s.qb.Delete("cache_entries").
		Where(sq.Like{"key": escapeLike(prefix) + "%"}).
		ToSql()
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, query, args)
}

func (s *SQL) Purge(ctx context.Context) (int, error) {
	query, args, err := s.qb.Delete("cache_entries").
		Where(sq.LtOrEq{"expires_at": s.now()}).
		ToSql()
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, query, args)
}

func (s *SQL) exec(ctx context.Context, query string, args []interface{}) (int, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("cache delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
