package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// sortTimeLayout is fixed width so lexical order of the text columns matches
// time order.
const sortTimeLayout = "2006-01-02T15:04:05.000000000Z"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type schema[T any] struct {
	table   string
	orderBy string
	id      func(T) string
	sortKey func(T) string
	stamps  func(T) (created, updated time.Time)
}

// Collection is one named set of documents keyed by id. Each row keeps the
// entity as JSON next to the columns used for ordering.
type Collection[T any] struct {
	q      querier
	schema schema[T]
}

func (c *Collection[T]) Name() string { return c.schema.table }

func (c *Collection[T]) ioErr(op string, err error) error {
	return &StoreIOError{Op: op, Collection: c.schema.table, Err: err}
}

func (c *Collection[T]) encode(v T) ([]any, error) {
	doc, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.schema.table, err)
	}
	created, updated := c.schema.stamps(v)
	return []any{c.schema.id(v), c.schema.sortKey(v), formatSortTime(created), formatSortTime(updated), string(doc)}, nil
}

func (c *Collection[T]) insertSQL() string {
	return `INSERT INTO ` + c.schema.table + ` (id, sort_key, created_at, updated_at, doc) VALUES (?, ?, ?, ?, ?)`
}

func (c *Collection[T]) Add(ctx context.Context, v T) error {
	args, err := c.encode(v)
	if err != nil {
		return err
	}
	if _, err := c.q.ExecContext(ctx, c.insertSQL(), args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %q", ErrConflict, c.schema.table, c.schema.id(v))
		}
		return c.ioErr("add", err)
	}
	return nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	var doc string
	err := c.q.QueryRowContext(ctx, `SELECT doc FROM `+c.schema.table+` WHERE id = ?`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, ErrNotFound
		}
		return zero, c.ioErr("get", err)
	}
	return c.decode(doc)
}

// Put replaces the stored document with v. The row must exist.
func (c *Collection[T]) Put(ctx context.Context, v T) error {
	args, err := c.encode(v)
	if err != nil {
		return err
	}
	res, err := c.q.ExecContext(ctx, `
		UPDATE `+c.schema.table+`
		SET sort_key = ?, created_at = ?, updated_at = ?, doc = ?
		WHERE id = ?`,
		args[1], args[2], args[3], args[4], args[0],
	)
	if err != nil {
		return c.ioErr("put", err)
	}
	return checkRowsAffected(res)
}

// Upsert inserts v or replaces the row holding the same id.
func (c *Collection[T]) Upsert(ctx context.Context, v T) error {
	args, err := c.encode(v)
	if err != nil {
		return err
	}
	_, err = c.q.ExecContext(ctx, c.insertSQL()+`
		ON CONFLICT(id) DO UPDATE SET
			sort_key = excluded.sort_key,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			doc = excluded.doc`,
		args...,
	)
	if err != nil {
		return c.ioErr("upsert", err)
	}
	return nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.q.ExecContext(ctx, `DELETE FROM `+c.schema.table+` WHERE id = ?`, id)
	if err != nil {
		return c.ioErr("delete", err)
	}
	return checkRowsAffected(res)
}

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	rows, err := c.q.QueryContext(ctx, `SELECT doc FROM `+c.schema.table+` ORDER BY `+c.schema.orderBy)
	if err != nil {
		return nil, c.ioErr("list", err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, c.ioErr("list", err)
		}
		v, err := c.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, c.ioErr("list", err)
	}
	return out, nil
}

// BulkAdd inserts every record with one prepared statement. It stops at the
// first failure; run it inside Store.Tx for all-or-nothing behavior.
func (c *Collection[T]) BulkAdd(ctx context.Context, vs []T) error {
	if len(vs) == 0 {
		return nil
	}
	stmt, err := c.q.PrepareContext(ctx, c.insertSQL())
	if err != nil {
		return c.ioErr("bulk add", err)
	}
	defer stmt.Close()

	for _, v := range vs {
		args, err := c.encode(v)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s %q", ErrConflict, c.schema.table, c.schema.id(v))
			}
			return c.ioErr("bulk add", err)
		}
	}
	return nil
}

func (c *Collection[T]) Clear(ctx context.Context) error {
	if _, err := c.q.ExecContext(ctx, `DELETE FROM `+c.schema.table); err != nil {
		return c.ioErr("clear", err)
	}
	return nil
}

func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.q.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+c.schema.table).Scan(&n); err != nil {
		return 0, c.ioErr("count", err)
	}
	return n, nil
}

func (c *Collection[T]) decode(doc string) (T, error) {
	var v T
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return v, c.ioErr("decode", err)
	}
	return v, nil
}

func formatSortTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(sortTimeLayout)
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
