// Package sql provides batch sources backed by database/sql queries, so
// database tables can be combined with other sources.
package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lguimbarda/min-loader/loader/core"
	"github.com/lguimbarda/min-loader/loader/loaderrors"
)

// Scanner is a function that scans a row into a value.
type Scanner[T any] func(*sql.Rows) (T, error)

type options struct {
	dropLast bool
	args     []any
}

// Option configures a Source.
type Option func(*options)

// WithDropLast drops the final batch if it is shorter than the batch size.
func WithDropLast() Option {
	return func(o *options) { o.dropLast = true }
}

// WithArgs sets the query arguments.
func WithArgs(args ...any) Option {
	return func(o *options) { o.args = args }
}

// Source yields the rows of a query in batches. Every pass runs the query
// again. The row count is taken once, when the source is created, and
// defines Len; rows added later are still delivered but not counted.
type Source[T any] struct {
	ctx       context.Context
	db        *sql.DB
	query     string
	scan      Scanner[T]
	batchSize int
	opts      options
	rows      int
}

// NewSource counts the rows of query and returns a source of batches of
// batchSize rows. ctx bounds the count and every later pass.
func NewSource[T any](ctx context.Context, db *sql.DB, query string, scan Scanner[T], batchSize int, opts ...Option) (*Source[T], error) {
	if batchSize < 1 {
		return nil, loaderrors.Configuration("batch size", batchSize, "must be at least 1")
	}
	s := &Source[T]{ctx: ctx, db: db, query: query, scan: scan, batchSize: batchSize}
	for _, opt := range opts {
		opt(&s.opts)
	}

	count := "SELECT COUNT(*) FROM (" + query + ")"
	if err := db.QueryRowContext(ctx, count, s.opts.args...).Scan(&s.rows); err != nil {
		return nil, fmt.Errorf("count rows: %w", err)
	}
	return s, nil
}

// Rows returns the number of rows counted at creation.
func (s *Source[T]) Rows() int { return s.rows }

// Len returns the number of batches per pass.
func (s *Source[T]) Len() core.Length {
	return core.BatchCount(s.rows, s.batchSize, s.opts.dropLast)
}

// Dataset describes the queried rows; its length is the row count.
func (s *Source[T]) Dataset() any { return core.Length(s.rows) }

// Iter returns an iterator that runs the query on its first Next.
func (s *Source[T]) Iter() core.Iterator[[]T] {
	return core.Batch[T](&rowIterator[T]{src: s}, s.batchSize, s.opts.dropLast)
}

// rowIterator scans one row per Next.
type rowIterator[T any] struct {
	src  *Source[T]
	rows *sql.Rows
	done bool
}

func (it *rowIterator[T]) Next() (T, error) {
	var zero T
	if it.done {
		return zero, core.ErrEndOfStream
	}
	if it.rows == nil {
		rows, err := it.src.db.QueryContext(it.src.ctx, it.src.query, it.src.opts.args...)
		if err != nil {
			it.done = true
			return zero, err
		}
		it.rows = rows
	}

	if !it.rows.Next() {
		err := it.rows.Err()
		if cerr := it.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return zero, err
		}
		return zero, core.ErrEndOfStream
	}
	v, err := it.src.scan(it.rows)
	if err != nil {
		return zero, errors.Join(err, it.Close())
	}
	return v, nil
}

// Close releases the result set. It is safe to call more than once.
func (it *rowIterator[T]) Close() error {
	it.done = true
	if it.rows == nil {
		return nil
	}
	rows := it.rows
	it.rows = nil
	return rows.Close()
}
