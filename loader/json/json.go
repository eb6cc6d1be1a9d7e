// Package json provides batch sources over JSON Lines files, decoded with
// sonic. Every pass reopens the file.
package json

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	"github.com/lguimbarda/min-loader/loader/core"
	"github.com/lguimbarda/min-loader/loader/loaderrors"
)

// maxLineSize bounds a single JSON document.
const maxLineSize = 16 << 20

// Source yields the documents of a JSON Lines file in batches. Blank
// lines are skipped.
type Source[T any] struct {
	path      string
	batchSize int
	dropLast  bool
	docs      int
}

// Option configures a Source.
type Option func(*options)

type options struct {
	dropLast bool
}

// WithDropLast drops the final batch if it is shorter than the batch size.
func WithDropLast() Option {
	return func(o *options) { o.dropLast = true }
}

// NewSource decodes path once to validate it and count its documents, and
// returns a source of batches of batchSize documents.
func NewSource[T any](path string, batchSize int, opts ...Option) (*Source[T], error) {
	if batchSize < 1 {
		return nil, loaderrors.Configuration("batch size", batchSize, "must be at least 1")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	s := &Source[T]{path: path, batchSize: batchSize, dropLast: o.dropLast}

	it := &lineIterator[T]{path: path}
	defer it.Close()
	for {
		_, err := it.Next()
		if errors.Is(err, core.ErrEndOfStream) {
			break
		}
		if err != nil {
			return nil, err
		}
		s.docs++
	}
	return s, nil
}

// Docs returns the number of documents.
func (s *Source[T]) Docs() int { return s.docs }

// Len returns the number of batches per pass.
func (s *Source[T]) Len() core.Length {
	return core.BatchCount(s.docs, s.batchSize, s.dropLast)
}

// Dataset describes the documents of the file.
func (s *Source[T]) Dataset() any { return core.Length(s.docs) }

// Iter returns an iterator that opens the file on its first Next.
func (s *Source[T]) Iter() core.Iterator[[]T] {
	return core.Batch[T](&lineIterator[T]{path: s.path}, s.batchSize, s.dropLast)
}

type lineIterator[T any] struct {
	path    string
	file    *os.File
	scanner *bufio.Scanner
	line    int
	done    bool
}

func (it *lineIterator[T]) Next() (T, error) {
	var value T
	if it.done {
		return value, core.ErrEndOfStream
	}
	if it.file == nil {
		file, err := os.Open(it.path)
		if err != nil {
			it.done = true
			return value, err
		}
		it.file = file
		it.scanner = bufio.NewScanner(file)
		it.scanner.Buffer(nil, maxLineSize)
	}

	for it.scanner.Scan() {
		it.line++
		line := bytes.TrimSpace(it.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := sonic.Unmarshal(line, &value); err != nil {
			return value, fmt.Errorf("%s:%d: %w", it.path, it.line, err)
		}
		return value, nil
	}

	err := it.scanner.Err()
	if cerr := it.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return value, err
	}
	return value, core.ErrEndOfStream
}

func (it *lineIterator[T]) Close() error {
	it.done = true
	if it.file == nil {
		return nil
	}
	file := it.file
	it.file = nil
	return file.Close()
}
