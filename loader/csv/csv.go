// Package csv provides batch sources over CSV files. Every pass reopens
// the file, so a source can be cycled by a combined loader.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lguimbarda/min-loader/loader/core"
	"github.com/lguimbarda/min-loader/loader/loaderrors"
)

type config struct {
	reader   []func(*csv.Reader)
	header   bool
	dropLast bool
}

// Option configures a Source.
type Option func(*config)

// WithComma sets the field delimiter (default is ',').
func WithComma(comma rune) Option {
	return withReader(func(r *csv.Reader) { r.Comma = comma })
}

// WithComment sets the comment character. Lines beginning with this
// character are ignored.
func WithComment(comment rune) Option {
	return withReader(func(r *csv.Reader) { r.Comment = comment })
}

// WithFieldsPerRecord sets the expected number of fields per record.
// If positive, each record must have exactly that many fields.
// If 0, the number is set to the first record's field count.
// If negative, no check is made and records may have variable fields.
func WithFieldsPerRecord(n int) Option {
	return withReader(func(r *csv.Reader) { r.FieldsPerRecord = n })
}

// WithLazyQuotes allows lazy quotes in quoted fields.
func WithLazyQuotes(lazy bool) Option {
	return withReader(func(r *csv.Reader) { r.LazyQuotes = lazy })
}

// WithTrimLeadingSpace trims leading whitespace from fields.
func WithTrimLeadingSpace(trim bool) Option {
	return withReader(func(r *csv.Reader) { r.TrimLeadingSpace = trim })
}

// WithHeader skips the first record of the file.
func WithHeader() Option {
	return func(c *config) { c.header = true }
}

// WithDropLast drops the final batch if it is shorter than the batch size.
func WithDropLast() Option {
	return func(c *config) { c.dropLast = true }
}

func withReader(fn func(*csv.Reader)) Option {
	return func(c *config) { c.reader = append(c.reader, fn) }
}

// Source yields the records of a CSV file in batches.
type Source struct {
	path      string
	batchSize int
	cfg       config
	records   int
	header    []string
}

// NewSource reads path once to validate it and count its records, and
// returns a source of batches of batchSize records.
func NewSource(path string, batchSize int, opts ...Option) (*Source, error) {
	if batchSize < 1 {
		return nil, loaderrors.Configuration("batch size", batchSize, "must be at least 1")
	}
	s := &Source{path: path, batchSize: batchSize}
	for _, opt := range opts {
		opt(&s.cfg)
	}

	it, err := s.open()
	if err != nil {
		return nil, err
	}
	defer it.Close()
	s.header = it.header
	for {
		_, err := it.Next()
		if errors.Is(err, core.ErrEndOfStream) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		s.records++
	}
	return s, nil
}

// Records returns the number of records, excluding the header.
func (s *Source) Records() int { return s.records }

// Header returns the skipped header record, or nil without WithHeader.
func (s *Source) Header() []string { return s.header }

// Len returns the number of batches per pass.
func (s *Source) Len() core.Length {
	return core.BatchCount(s.records, s.batchSize, s.cfg.dropLast)
}

// Dataset describes the records of the file.
func (s *Source) Dataset() any { return core.Length(s.records) }

// Iter returns an iterator that opens the file on its first Next.
func (s *Source) Iter() core.Iterator[[][]string] {
	return core.Batch[[]string](&lazyRecords{src: s}, s.batchSize, s.cfg.dropLast)
}

func (s *Source) open() (*recordIterator, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(file)
	for _, fn := range s.cfg.reader {
		fn(r)
	}
	it := &recordIterator{file: file, reader: r}
	if s.cfg.header {
		header, err := r.Read()
		if err != nil && !errors.Is(err, io.EOF) {
			file.Close()
			return nil, fmt.Errorf("read header of %s: %w", s.path, err)
		}
		it.header = header
	}
	return it, nil
}

type recordIterator struct {
	file   *os.File
	reader *csv.Reader
	header []string
}

func (it *recordIterator) Next() ([]string, error) {
	record, err := it.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, core.ErrEndOfStream
	}
	return record, err
}

func (it *recordIterator) Close() error {
	return it.file.Close()
}

// lazyRecords opens the file on the first Next and closes it at the end.
type lazyRecords struct {
	src  *Source
	it   *recordIterator
	done bool
}

func (l *lazyRecords) Next() ([]string, error) {
	if l.done {
		return nil, core.ErrEndOfStream
	}
	if l.it == nil {
		it, err := l.src.open()
		if err != nil {
			l.done = true
			return nil, err
		}
		l.it = it
	}
	record, err := l.it.Next()
	if errors.Is(err, core.ErrEndOfStream) {
		if cerr := l.Close(); cerr != nil {
			return nil, cerr
		}
	}
	return record, err
}

func (l *lazyRecords) Close() error {
	l.done = true
	if l.it == nil {
		return nil
	}
	it := l.it
	l.it = nil
	return it.Close()
}
