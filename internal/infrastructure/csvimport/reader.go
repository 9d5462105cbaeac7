package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const encodingSniffSize = 4096

// TableReader reads a header-first CSV stream row by row, addressing cells
// by column name.
type TableReader struct {
	delimiter  rune
	lazyQuotes bool
	trimSpace  bool
	columns    map[string]int
	headers    []string
	line       int
	csv        *csv.Reader
}

// ReaderOption is a functional option for TableReader configuration
type ReaderOption func(*TableReader)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ReaderOption {
	return func(r *TableReader) {
		r.delimiter = d
	}
}

// WithLazyQuotes toggles lenient quote handling (default on)
func WithLazyQuotes(lazy bool) ReaderOption {
	return func(r *TableReader) {
		r.lazyQuotes = lazy
	}
}

// WithTrimSpace toggles trimming of cell values (default on)
func WithTrimSpace(trim bool) ReaderOption {
	return func(r *TableReader) {
		r.trimSpace = trim
	}
}

// NewTableReader strips a UTF-8 BOM, checks the encoding and reads the header row.
func NewTableReader(src io.Reader, opts ...ReaderOption) (*TableReader, error) {
	r := &TableReader{
		delimiter:  ',',
		lazyQuotes: true,
		trimSpace:  true,
		columns:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(r)
	}

	buf := bufio.NewReaderSize(src, encodingSniffSize)
	if err := skipBOM(buf); err != nil {
		return nil, err
	}
	if err := sniffUTF8(buf); err != nil {
		return nil, err
	}

	r.csv = csv.NewReader(buf)
	r.csv.Comma = r.delimiter
	r.csv.LazyQuotes = r.lazyQuotes
	r.csv.TrimLeadingSpace = r.trimSpace
	r.csv.FieldsPerRecord = -1
	r.csv.ReuseRecord = false

	if err := r.readHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

func skipBOM(buf *bufio.Reader) error {
	head, err := buf.Peek(3)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}
	return nil
}

// sniffUTF8 checks the first block of the stream. A multi-byte rune cut by the
// sniff boundary is not treated as invalid.
func sniffUTF8(buf *bufio.Reader) error {
	content, err := buf.Peek(encodingSniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	if len(content) == encodingSniffSize {
		for i := 0; i < utf8.UTFMax && len(content) > 0; i++ {
			if utf8.Valid(content) {
				return nil
			}
			content = content[:len(content)-1]
		}
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

func (r *TableReader) readHeader() error {
	record, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	r.line = 1

	r.headers = make([]string, 0, len(record))
	for i, h := range record {
		name := strings.TrimSpace(h)
		r.headers = append(r.headers, name)
		if _, dup := r.columns[name]; !dup && name != "" {
			r.columns[name] = i
		}
	}
	if len(r.columns) == 0 {
		return ErrMissingHeader
	}
	return nil
}

// Headers returns the header names in file order
func (r *TableReader) Headers() []string {
	return r.headers
}

// HasColumn reports whether the header row named the column
func (r *TableReader) HasColumn(name string) bool {
	_, ok := r.columns[name]
	return ok
}

// Require returns ErrMissingColumn naming every absent column
func (r *TableReader) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !r.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

// Row is one data line addressed by column name
type Row struct {
	Line  int
	cells map[string]string
}

// Get returns the cell for a column, or "" when the column or cell is absent
func (r *Row) Get(column string) string {
	return r.cells[column]
}

// IsEmpty returns true if every cell is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.cells {
		if v != "" {
			return false
		}
	}
	return true
}

// Next returns the next row or io.EOF. A *csv.ParseError affects only the
// current line; the caller may keep reading.
func (r *TableReader) Next() (*Row, error) {
	record, err := r.csv.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	r.line++
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", r.line, err)
	}

	row := &Row{Line: r.line, cells: make(map[string]string, len(r.columns))}
	for name, idx := range r.columns {
		if idx >= len(record) {
			continue
		}
		v := record[idx]
		if r.trimSpace {
			v = strings.TrimSpace(v)
		}
		row.cells[name] = v
	}
	return row, nil
}
