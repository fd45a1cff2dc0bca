package annot

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxRowBytes bounds one association row. Annotation rows carry long
// attribute columns, so the bufio default is not enough.
const maxRowBytes = 1 << 20

// IsComment reports whether a raw association line carries no row: lines
// starting with "!" and blank or whitespace-only lines.
func IsComment(line string) bool {
	return strings.HasPrefix(line, "!") || strings.TrimSpace(line) == ""
}

// Reader iterates the non-comment rows of an association source, splitting
// each into tab-separated columns. Sources with a .gz or .Z suffix are
// decompressed transparently.
type Reader struct {
	scanner *bufio.Scanner
	closers []io.Closer
	source  string
	columns []string
	rows    int
	err     error
}

// Open opens an association file for row iteration
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open association source %s: %w", path, err)
	}

	var in io.Reader = file
	closers := []io.Closer{file}

	if strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".Z") {
		zr, err := gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to open compressed association source %s: %w", path, err)
		}
		in = zr
		closers = []io.Closer{zr, file}
	}

	reader := NewReader(in, path)
	reader.closers = closers
	return reader, nil
}

// NewReader wraps an already-open stream. The source name is used only for
// diagnostics.
func NewReader(r io.Reader, source string) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRowBytes)
	return &Reader{
		scanner: scanner,
		source:  source,
	}
}

// Scan advances to the next non-comment row, returning false at end of
// input or on error
func (r *Reader) Scan() bool {
	for r.scanner.Scan() {
		line := r.scanner.Text()
		if IsComment(line) {
			continue
		}
		r.rows++
		r.columns = strings.Split(line, "\t")
		return true
	}

	if err := r.scanner.Err(); err != nil {
		r.err = fmt.Errorf("failed to read association source %s: %w", r.source, err)
	}
	return false
}

// Columns returns the columns of the current row. The slice is reused
// conceptually per row; callers that retain it must copy.
func (r *Reader) Columns() []string {
	return r.columns
}

// RowCount returns how many non-comment rows have been consumed so far
func (r *Reader) RowCount() int {
	return r.rows
}

// Source returns the source name the reader was opened with
func (r *Reader) Source() string {
	return r.source
}

// Err returns the first error encountered during scanning
func (r *Reader) Err() error {
	return r.err
}

// Close releases the underlying file handles
func (r *Reader) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
