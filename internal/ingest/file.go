package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/encoding/charmap"

	"github.com/viniciushashizume/stock-insight-hub/internal/schema"
)

// SupportedExtensions lists the file suffixes ReadFile understands.
var SupportedExtensions = []string{".csv.gz", ".gz", ".csv", ".txt", ".xlsx"}

// IsSupported reports whether path has a readable extension.
func IsSupported(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range SupportedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ReadFile parses a dataset file, choosing the reader by extension.
func ReadFile(path string) (*schema.Table, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".xlsx"):
		return ReadXLSX(path)
	case strings.HasSuffix(lower, ".gz"):
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		defer zr.Close()
		return ReadCSV(zr, path)
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".txt"):
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f, path)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// ReadCSV parses delimited text. The delimiter is sniffed from the header
// line and non UTF-8 input is decoded as Latin-1.
func ReadCSV(r io.Reader, source string) (*schema.Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("decode latin-1 %s: %w", source, err)
		}
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = sniffDelimiter(raw)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &schema.Table{Source: source}, nil
		}
		return nil, fmt.Errorf("read header of %s: %w", source, err)
	}

	table := &schema.Table{Source: source, Columns: trimAll(header)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}
		if isBlank(record) {
			continue
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// sniffDelimiter picks the most frequent of ',', ';' and tab in the first line.
func sniffDelimiter(raw []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	if !sc.Scan() {
		return ','
	}
	line := sc.Text()

	best, bestN := ',', strings.Count(line, ",")
	for _, d := range []rune{';', '\t'} {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func trimAll(xs []string) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = strings.TrimSpace(x)
	}
	return out
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// FileSource reads the first existing path of a candidate list.
type FileSource struct {
	Paths []string
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Load(ctx context.Context) (*schema.Table, error) {
	for _, p := range s.Paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		return ReadFile(p)
	}
	return nil, fmt.Errorf("%w: none of %v exists", ErrNoDataset, s.Paths)
}

// WriteCSV writes a table as comma separated text.
func WriteCSV(t *schema.Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile writes a table choosing the format by extension, the inverse of
// ReadFile.
func WriteFile(t *schema.Table, path string) error {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") {
		return WriteXLSX(t, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if strings.HasSuffix(lower, ".gz") {
		zw := gzip.NewWriter(f)
		if err := WriteCSV(t, zw); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("close gzip %s: %w", path, err)
		}
		return f.Close()
	}

	if err := WriteCSV(t, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
