package etl

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/itbi-consulta/internal/logger"
	"github.com/itbi-consulta/internal/normalize"
)

// Source streams raw rows. Next returns io.EOF after the last row.
type Source interface {
	Next() (normalize.RawRecord, error)
	Close() error
}

// readBatch reads up to size rows. It returns io.EOF together with the
// final, possibly empty, batch.
func readBatch(src Source, size int) ([]normalize.RawRecord, error) {
	batch := make([]normalize.RawRecord, 0, min(size, 4096))
	for len(batch) < size {
		rec, err := src.Next()
		if err != nil {
			return batch, err
		}
		batch = append(batch, rec)
	}
	return batch, nil
}

func missingColumns(header, required []string) []string {
	var missing []string
	for _, col := range required {
		if !slices.Contains(header, col) {
			missing = append(missing, col)
		}
	}
	return missing
}

func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}

func toRecord(header, values []string) normalize.RawRecord {
	rec := make(normalize.RawRecord, len(header))
	for i, col := range header {
		if i < len(values) {
			rec[col] = values[i]
		}
	}
	return rec
}

// delimitedSource reads separator-delimited text.
type delimitedSource struct {
	file   *os.File
	reader *csv.Reader
	header []string
}

// OpenDelimited opens a delimited text file decoded from the named
// encoding and checks its header holds every required column.
func OpenDelimited(path string, sep rune, enc string, required []string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	decoded, err := decodeReader(enc, f)
	if err != nil {
		f.Close()
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.Comma = sep
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		f.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s is empty", ErrMissingColumns, path)
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	header = cleanHeader(header)

	if missing := missingColumns(header, required); len(missing) > 0 {
		f.Close()
		return nil, fmt.Errorf("%w: %s lacks %s", ErrMissingColumns, path, strings.Join(missing, ", "))
	}

	return &delimitedSource{file: f, reader: reader, header: header}, nil
}

func (s *delimitedSource) Next() (normalize.RawRecord, error) {
	values, err := s.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	return toRecord(s.header, values), nil
}

func (s *delimitedSource) Close() error {
	return s.file.Close()
}

// workbookSource reads every eligible sheet of an XLSX workbook in order.
type workbookSource struct {
	path     string
	file     *excelize.File
	sheets   []string
	next     int
	rows     *excelize.Rows
	header   []string
	required []string
	log      *logger.Logger
}

// OpenWorkbook opens an XLSX workbook. Sheets named in ignore are skipped,
// and so are sheets lacking a required column, with a warning.
func OpenWorkbook(path string, ignore, required []string, log *logger.Logger) (Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file %s: %w", path, err)
	}

	var sheets []string
	for _, name := range f.GetSheetList() {
		if !slices.Contains(ignore, name) {
			sheets = append(sheets, name)
		}
	}

	return &workbookSource{
		path:     path,
		file:     f,
		sheets:   sheets,
		required: required,
		log:      log,
	}, nil
}

func (s *workbookSource) openNextSheet() error {
	for s.next < len(s.sheets) {
		sheet := s.sheets[s.next]
		s.next++

		rows, err := s.file.Rows(sheet)
		if err != nil {
			return fmt.Errorf("failed to open rows iterator for sheet %s: %w", sheet, err)
		}

		var header []string
		for rows.Next() {
			cols, err := rows.Columns()
			if err != nil {
				rows.Close()
				return fmt.Errorf("failed to read header of sheet %s: %w", sheet, err)
			}
			if len(cols) > 0 {
				header = cleanHeader(cols)
				break
			}
		}

		if missing := missingColumns(header, s.required); len(missing) > 0 {
			s.log.Warn("sheet skipped: missing required columns",
				"file", s.path, "sheet", sheet, "missing", strings.Join(missing, ", "))
			rows.Close()
			continue
		}

		s.rows = rows
		s.header = header
		return nil
	}
	return io.EOF
}

func (s *workbookSource) Next() (normalize.RawRecord, error) {
	for {
		if s.rows == nil {
			if err := s.openNextSheet(); err != nil {
				return nil, err
			}
		}

		if !s.rows.Next() {
			err := s.rows.Error()
			s.rows.Close()
			s.rows = nil
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
			}
			continue
		}

		values, err := s.rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read row of %s: %w", s.path, err)
		}
		if isBlank(values) {
			continue
		}
		return toRecord(s.header, values), nil
	}
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (s *workbookSource) Close() error {
	if s.rows != nil {
		s.rows.Close()
	}
	return s.file.Close()
}
