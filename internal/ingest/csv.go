package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"glucose-levels-backend/config"
	"glucose-levels-backend/internal/model"
	"glucose-levels-backend/internal/parse"
)

var (
	// ErrMissingHeader is returned for a file that ends before its header row.
	ErrMissingHeader = errors.New("missing header row")
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("missing required column")
	// ErrFatalRow is returned for a row that cannot be turned into a reading.
	ErrFatalRow = errors.New("unparseable row")
)

// preambleLines is the number of metadata lines preceding the header row.
const preambleLines = 1

// columnIndex holds header positions; -1 marks an absent optional column.
type columnIndex struct {
	timestamp    int
	glucoseValue int
	device       int
	serialNumber int
}

// fileParser turns one export file into readings.
type fileParser struct {
	columns   config.ColumnMapping
	delimiter rune
}

func newFileParser(cfg config.ImportConfig) fileParser {
	p := fileParser{columns: cfg.Columns}
	if cfg.Delimiter != "" {
		p.delimiter = []rune(cfg.Delimiter)[0]
	}
	return p
}

// fileResult is the outcome of parsing one file.
type fileResult struct {
	levels    []model.GlucoseLevel
	sanitized int
}

// parseFile opens and parses the export file at path.
func (p fileParser) parseFile(path, userID string) (fileResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileResult{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return p.parse(f, userID)
}

// parse reads the whole of r. Any structural or row error aborts the file.
func (p fileParser) parse(r io.Reader, userID string) (fileResult, error) {
	br := bufio.NewReader(r)

	for i := 0; i < preambleLines; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return fileResult{}, ErrMissingHeader
		}
	}

	headerLine, err := br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && headerLine != "") {
		return fileResult{}, ErrMissingHeader
	}

	reader := csv.NewReader(io.MultiReader(strings.NewReader(headerLine), br))
	reader.Comma = p.delimiterFor(headerLine)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return fileResult{}, fmt.Errorf("%w: %v", ErrMissingHeader, err)
	}
	idx, err := p.index(header)
	if err != nil {
		return fileResult{}, err
	}

	var res fileResult
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fileResult{}, fmt.Errorf("%w: %v", ErrFatalRow, err)
		}
		if blankRow(row) {
			continue
		}

		level, sanitized, err := toLevel(userID, row, idx)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return fileResult{}, fmt.Errorf("%w at line %d: %v", ErrFatalRow, line+preambleLines, err)
		}
		if sanitized {
			res.sanitized++
		}
		res.levels = append(res.levels, level)
	}
	return res, nil
}

// delimiterFor returns the configured delimiter, or ';' for a header that
// only uses semicolons, or ','.
func (p fileParser) delimiterFor(headerLine string) rune {
	if p.delimiter != 0 {
		return p.delimiter
	}
	if strings.Contains(headerLine, ";") && !strings.Contains(headerLine, ",") {
		return ';'
	}
	return ','
}

func (p fileParser) index(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(parse.CleanCell(h))
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}
	lookup := func(name string) int {
		if i, ok := positions[strings.ToLower(name)]; ok {
			return i
		}
		return -1
	}

	idx := columnIndex{
		timestamp:    lookup(p.columns.Timestamp),
		glucoseValue: lookup(p.columns.GlucoseValue),
		device:       lookup(p.columns.Device),
		serialNumber: lookup(p.columns.SerialNumber),
	}
	if idx.timestamp < 0 {
		return idx, fmt.Errorf("%w: %q", ErrMissingColumn, p.columns.Timestamp)
	}
	if idx.glucoseValue < 0 {
		return idx, fmt.Errorf("%w: %q", ErrMissingColumn, p.columns.GlucoseValue)
	}
	return idx, nil
}

// toLevel maps one data row to a reading. The second result reports whether
// the glucose cell fell back to the sanitizer default.
func toLevel(userID string, row []string, idx columnIndex) (model.GlucoseLevel, bool, error) {
	ts, err := parse.Timestamp(cell(row, idx.timestamp))
	if err != nil {
		return model.GlucoseLevel{}, false, err
	}

	raw := cell(row, idx.glucoseValue)
	value := parse.GlucoseValue(raw)

	return model.GlucoseLevel{
		UserID:       userID,
		Timestamp:    ts,
		GlucoseValue: value,
		Device:       parse.OptionalText(cell(row, idx.device)),
		SerialNumber: parse.OptionalText(cell(row, idx.serialNumber)),
	}, value == 0 && !isZeroLiteral(raw), nil
}

func isZeroLiteral(raw string) bool {
	f, err := strconv.ParseFloat(strings.Replace(parse.CleanCell(raw), ",", ".", 1), 64)
	return err == nil && f == 0
}

// cell returns the row's value at i, or "" for an absent column or short row.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
