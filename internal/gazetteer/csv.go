package gazetteer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// LoadCSV: loads the gazetteer export at path
// Background: a load failure is fatal for the server, so every error carries the path.
func LoadCSV(path string, roles Roles) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gazetteer %s: %w", path, err)
	}
	defer f.Close()
	t, err := ReadCSV(bufio.NewReader(f), roles)
	if err != nil {
		return nil, fmt.Errorf("read gazetteer %s: %w", path, err)
	}
	return t, nil
}

// ReadCSV: comma separated, header row, UTF-8 with optional BOM
// Constraint: an empty cell is null; x/y cells that do not parse as numbers are treated as missing.
func ReadCSV(r io.Reader, roles Roles) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv has no header row")
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	col := make(map[string]int, len(header))
	columns := make([]string, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := col[h]; dup {
			return nil, fmt.Errorf("duplicate column: %s", h)
		}
		col[h] = i
		columns = append(columns, h)
	}
	for _, k := range []string{roles.Municipality, roles.X, roles.Y} {
		if _, ok := col[k]; !ok {
			return nil, fmt.Errorf("missing required column: %s", k)
		}
	}

	var records []Record
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		fields := make(map[string]string, len(columns))
		for i, name := range columns {
			if i >= len(rec) {
				break
			}
			if v := strings.TrimSpace(rec[i]); v != "" {
				fields[name] = v
			}
		}
		records = append(records, NewRecord(len(records), fields, roles))
	}
	return NewTable(columns, roles, records), nil
}

func parseCoord(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
