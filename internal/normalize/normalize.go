// Package normalize renames columns to canonical names, casts cell values to
// consistent types, and corrects known place-name conventions.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/baystatedata/covidetl/internal/etl"
)

// Canonical column names of the city/town case table.
const (
	ColCityTown = "City_Town"
	ColCount    = "Count"
	ColPerMill  = "Per_1M_pp"
)

var (
	cityRe  = regexp.MustCompile(`(?i).*city.*`)
	countRe = regexp.MustCompile(`(?i).*count.*`)
	rateRe  = regexp.MustCompile(`(?i)^rate`)

	intRe   = regexp.MustCompile(`^-?\d+$`)
	floatRe = regexp.MustCompile(`^-?\d*\.\d+$`)
)

// Config controls type-coercion heuristics.
type Config struct {
	// NumericCastThreshold is the minimum fraction of non-missing cells
	// that must already be numeric before a generic column is force-cast.
	NumericCastThreshold float64
}

// Normalizer builds typed tables out of raw cell grids.
type Normalizer struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a Normalizer. A zero threshold falls back to 0.5.
func New(cfg Config, logger *zap.Logger) *Normalizer {
	if cfg.NumericCastThreshold <= 0 {
		cfg.NumericCastThreshold = 0.5
	}
	return &Normalizer{cfg: cfg, logger: logger}
}

// CityTable normalizes the city/town case table extracted from the Word
// document: canonical header names, privacy sentinels resolved, rates
// rescaled from per-100k to per-million, and town names corrected.
//
// The ×10 rescale applies only to columns renamed from a "rate..." header.
// A column already named Per_1M_pp carries per-million values, so running
// the normalizer over its own output changes nothing.
func (n *Normalizer) CityTable(name string, raw etl.RawTable) (*etl.NormalizedTable, error) {
	header := raw.Header()
	if len(header) == 0 {
		return nil, fmt.Errorf("table %q has no header row", name)
	}

	cityIdx, countIdx, rateIdx := -1, -1, -1
	rescaleRate := false
	columns := make([]etl.Column, len(header))
	for i, h := range header {
		switch {
		case cityRe.MatchString(h):
			columns[i] = etl.Column{Name: ColCityTown, Type: etl.TypeString}
			cityIdx = i
		case countRe.MatchString(h):
			columns[i] = etl.Column{Name: ColCount, Type: etl.TypeInt}
			countIdx = i
		case rateRe.MatchString(h):
			columns[i] = etl.Column{Name: ColPerMill, Type: etl.TypeNullableInt}
			rateIdx = i
			rescaleRate = true
		case h == ColPerMill:
			columns[i] = etl.Column{Name: ColPerMill, Type: etl.TypeNullableInt}
			rateIdx = i
		default:
			columns[i] = etl.Column{Name: h, Type: etl.TypeString}
		}
	}
	if cityIdx < 0 || countIdx < 0 || rateIdx < 0 {
		return nil, fmt.Errorf("table %q: missing city/count/rate columns in header %v", name, header)
	}

	table := &etl.NormalizedTable{Name: name, Columns: columns}
	for _, row := range raw.Body() {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("table %q: row arity %d != %d columns", name, len(row), len(columns))
		}
		out := make([]etl.Value, len(columns))
		for i, cell := range row {
			switch i {
			case cityIdx:
				out[i] = etl.String(CorrectTown(cell))
			case countIdx:
				v, err := parseCount(cell)
				if err != nil {
					return nil, fmt.Errorf("table %q: %w", name, err)
				}
				out[i] = v
			case rateIdx:
				out[i] = parseRate(cell, rescaleRate)
			default:
				out[i] = etl.String(cell)
			}
		}
		table.Rows = append(table.Rows, out)
	}
	return table, nil
}

// parseCount resolves the privacy-suppressed "<5" sentinel to 1 and parses
// the rest as integers.
func parseCount(cell string) (etl.Value, error) {
	if strings.TrimSpace(cell) == "<5" {
		return etl.Int(1), nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
	if err != nil {
		return etl.Value{}, fmt.Errorf("count cell %q: %w", cell, err)
	}
	return etl.Int(v), nil
}

// parseRate resolves the "*" sentinel to a missing value and rescales
// per-100k rates to per-million, rounding away the fractional part.
func parseRate(cell string, rescale bool) etl.Value {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" || trimmed == "*" {
		return etl.NullInt()
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return etl.NullInt()
	}
	if rescale {
		f *= 10
	}
	return etl.NullableInt(int64(math.Round(f)))
}

// SheetTable normalizes a generic workbook sheet: headers sanitized into
// identifiers and columns force-cast to numeric when at least the threshold
// fraction of their non-missing cells already parse as floats, or
// independently as integers. Mixed-type leftovers in a cast column become
// missing values, which keeps the relation loadable.
func (n *Normalizer) SheetTable(name string, raw etl.RawTable) (*etl.NormalizedTable, error) {
	header := raw.Header()
	if len(header) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", name)
	}
	body := raw.Body()

	columns := make([]etl.Column, len(header))
	for i, h := range header {
		columns[i] = etl.Column{Name: SanitizeColumn(h), Type: n.inferColumnType(body, i)}
	}

	table := &etl.NormalizedTable{Name: name, Columns: columns}
	for _, row := range body {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("sheet %q: row arity %d != %d columns", name, len(row), len(columns))
		}
		out := make([]etl.Value, len(columns))
		for i, cell := range row {
			out[i] = castCell(cell, columns[i].Type)
		}
		table.Rows = append(table.Rows, out)
	}
	return table, nil
}

// inferColumnType applies the numeric-cast heuristic to one column.
func (n *Normalizer) inferColumnType(body [][]string, col int) etl.ColType {
	nonMissing, ints, floats := 0, 0, 0
	for _, row := range body {
		if col >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			continue
		}
		nonMissing++
		switch {
		case floatRe.MatchString(cell):
			floats++
		case intRe.MatchString(cell):
			ints++
		}
	}
	if nonMissing == 0 {
		return etl.TypeString
	}
	ratio := func(k int) float64 { return float64(k) / float64(nonMissing) }
	switch {
	case ratio(floats) >= n.cfg.NumericCastThreshold:
		return etl.TypeFloat
	case ratio(ints) >= n.cfg.NumericCastThreshold:
		return etl.TypeNullableInt
	default:
		return etl.TypeString
	}
}

func castCell(cell string, typ etl.ColType) etl.Value {
	trimmed := strings.TrimSpace(cell)
	switch typ {
	case etl.TypeFloat:
		if trimmed == "" {
			return etl.NullFloat()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return etl.NullFloat()
		}
		return etl.Float(f)
	case etl.TypeNullableInt:
		if trimmed == "" {
			return etl.NullInt()
		}
		v, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return etl.NullInt()
		}
		return etl.NullableInt(v)
	default:
		return etl.String(cell)
	}
}
