package agereport

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/baystatedata/covidetl/internal/etl"
)

// Column names of the produced age table.
const (
	ColAgeGroup = "Age_Group"
	ColCases    = "Cases"
	ColPerMill  = "Per_1M_pp"
)

var (
	// sectionRe isolates the self-contained age section of the dashboard,
	// from the "Confirmed Cases by Age" heading through "Average age of",
	// inclusive. The section is present on every dashboard.
	sectionRe = regexp.MustCompile(`(?is)Confirmed\s?Cases\s?by\s?Age.*Average\s?age\s?of`)

	// bucketAxisRe spans the age-bucket axis: from the first "0-" through
	// the open-ended bucket's "+", excluding any lowercase prose.
	bucketAxisRe = regexp.MustCompile(`0-[^a-z]*\+`)

	// bucketRe captures one age bucket: a range like "20-29" or an
	// open-ended bucket like "80+".
	bucketRe = regexp.MustCompile(`(\d\d?-\d\d|\d+\+)`)

	// seriesRe captures the numeric run that follows the bucket axis, up
	// to the next letter-led token.
	seriesRe = regexp.MustCompile(`^[^A-Za-z()]*`)

	// ratesAnchorRe finds the per-population subsection.
	ratesAnchorRe = regexp.MustCompile(`(?i)rate per 100,000`)

	// plusRe finds the end of the repeated bucket axis inside the rates
	// subsection.
	plusRe = regexp.MustCompile(`\+`)
)

// Parser extracts the age-distribution table from accumulated dashboard text.
type Parser struct {
	logger *zap.Logger
}

// NewParser builds a Parser.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// Parse locates the age section and produces a table with one row per age
// bucket: the bucket label, the confirmed case count, and the rate rescaled
// from per-100,000 to per-million. Series-length mismatches against the
// bucket axis are logged as format drift but still emit data.
func (p *Parser) Parse(text string) (*etl.NormalizedTable, error) {
	section := sectionRe.FindString(text)
	if section == "" {
		return nil, fmt.Errorf("anchors %q..%q: %w", "Confirmed Cases by Age", "Average age of", etl.ErrSectionNotFound)
	}

	axisLoc := bucketAxisRe.FindStringIndex(section)
	if axisLoc == nil {
		return nil, fmt.Errorf("age bucket axis: %w", etl.ErrSectionNotFound)
	}
	axis := strings.ReplaceAll(section[axisLoc[0]:axisLoc[1]], " ", "")
	buckets := bucketRe.FindAllString(axis, -1)
	if len(buckets) == 0 {
		return nil, fmt.Errorf("no age buckets in axis %q: %w", axis, etl.ErrSectionNotFound)
	}

	cases := ExtractNumberSeries(seriesRe.FindString(section[axisLoc[1]:]))
	if len(cases) != len(buckets) {
		p.logger.Warn("age buckets and case counts do not match",
			zap.Strings("buckets", buckets),
			zap.Strings("cases", cases),
		)
	}

	rates := p.parseRates(section, buckets)

	table := &etl.NormalizedTable{
		Name: "AgeDistribution",
		Columns: []etl.Column{
			{Name: ColAgeGroup, Type: etl.TypeString},
			{Name: ColCases, Type: etl.TypeNullableInt},
			{Name: ColPerMill, Type: etl.TypeNullableInt},
		},
	}
	for i, bucket := range buckets {
		row := []etl.Value{
			etl.String(bucket),
			p.intValue(cases, i, 1),
			p.intValue(rates, i, 10),
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// parseRates extracts the per-100,000 series from its subsection. The axis
// repeats there, so the numbers start after the subsection's last "+".
func (p *Parser) parseRates(section string, buckets []string) []string {
	anchor := ratesAnchorRe.FindStringIndex(section)
	if anchor == nil {
		p.logger.Warn("rate subsection not found in age section")
		return nil
	}
	sub := section[anchor[1]:]

	plus := plusRe.FindStringIndex(sub)
	if plus != nil {
		sub = sub[plus[1]:]
	}

	rates := ExtractNumberSeries(seriesRe.FindString(sub))
	if len(rates) != len(buckets) {
		p.logger.Warn("age buckets and rates do not match",
			zap.Strings("buckets", buckets),
			zap.Strings("rates", rates),
		)
	}
	return rates
}

// intValue parses series[i] scaled by factor into a nullable integer,
// missing when the series is short or the token does not parse.
func (p *Parser) intValue(series []string, i int, factor int64) etl.Value {
	if i >= len(series) {
		return etl.NullInt()
	}
	n, err := strconv.ParseInt(series[i], 10, 64)
	if err != nil {
		p.logger.Warn("unparseable numeric token in age section", zap.String("token", series[i]))
		return etl.NullInt()
	}
	return etl.NullableInt(n * factor)
}
