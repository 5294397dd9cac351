package etl

import "errors"

// Sentinel errors shared across pipeline stages.
var (
	// ErrLinkNotFound means the landing page had no anchor matching the
	// expected label. There is nothing to fetch, so the run aborts.
	ErrLinkNotFound = errors.New("no matching download link on page")

	// ErrNoTables means a Word document contained no tables.
	ErrNoTables = errors.New("document contains no tables")

	// ErrNoText means a PDF yielded no extractable text.
	ErrNoText = errors.New("no text content found in PDF")

	// ErrSectionNotFound means an expected report section anchor was absent
	// from the extracted dashboard text.
	ErrSectionNotFound = errors.New("report section not found in text")

	// ErrNoSheetMatch means no workbook tab matched a canonical target
	// within the configured tolerance.
	ErrNoSheetMatch = errors.New("no sheet matched target")

	// ErrAmbiguousSheetMatch means one tab was accepted by more than one
	// canonical target, which would silently misroute data.
	ErrAmbiguousSheetMatch = errors.New("sheet name matches multiple targets")
)
