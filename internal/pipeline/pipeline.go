// Package pipeline orchestrates one end-to-end run: locate the published
// artifacts, download and extract them, normalize the tables, persist CSVs,
// and load the warehouse.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/baystatedata/covidetl/internal/agereport"
	"github.com/baystatedata/covidetl/internal/config"
	"github.com/baystatedata/covidetl/internal/etl"
	"github.com/baystatedata/covidetl/internal/extract"
	"github.com/baystatedata/covidetl/internal/fetcher"
	"github.com/baystatedata/covidetl/internal/locator"
	"github.com/baystatedata/covidetl/internal/metrics"
	"github.com/baystatedata/covidetl/internal/normalize"
	"github.com/baystatedata/covidetl/internal/sheetmatch"
	"github.com/baystatedata/covidetl/internal/sink"
	"github.com/baystatedata/covidetl/internal/warehouse"
)

// Names of the failsafe CSV outputs.
const (
	CityCSVName = "covid19__by_city_ma.csv"
	AgeCSVName  = "covid19__by_age_ma.csv"
)

// Mirror uploads a CSV to remote object storage.
type Mirror interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// Reporter publishes the end-of-run summary.
type Reporter interface {
	Publish(ctx context.Context, payload any) (string, error)
}

// Pipeline wires the stages together for one run.
type Pipeline struct {
	cfg       config.Config
	logger    *zap.Logger
	fetcher   *fetcher.Fetcher
	csv       *sink.CSVWriter
	norm      *normalize.Normalizer
	matcher   *sheetmatch.Matcher
	ageParser *agereport.Parser
	loader    *warehouse.Loader
	mirror    Mirror
	reporter  Reporter
	now       func() time.Time
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithLoader attaches a warehouse loader. Without one, normalized tables
// only reach the CSV failsafe.
func WithLoader(l *warehouse.Loader) Option {
	return func(p *Pipeline) { p.loader = l }
}

// WithMirror attaches an object-storage mirror for the CSV outputs.
func WithMirror(m Mirror) Option {
	return func(p *Pipeline) { p.mirror = m }
}

// WithReporter attaches an end-of-run summary publisher.
func WithReporter(r Reporter) Option {
	return func(p *Pipeline) { p.reporter = r }
}

// WithClock overrides the run clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New builds a Pipeline from configuration.
func New(cfg config.Config, logger *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		logger: logger,
		fetcher: fetcher.New(fetcher.Config{
			UserAgent: cfg.Source.UserAgent,
			Timeout:   cfg.HTTPTimeout(),
		}, logger),
		csv:       sink.NewCSVWriter(logger),
		norm:      normalize.New(normalize.Config{NumericCastThreshold: cfg.Normalize.NumericCastThreshold}, logger),
		matcher:   sheetmatch.New(cfg.Match.ToleranceRatio, logger),
		ageParser: agereport.NewParser(logger),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one pipeline pass. The returned summary is always populated,
// even when the run aborts early; the error reflects run-fatal failures
// (unreachable landing page, missing download links).
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	metrics.Init()
	start := p.now()
	summary := &RunSummary{RunID: uuid.NewString(), StartedAt: start}
	defer func() {
		summary.Duration = p.now().Sub(start)
		metrics.ObserveRunDuration(summary.Duration.Seconds())
		p.report(ctx, summary)
	}()

	p.logger.Info("pipeline run starting",
		zap.String("run_id", summary.RunID),
		zap.String("source", p.cfg.Source.URL),
	)

	page, err := p.fetcher.Get(ctx, p.cfg.Source.URL)
	if err != nil {
		summary.addStep("landing_page", StepFailed, err.Error())
		return summary, fmt.Errorf("fetch landing page: %w", err)
	}
	summary.addStep("landing_page", StepSucceeded, "")

	loc, err := locator.New(page, p.cfg.Source.URL, p.logger)
	if err != nil {
		summary.addStep("locate_links", StepFailed, err.Error())
		return summary, err
	}

	if err := p.runCityTable(ctx, loc, summary); err != nil {
		return summary, err
	}
	if err := p.runAgeReport(ctx, loc, summary); err != nil {
		return summary, err
	}
	p.runWorkbook(ctx, loc, summary, "daily_workbook", locator.PatternRawData, sheetmatch.DailyTargets)
	p.runWorkbook(ctx, loc, summary, "weekly_workbook", locator.PatternWeeklyData, sheetmatch.WeeklyTargets)

	return summary, nil
}

// runCityTable handles the Word document: first table out, normalized, CSV
// failsafe plus the repo seed path, and a warehouse load. A missing link or
// failed download aborts the run; extraction and normalization failures are
// fatal for this artifact only.
func (p *Pipeline) runCityTable(ctx context.Context, loc *locator.Locator, summary *RunSummary) error {
	link, err := loc.FindLink(locator.PatternCityDoc)
	if err != nil {
		summary.addStep("city_table", StepFailed, err.Error())
		return err
	}

	stem := locator.DeriveFilename(link)
	doc, err := p.download(ctx, link, stem+".docx", etl.FormatDocx)
	if err != nil {
		summary.addStep("city_table", StepFailed, err.Error())
		return err
	}

	raw, err := extract.DocxFirstTable(doc.LocalPath)
	if err != nil {
		summary.addStep("city_table", StepFailed, err.Error())
		return nil
	}
	if len(raw) == 0 {
		summary.addStep("city_table", StepFailed,
			fmt.Sprintf("%s: %v", doc.LocalPath, etl.ErrNoTables))
		return nil
	}

	table, err := p.norm.CityTable("covid19__by_city_ma", raw)
	if err != nil {
		summary.addStep("city_table", StepFailed, err.Error())
		return nil
	}
	metrics.ObserveRows(table.Name, len(table.Rows))

	if err := p.persist(ctx, summary, table, CityCSVName, p.cfg.Paths.GitCityCSV); err != nil {
		summary.addStep("city_table", StepFailed, err.Error())
		return nil
	}
	p.load(ctx, summary, "covid19__by_city_ma", table)

	summary.addStep("city_table", StepSucceeded, fmt.Sprintf("%d rows", len(table.Rows)))
	return nil
}

// runAgeReport handles the dashboard PDF. A dashboard without the age
// section is format drift, not a broken run: the step is skipped and the
// workbooks still process.
func (p *Pipeline) runAgeReport(ctx context.Context, loc *locator.Locator, summary *RunSummary) error {
	link, err := loc.FindLink(locator.PatternDashboard)
	if err != nil {
		summary.addStep("age_report", StepFailed, err.Error())
		return err
	}

	day, year, recency, err := locator.ClassifyDate(link, p.now())
	if err != nil {
		p.logger.Warn("dashboard link has no parseable date", zap.String("link", link), zap.Error(err))
	} else {
		p.logger.Info("dashboard recency",
			zap.Int("day", day),
			zap.Int("year", year),
			zap.String("recency", recency.String()),
		)
	}
	stamp := locator.DateStamp(recency, p.now())

	name := fmt.Sprintf("covid19_dashboard_%s.pdf", stamp.Format("2006_01_02"))
	doc, err := p.download(ctx, link, name, etl.FormatPDF)
	if err != nil {
		summary.addStep("age_report", StepFailed, err.Error())
		return err
	}

	text, err := extract.PDFText(doc.LocalPath)
	if err != nil {
		summary.addStep("age_report", StepFailed, err.Error())
		return nil
	}

	table, err := p.ageParser.Parse(text)
	if err != nil {
		if errors.Is(err, etl.ErrSectionNotFound) {
			p.logger.Warn("age section absent from dashboard, skipping age report", zap.Error(err))
			summary.addStep("age_report", StepSkipped, err.Error())
			return nil
		}
		summary.addStep("age_report", StepFailed, err.Error())
		return nil
	}
	metrics.ObserveRows(table.Name, len(table.Rows))

	if err := p.persist(ctx, summary, table, AgeCSVName, p.cfg.Paths.GitAgeCSV); err != nil {
		summary.addStep("age_report", StepFailed, err.Error())
		return nil
	}
	p.load(ctx, summary, "covid19__by_age_ma", table)

	summary.addStep("age_report", StepSucceeded, fmt.Sprintf("%d rows", len(table.Rows)))
	return nil
}

// runWorkbook handles one multi-sheet workbook: fuzzy-match the target tabs,
// normalize each, and persist and load them. A failed relation does not stop
// its siblings; a failed workbook does not stop the run.
func (p *Pipeline) runWorkbook(ctx context.Context, loc *locator.Locator, summary *RunSummary, step, pattern string, targets []sheetmatch.Target) {
	link, err := loc.FindLink(pattern)
	if err != nil {
		summary.addStep(step, StepFailed, err.Error())
		return
	}

	stem := locator.DeriveFilename(link)
	doc, err := p.download(ctx, link, stem+".xlsx", etl.FormatXLSX)
	if err != nil {
		summary.addStep(step, StepFailed, err.Error())
		return
	}

	wb, err := extract.Workbook(doc.LocalPath)
	if err != nil {
		summary.addStep(step, StepFailed, err.Error())
		return
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil {
			p.logger.Warn("close workbook", zap.Error(cerr))
		}
	}()

	mapping, err := p.matcher.Match(targets, extract.SheetNames(wb))
	if err != nil {
		summary.addStep(step, StepFailed, err.Error())
		return
	}
	if len(mapping) == 0 {
		summary.addStep(step, StepFailed, etl.ErrNoSheetMatch.Error())
		return
	}

	processed := 0
	for _, target := range targets {
		tab, ok := mapping[target.Relation]
		if !ok {
			p.logger.Warn("no tab matched target, skipping relation",
				zap.String("target", target.Label),
				zap.String("relation", target.Relation),
			)
			continue
		}
		if err := p.runSheet(ctx, summary, wb, tab, target.Relation); err != nil {
			p.logger.Error("relation processing failed",
				zap.String("relation", target.Relation),
				zap.Error(err),
			)
			continue
		}
		processed++
	}

	status := StepSucceeded
	if processed == 0 {
		status = StepFailed
	}
	summary.addStep(step, status, fmt.Sprintf("%d/%d relations", processed, len(targets)))
}

// runSheet extracts, normalizes, persists, and loads one matched tab.
func (p *Pipeline) runSheet(ctx context.Context, summary *RunSummary, wb *excelize.File, tab, relation string) error {
	raw, err := extract.SheetTable(wb, tab)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("tab %q is empty", tab)
	}

	table, err := p.norm.SheetTable(relation, raw)
	if err != nil {
		return err
	}
	metrics.ObserveRows(relation, len(table.Rows))

	if err := p.persist(ctx, summary, table, relation+".csv"); err != nil {
		return err
	}
	p.load(ctx, summary, relation, table)
	return nil
}

// download fetches one artifact, preferring the mounted data directory and
// falling back to the local download directory.
func (p *Pipeline) download(ctx context.Context, link, name string, format etl.Format) (etl.RawDocument, error) {
	primary := filepath.Join(p.cfg.Paths.MountDir, name)
	fallback := filepath.Join(p.cfg.Paths.DownloadDir, name)
	doc, err := p.fetcher.Download(ctx, link, primary, fallback, format)
	if err != nil {
		return etl.RawDocument{}, err
	}
	metrics.ObserveDocument(string(format), docSize(doc.LocalPath))
	return doc, nil
}

func docSize(path string) int {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return int(info.Size())
}

// persist writes the failsafe CSV under the processed directory, best-effort
// alternates (such as the seed files tracked in the data repo), and the
// optional bucket mirror.
func (p *Pipeline) persist(ctx context.Context, summary *RunSummary, table *etl.NormalizedTable, name string, alternates ...string) error {
	path := filepath.Join(p.cfg.Paths.ProcessedDir, name)
	if err := p.csv.Write(path, table); err != nil {
		return err
	}
	summary.CSVPaths = append(summary.CSVPaths, path)

	alts := append(append([]string(nil), alternates...), p.cfg.Paths.Alternates...)
	summary.CSVPaths = append(summary.CSVPaths, p.csv.WriteAlternates(alts, table)...)

	if p.mirror != nil {
		data, err := sink.Render(table)
		if err != nil {
			return err
		}
		uri, err := p.mirror.Put(ctx, name, data)
		if err != nil {
			p.logger.Error("mirror upload failed", zap.String("name", name), zap.Error(err))
		} else {
			summary.CSVPaths = append(summary.CSVPaths, uri)
		}
	}
	return nil
}

// load pushes one relation through the warehouse retry policy when a loader
// is configured.
func (p *Pipeline) load(ctx context.Context, summary *RunSummary, relation string, table *etl.NormalizedTable) {
	if p.loader == nil {
		return
	}
	outcome := p.loader.Load(ctx, relation, table)
	metrics.ObserveUpload(string(outcome.Status))
	summary.Uploads = append(summary.Uploads, outcome)
}

// report logs the summary and publishes it when a reporter is configured.
func (p *Pipeline) report(ctx context.Context, summary *RunSummary) {
	p.logger.Info("pipeline run finished",
		zap.String("run_id", summary.RunID),
		zap.Duration("duration", summary.Duration),
		zap.Bool("failed", summary.Failed()),
	)
	p.logger.Info("run report", zap.String("report", summary.String()))

	if p.reporter == nil {
		return
	}
	id, err := p.reporter.Publish(ctx, summary)
	if err != nil {
		p.logger.Error("publish run summary", zap.Error(err))
		return
	}
	p.logger.Info("run summary published", zap.String("message_id", id))
}
