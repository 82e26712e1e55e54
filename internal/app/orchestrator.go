package app

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"phc-checker/internal/notify"
	"phc-checker/internal/observability"
	"phc-checker/internal/scraper"
	"phc-checker/internal/storage"
)

// DocumentFetcher загружает листинг и отдаёт разобранный документ
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, url string) (*goquery.Document, error)
}

type Orchestrator struct {
	logger   *observability.Logger
	fetcher  DocumentFetcher
	adapter  scraper.SiteAdapter
	selector scraper.Selector
	checkLog storage.CheckLog
	mirror   storage.Mirror
	notifier notify.Notifier
	console  *Console
	now      func() time.Time
}

func NewOrchestrator(
	logger *observability.Logger,
	f DocumentFetcher,
	adapter scraper.SiteAdapter,
	selector scraper.Selector,
	checkLog storage.CheckLog,
	mirror storage.Mirror,
	notifier notify.Notifier,
	console *Console,
) *Orchestrator {
	if logger == nil {
		logger = observability.NewNop()
	}
	return &Orchestrator{
		logger:   logger,
		fetcher:  f,
		adapter:  adapter,
		selector: selector,
		checkLog: checkLog,
		mirror:   mirror,
		notifier: notifier,
		console:  console,
		now:      time.Now,
	}
}

// Outcome итог одной проверки
type Outcome struct {
	Site        string
	Baseline    string
	HasBaseline bool
	Latest      scraper.NewsRecord
	Changed     bool
}

// Run выполняет одну проверку сайта.
// Ошибка загрузки или разбора прерывает запуск до записи в журнал.
func (o *Orchestrator) Run(ctx context.Context) (*Outcome, error) {
	site := o.adapter.Name()
	logger := o.logger.With("run_id", uuid.NewString(), "site", site)
	start := time.Now()

	// Базовая метка из журнала (при первом запуске журнал создаётся)
	baseline, hasBaseline, err := o.checkLog.ReadLatest(ctx, site)
	if err != nil {
		logger.Error("Failed to load baseline", "error", err.Error())
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	o.console.Baseline(baseline, hasBaseline)

	logger.Info("Starting check",
		"list_url", o.adapter.ListURL(),
		"has_baseline", hasBaseline,
		"baseline", baseline,
	)

	latest, err := o.fetchLatest(ctx, logger)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		Site:        site,
		Baseline:    baseline,
		HasBaseline: hasBaseline,
		Latest:      latest,
		Changed:     !hasBaseline || baseline != latest.DateTag,
	}

	var entry storage.Entry
	if outcome.Changed {
		o.console.Changed(latest)

		if o.notifier != nil {
			if err := o.notifier.Notify(ctx, latest); err != nil {
				logger.Warn("Notification failed", "url", latest.URL, "error", err.Error())
			}
		}
		entry = storage.NewRecordEntry(o.now(), latest)
	} else {
		o.console.NoChange()
		entry = storage.NewNoChangeEntry(o.now())
	}

	if err := o.checkLog.Append(ctx, site, entry); err != nil {
		logger.Error("Failed to append check log", "error", err.Error())
		return nil, fmt.Errorf("append check log: %w", err)
	}

	if o.mirror != nil {
		if err := o.mirror.Append(ctx, site, entry); err != nil {
			logger.Warn("Mirror append failed", "error", err.Error())
		}
	}

	logger.Info("Check finished",
		"changed", outcome.Changed,
		"date_tag", latest.DateTag,
		"url", latest.URL,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return outcome, nil
}

func (o *Orchestrator) fetchLatest(ctx context.Context, logger *observability.Logger) (scraper.NewsRecord, error) {
	doc, err := o.fetcher.FetchDocument(ctx, o.adapter.ListURL())
	if err != nil {
		logger.Error("Fetch failed", "url", o.adapter.ListURL(), "error", err.Error())
		return scraper.NewsRecord{}, fmt.Errorf("fetch listing: %w", err)
	}

	records, err := o.adapter.Extract(doc)
	if err != nil {
		logger.Error("Parse listing failed", "error", err.Error())
		return scraper.NewsRecord{}, fmt.Errorf("extract news: %w", err)
	}

	logger.Debug("Listing parsed", "records", len(records))

	latest, err := o.selector.SelectLatest(records)
	if err != nil {
		logger.Error("Select latest failed", "records", len(records), "error", err.Error())
		return scraper.NewsRecord{}, fmt.Errorf("select latest: %w", err)
	}

	return latest, nil
}
