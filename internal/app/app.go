package app

import (
	"fmt"
	"io"

	"phc-checker/internal/config"
	"phc-checker/internal/fetcher"
	"phc-checker/internal/notify"
	"phc-checker/internal/observability"
	"phc-checker/internal/scraper"
	"phc-checker/internal/storage"
	"phc-checker/internal/storage/filelog"
	"phc-checker/internal/storage/mssql"
)

// siteAdapters один конструктор на отслеживаемый сайт
var siteAdapters = map[string]func(site config.SiteConfig) (scraper.SiteAdapter, error){
	scraper.PHCSiteName: func(site config.SiteConfig) (scraper.SiteAdapter, error) {
		return scraper.NewPHCAdapter(site.BaseURL, site.ListURL, &site.Selectors)
	},
}

// NewSiteAdapter ищет адаптер по site.name
func NewSiteAdapter(site config.SiteConfig) (scraper.SiteAdapter, error) {
	build, ok := siteAdapters[site.Name]
	if !ok {
		return nil, fmt.Errorf("unsupported site: %s", site.Name)
	}
	return build(site)
}

// Build собирает оркестратор из конфига; cleanup закрывает внешние ресурсы
func Build(cfg *config.Config, logger *observability.Logger, out io.Writer) (*Orchestrator, func(), error) {
	if logger == nil {
		logger = observability.NewNop()
	}

	adapter, err := NewSiteAdapter(cfg.Site)
	if err != nil {
		return nil, nil, err
	}

	selector, err := scraper.NewSelector(cfg.Site.Ordering, scraper.NewDateParser(nil))
	if err != nil {
		return nil, nil, err
	}

	var mirror storage.Mirror
	cleanup := func() {}
	if cfg.Storage.Driver == "mssql" {
		repo, err := mssql.NewRepository(cfg.Storage.DSN, cfg.Storage.CommandTimeoutMS, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init mirror storage: %w", err)
		}
		mirror = repo
		cleanup = func() {
			if err := repo.Close(); err != nil {
				logger.Warn("Failed to close mirror storage", "error", err.Error())
			}
		}
	}

	var notifiers []notify.Notifier
	if cfg.Notify.Browser {
		notifiers = append(notifiers, notify.NewBrowser())
	}
	if cfg.Notify.Email.Enabled {
		notifiers = append(notifiers, notify.NewEmail(cfg.Notify.Email, adapter.Name()))
	}
	notifier := notify.NewMulti(logger, notifiers...)

	logger.Debug("Checker assembled",
		"site", adapter.Name(),
		"ordering", cfg.Site.Ordering,
		"rendered", cfg.Rod.Enabled,
		"mirror", cfg.Storage.Driver,
		"notifiers", notifier.Len(),
	)

	o := NewOrchestrator(
		logger,
		fetcher.NewFetcher(cfg, logger),
		adapter,
		selector,
		filelog.NewStore(cfg.CheckLog.Dir, logger),
		mirror,
		notifier,
		NewConsole(out),
	)

	return o, cleanup, nil
}
