package scraper

import (
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// SiteAdapter описывает, где лежит листинг сайта и как из него достать новости
type SiteAdapter interface {
	Name() string
	BaseURL() *url.URL
	ListURL() string
	Extract(doc *goquery.Document) ([]NewsRecord, error)
}

const (
	PHCSiteName = "phc"
	PHCBaseURL  = "https://www.phchd.com/jp/"
	PHCListURL  = "https://www.phchd.com/jp/news"
)

// DefaultPHCSelectors разметка страницы новостей PHC
func DefaultPHCSelectors() Selectors {
	return Selectors{
		Groups: "div.news_list dl",
		Date:   "div dt",
		Title:  "div dd",
		Link:   "dd a",
	}
}

// PHCAdapter адаптер для https://www.phchd.com/jp/news
type PHCAdapter struct {
	base    *url.URL
	listURL string
	scraper *Scraper
}

// NewPHCAdapter собирает адаптер; пустые значения заменяются значениями по умолчанию
func NewPHCAdapter(baseURL, listURL string, selectors *Selectors) (*PHCAdapter, error) {
	if baseURL == "" {
		baseURL = PHCBaseURL
	}
	if listURL == "" {
		listURL = PHCListURL
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base URL must be absolute: %q", baseURL)
	}

	sel := DefaultPHCSelectors()
	if selectors != nil {
		sel = mergeSelectors(sel, *selectors)
	}

	return &PHCAdapter{
		base:    base,
		listURL: listURL,
		scraper: NewScraper(&sel),
	}, nil
}

func (a *PHCAdapter) Name() string { return PHCSiteName }

func (a *PHCAdapter) BaseURL() *url.URL { return a.base }

func (a *PHCAdapter) ListURL() string { return a.listURL }

func (a *PHCAdapter) Extract(doc *goquery.Document) ([]NewsRecord, error) {
	return a.scraper.ParseListing(doc, a.base)
}

func mergeSelectors(def, override Selectors) Selectors {
	if override.Groups != "" {
		def.Groups = override.Groups
	}
	if override.Date != "" {
		def.Date = override.Date
	}
	if override.Title != "" {
		def.Title = override.Title
	}
	if override.Link != "" {
		def.Link = override.Link
	}
	return def
}
