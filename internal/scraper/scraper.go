package scraper

import (
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"

	"phc-checker/internal/normalize"
)

type Scraper struct {
	selectors *Selectors
}

func NewScraper(selectors *Selectors) *Scraper {
	return &Scraper{
		selectors: selectors,
	}
}

// ParseListing проходит по группам dl и собирает записи в порядке документа.
// Если в группе нет ожидаемого элемента, разбор прерывается с ErrMalformedPage.
func (s *Scraper) ParseListing(doc *goquery.Document, base *url.URL) ([]NewsRecord, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrMalformedPage)
	}

	var (
		records []NewsRecord
		err     error
	)

	doc.Find(s.selectors.Groups).EachWithBreak(func(i int, group *goquery.Selection) bool {
		var rec NewsRecord
		rec, err = s.parseGroup(i, group, base)
		if err != nil {
			return false
		}
		records = append(records, rec)
		return true
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (s *Scraper) parseGroup(i int, group *goquery.Selection, base *url.URL) (NewsRecord, error) {
	dateSel := group.Find(s.selectors.Date).First()
	if dateSel.Length() == 0 {
		return NewsRecord{}, fmt.Errorf("%w: group %d: no %q element", ErrMalformedPage, i, s.selectors.Date)
	}

	titleSel := group.Find(s.selectors.Title).First()
	if titleSel.Length() == 0 {
		return NewsRecord{}, fmt.Errorf("%w: group %d: no %q element", ErrMalformedPage, i, s.selectors.Title)
	}

	linkSel := group.Find(s.selectors.Link).First()
	if linkSel.Length() == 0 {
		return NewsRecord{}, fmt.Errorf("%w: group %d: no %q element", ErrMalformedPage, i, s.selectors.Link)
	}

	href, exists := linkSel.Attr("href")
	if !exists {
		return NewsRecord{}, fmt.Errorf("%w: group %d: link has no href", ErrMalformedPage, i)
	}

	absURL, err := normalize.ResolveURL(base, href)
	if err != nil {
		return NewsRecord{}, fmt.Errorf("%w: group %d: %v", ErrMalformedPage, i, err)
	}

	rec := NewsRecord{
		DateTag: normalize.DateTag(dateSel.Text()),
		Title:   normalize.Title(titleSel.Text()),
		URL:     absURL,
	}

	if rec.DateTag == "" || rec.Title == "" {
		return NewsRecord{}, fmt.Errorf("%w: group %d: empty date tag or title", ErrMalformedPage, i)
	}

	return rec, nil
}
