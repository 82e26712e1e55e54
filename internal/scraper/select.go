package scraper

import (
	"fmt"
	"time"
)

const (
	OrderingLexicographic = "lexicographic"
	OrderingNewest        = "newest"
)

// Selector выбирает «последнюю» новость из листинга
type Selector interface {
	SelectLatest(records []NewsRecord) (NewsRecord, error)
}

// NewSelector возвращает стратегию по имени из конфига
func NewSelector(ordering string, dp *DateParser) (Selector, error) {
	switch ordering {
	case "", OrderingLexicographic:
		return LexicographicSelector{}, nil
	case OrderingNewest:
		if dp == nil {
			dp = NewDateParser(nil)
		}
		return &NewestSelector{parser: dp}, nil
	default:
		return nil, fmt.Errorf("unknown ordering: %s", ordering)
	}
}

// LexicographicSelector берёт запись с наименьшим кортежем (date_tag, title, url).
// Работает, только пока формат метки сайта сортируется так же, как время.
type LexicographicSelector struct{}

func (LexicographicSelector) SelectLatest(records []NewsRecord) (NewsRecord, error) {
	return SelectLatest(records)
}

// SelectLatest правило выбора по умолчанию
func SelectLatest(records []NewsRecord) (NewsRecord, error) {
	if len(records) == 0 {
		return NewsRecord{}, ErrEmptyResult
	}

	latest := records[0]
	for _, rec := range records[1:] {
		if rec.Less(latest) {
			latest = rec
		}
	}
	return latest, nil
}

// NewestSelector разбирает дату из метки и берёт самую свежую.
// При равных датах порядок лексикографический.
type NewestSelector struct {
	parser *DateParser
}

func (s *NewestSelector) SelectLatest(records []NewsRecord) (NewsRecord, error) {
	if len(records) == 0 {
		return NewsRecord{}, ErrEmptyResult
	}

	var (
		latest     NewsRecord
		latestDate time.Time
	)

	for i, rec := range records {
		date, err := s.parser.Parse(rec.DateTag)
		if err != nil {
			return NewsRecord{}, fmt.Errorf("record %d: %w", i, err)
		}

		if i == 0 || date.After(latestDate) || (date.Equal(latestDate) && rec.Less(latest)) {
			latest = rec
			latestDate = date
		}
	}

	return latest, nil
}
