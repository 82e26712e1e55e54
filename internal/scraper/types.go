package scraper

import (
	"errors"
	"strings"
)

var (
	// ErrMalformedPage страница не соответствует ожидаемой разметке
	ErrMalformedPage = errors.New("malformed page")
	// ErrEmptyResult на странице нет ни одной новости
	ErrEmptyResult = errors.New("no news items found")
)

// NewsRecord одна новость из листинга
type NewsRecord struct {
	DateTag string
	Title   string
	URL     string
}

// Fields возвращает поля в порядке сравнения и записи в лог
func (r NewsRecord) Fields() []string {
	return []string{r.DateTag, r.Title, r.URL}
}

// Less сравнивает кортежи (date_tag, title, url) как строки
func (r NewsRecord) Less(other NewsRecord) bool {
	if c := strings.Compare(r.DateTag, other.DateTag); c != 0 {
		return c < 0
	}
	if c := strings.Compare(r.Title, other.Title); c != 0 {
		return c < 0
	}
	return r.URL < other.URL
}

type Selectors struct {
	Groups string `yaml:"groups" toml:"groups"`
	Date   string `yaml:"date" toml:"date"`
	Title  string `yaml:"title" toml:"title"`
	Link   string `yaml:"link" toml:"link"`
}
