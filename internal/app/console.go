package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"phc-checker/internal/scraper"
	"phc-checker/internal/storage"
)

const (
	historyKindWidth  = 20
	historyTitleWidth = 40
)

// Console печатает статус проверки для человека
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Baseline(dateTag string, ok bool) {
	if !ok {
		dateTag = "ログなし"
	}
	c.printf("【最新投稿日】%s\n", dateTag)
}

func (c *Console) NoChange() {
	c.printf("%s\n", storage.NoChangeToken)
}

func (c *Console) Changed(rec scraper.NewsRecord) {
	c.printf("更新あり\n%s\n%s\n%s\n", rec.DateTag, rec.Title, rec.URL)
}

// History печатает последние limit строк журнала таблицей (limit <= 0 — все)
func (c *Console) History(entries []storage.Entry, limit int) {
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	c.printf("%s  %s  %s  %s\n",
		pad("TIME", len(storage.TimestampLayout)),
		pad("DATE/TAG", historyKindWidth),
		pad("TITLE", historyTitleWidth),
		"URL",
	)
	c.printf("%s\n", strings.Repeat("-", len(storage.TimestampLayout)+historyKindWidth+historyTitleWidth+12))

	for _, e := range entries {
		first, title, url := e.Kind.String(), "", ""
		switch e.Kind {
		case storage.KindInit:
			first = storage.InitToken
		case storage.KindNoChange:
			first = storage.NoChangeToken
		case storage.KindRecord:
			first, title, url = e.Record.DateTag, e.Record.Title, e.Record.URL
		}

		c.printf("%s  %s  %s  %s\n",
			e.Timestamp.Format(storage.TimestampLayout),
			pad(first, historyKindWidth),
			pad(title, historyTitleWidth),
			url,
		)
	}
}

// pad обрезает и дополняет строку по ширине на экране (CJK занимает две колонки)
func pad(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

func (c *Console) printf(format string, args ...interface{}) {
	if c == nil || c.w == nil {
		return
	}
	_, _ = fmt.Fprintf(c.w, format, args...)
}
