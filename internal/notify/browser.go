package notify

import (
	"context"

	"github.com/go-rod/rod/lib/launcher"

	"phc-checker/internal/scraper"
)

// Browser открывает статью в браузере по умолчанию
type Browser struct {
	open func(url string)
}

func NewBrowser() *Browser {
	return &Browser{open: launcher.Open}
}

func (b *Browser) Notify(ctx context.Context, rec scraper.NewsRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.open(rec.URL)
	return nil
}
