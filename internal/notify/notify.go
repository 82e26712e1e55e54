// Package notify сообщает пользователю о новой новости.
package notify

import (
	"context"
	"errors"

	"phc-checker/internal/observability"
	"phc-checker/internal/scraper"
)

type Notifier interface {
	Notify(ctx context.Context, rec scraper.NewsRecord) error
}

// Multi вызывает всех получателей по порядку и собирает ошибки
type Multi struct {
	notifiers []Notifier
	logger    *observability.Logger
}

func NewMulti(logger *observability.Logger, notifiers ...Notifier) *Multi {
	if logger == nil {
		logger = observability.NewNop()
	}
	return &Multi{notifiers: notifiers, logger: logger}
}

func (m *Multi) Notify(ctx context.Context, rec scraper.NewsRecord) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, rec); err != nil {
			m.logger.Warn("Notification failed", "url", rec.URL, "error", err.Error())
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len количество получателей
func (m *Multi) Len() int {
	return len(m.notifiers)
}
