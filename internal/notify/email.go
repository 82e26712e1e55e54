package notify

import (
	"context"
	"fmt"

	gomail "gopkg.in/mail.v2"

	"phc-checker/internal/config"
	"phc-checker/internal/scraper"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Email отправляет письмо о новой записи через SMTP
type Email struct {
	cfg    config.EmailConfig
	site   string
	dialer dialer
}

func NewEmail(cfg config.EmailConfig, site string) *Email {
	return &Email{
		cfg:    cfg,
		site:   site,
		dialer: gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
	}
}

func (e *Email) Notify(ctx context.Context, rec scraper.NewsRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := e.dialer.DialAndSend(e.message(rec)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (e *Email) message(rec scraper.NewsRecord) *gomail.Message {
	from := e.cfg.FromEmail
	if from == "" {
		from = e.cfg.SMTPUser
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", e.cfg.ToEmail)
	m.SetHeader("Subject", fmt.Sprintf("[%s] 更新あり: %s", e.site, rec.Title))
	m.SetBody("text/plain", fmt.Sprintf("%s\n%s\n%s\n", rec.DateTag, rec.Title, rec.URL))
	return m
}
