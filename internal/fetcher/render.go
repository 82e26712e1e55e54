package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"phc-checker/internal/config"
	"phc-checker/internal/observability"
)

// Renderer открывает страницу в headless Chrome для листингов, которые собираются скриптами
type Renderer struct {
	chromePath      string
	pageTimeout     time.Duration
	waitLoadTimeout time.Duration
	logger          *observability.Logger
}

func NewRenderer(cfg *config.Config, logger *observability.Logger) *Renderer {
	return &Renderer{
		chromePath:      cfg.Rod.ChromePath,
		pageTimeout:     cfg.GetRodPageTimeout(),
		waitLoadTimeout: cfg.GetRodWaitLoadTimeout(),
		logger:          logger,
	}
}

// Render возвращает HTML после загрузки страницы
func (r *Renderer) Render(ctx context.Context, urlStr string) (string, error) {
	l := launcher.New().Context(ctx).Headless(true)
	if r.chromePath != "" {
		l = l.Bin(r.chromePath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("%w: launch browser: %v", ErrNetwork, err)
	}
	defer l.Cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return "", fmt.Errorf("%w: connect browser: %v", ErrNetwork, err)
	}
	defer func() {
		if err := browser.Close(); err != nil {
			r.logger.Warn("Failed to close browser", "error", err.Error())
		}
	}()

	start := time.Now()
	page, err := browser.Timeout(r.pageTimeout).Page(proto.TargetCreateTarget{URL: urlStr})
	if err != nil {
		return "", fmt.Errorf("%w: open page %s: %v", ErrNetwork, urlStr, err)
	}

	if err := page.Timeout(r.waitLoadTimeout).WaitLoad(); err != nil {
		return "", fmt.Errorf("%w: wait load %s: %v", ErrNetwork, urlStr, err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("%w: read page html: %v", ErrNetwork, err)
	}

	r.logger.Debug("Page rendered",
		"url", urlStr,
		"bytes", len(html),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return html, nil
}
