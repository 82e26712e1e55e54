package fetcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"phc-checker/internal/config"
	"phc-checker/internal/observability"
)

var (
	// ErrNetwork запрос не выполнен или сервер ответил не 2xx
	ErrNetwork = errors.New("network error")
	// ErrDecode тело ответа не является корректным UTF-8
	ErrDecode = errors.New("decode error")
)

type Fetcher struct {
	client   *http.Client
	cfg      *config.Config
	logger   *observability.Logger
	renderer *Renderer
}

type FetchResponse struct {
	StatusCode int
	Body       []byte
	URL        string
	Headers    http.Header
}

// NewFetcher без ретраев; таймаут 0 означает дефолт http.Client (без ограничения)
func NewFetcher(cfg *config.Config, logger *observability.Logger) *Fetcher {
	if logger == nil {
		logger = observability.NewNop()
	}

	client := &http.Client{
		Timeout: cfg.GetTotalTimeout(),
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			MaxIdleConns:    10,
			IdleConnTimeout: 90 * time.Second,
		},
	}

	f := &Fetcher{
		client: client,
		cfg:    cfg,
		logger: logger,
	}

	if cfg.Rod.Enabled {
		f.renderer = NewRenderer(cfg, logger)
	}

	return f
}

// FetchDocument загружает страницу и разбирает её в goquery-документ
func (f *Fetcher) FetchDocument(ctx context.Context, urlStr string) (*goquery.Document, error) {
	var body []byte

	if f.renderer != nil {
		html, err := f.renderer.Render(ctx, urlStr)
		if err != nil {
			return nil, err
		}
		body = []byte(html)
	} else {
		resp, err := f.Fetch(ctx, urlStr)
		if err != nil {
			return nil, err
		}
		body = resp.Body
	}

	return ParseDocument(body)
}

// ParseDocument проверяет кодировку и строит дерево
func ParseDocument(body []byte) (*goquery.Document, error) {
	if !utf8.Valid(body) {
		return nil, fmt.Errorf("%w: response body is not valid UTF-8", ErrDecode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse HTML: %v", ErrDecode, err)
	}

	return doc, nil
}

// Fetch выполняет один GET. Повторов нет: ошибка уходит вызывающему.
func (f *Fetcher) Fetch(ctx context.Context, urlStr string) (*FetchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid request: %v", ErrNetwork, err)
	}

	req.Header.Set("User-Agent", f.cfg.HTTP.UserAgent)
	if f.cfg.HTTP.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", f.cfg.HTTP.AcceptLanguage)
	}
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrNetwork, urlStr, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Warn("Failed to close response body", "error", err.Error())
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: GET %s: unexpected status %d", ErrNetwork, urlStr, resp.StatusCode)
	}

	reader := resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %v", ErrNetwork, err)
		}
		defer func() { _ = gzipReader.Close() }()
		reader = gzipReader
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	f.logger.Debug("Page fetched",
		"url", urlStr,
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"content_encoding", resp.Header.Get("Content-Encoding"),
		"bytes", len(body),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return &FetchResponse{
		StatusCode: resp.StatusCode,
		Body:       body,
		URL:        resp.Request.URL.String(),
		Headers:    resp.Header,
	}, nil
}
