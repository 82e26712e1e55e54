package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phc-checker/internal/config"
	"phc-checker/internal/fetcher"
	"phc-checker/internal/scraper"
	"phc-checker/internal/storage"
	"phc-checker/internal/storage/filelog"
)

const testBase = "https://example.com/jp/"

func listing(groups ...string) string {
	return `<html><body><div class="news_list">` + strings.Join(groups, "") + `</div></body></html>`
}

func group(dateTag, title, href string) string {
	return fmt.Sprintf(`<dl><div><dt>%s</dt></div><div><dd><a href="%s">%s</a></dd></div></dl>`, dateTag, href, title)
}

var twoItems = listing(
	group("2024.03.01 — News", "Title B", "/b"),
	group("2024.01.10 — News", "Title A", "/a"),
)

type fakeFetcher struct {
	html  string
	err   error
	calls int
}

func (f *fakeFetcher) FetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(f.html))
}

type recordingNotifier struct {
	opened []string
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, rec scraper.NewsRecord) error {
	n.opened = append(n.opened, rec.URL)
	return n.err
}

type fakeMirror struct {
	entries []storage.Entry
	err     error
}

func (m *fakeMirror) Append(ctx context.Context, site string, entry storage.Entry) error {
	m.entries = append(m.entries, entry)
	return m.err
}

func (m *fakeMirror) Close() error { return nil }

type harness struct {
	orch     *Orchestrator
	fetcher  *fakeFetcher
	notifier *recordingNotifier
	mirror   *fakeMirror
	store    *filelog.Store
	out      *bytes.Buffer
}

func newHarness(t *testing.T, html string) *harness {
	t.Helper()

	adapter, err := scraper.NewPHCAdapter(testBase, testBase+"news", nil)
	require.NoError(t, err)

	h := &harness{
		fetcher:  &fakeFetcher{html: html},
		notifier: &recordingNotifier{},
		mirror:   &fakeMirror{},
		store:    filelog.NewStore(filepath.Join(t.TempDir(), "log"), nil),
		out:      &bytes.Buffer{},
	}
	h.orch = NewOrchestrator(nil, h.fetcher, adapter, scraper.LexicographicSelector{},
		h.store, h.mirror, h.notifier, NewConsole(h.out))
	return h
}

func (h *harness) entries(t *testing.T) []storage.Entry {
	t.Helper()
	entries, err := h.store.Entries(context.Background(), "phc")
	require.NoError(t, err)
	return entries
}

func (h *harness) seed(t *testing.T, rec scraper.NewsRecord) {
	t.Helper()
	ctx := context.Background()
	_, _, err := h.store.ReadLatest(ctx, "phc")
	require.NoError(t, err)
	require.NoError(t, h.store.Append(ctx, "phc", storage.NewRecordEntry(time.Now(), rec)))
}

func appendRaw(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}

func kinds(entries []storage.Entry) []storage.Kind {
	out := make([]storage.Kind, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Kind)
	}
	return out
}

func TestRunFirstRun(t *testing.T) {
	h := newHarness(t, twoItems)

	outcome, err := h.orch.Run(context.Background())
	require.NoError(t, err)

	expected := scraper.NewsRecord{
		DateTag: "2024.01.10 — News",
		Title:   "TitleA",
		URL:     "https://example.com/a",
	}
	assert.True(t, outcome.Changed)
	assert.False(t, outcome.HasBaseline)
	assert.Equal(t, expected, outcome.Latest)
	assert.Equal(t, []string{"https://example.com/a"}, h.notifier.opened)

	entries := h.entries(t)
	assert.Equal(t, []storage.Kind{storage.KindInit, storage.KindRecord}, kinds(entries))
	assert.Equal(t, expected, entries[1].Record)

	require.Len(t, h.mirror.entries, 1)
	assert.Equal(t, storage.KindRecord, h.mirror.entries[0].Kind)

	assert.Contains(t, h.out.String(), "【最新投稿日】ログなし")
	assert.Contains(t, h.out.String(), "更新あり")
	assert.Contains(t, h.out.String(), "https://example.com/a")
}

func TestRunNoChange(t *testing.T) {
	h := newHarness(t, twoItems)
	h.seed(t, scraper.NewsRecord{DateTag: "2024.01.10 — News", Title: "TitleA", URL: "https://example.com/a"})

	outcome, err := h.orch.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, outcome.Changed)
	assert.Equal(t, "2024.01.10 — News", outcome.Baseline)
	assert.Empty(t, h.notifier.opened)
	assert.Equal(t, []storage.Kind{storage.KindInit, storage.KindRecord, storage.KindNoChange}, kinds(h.entries(t)))
	assert.Contains(t, h.out.String(), "【最新投稿日】2024.01.10 — News\n更新なし\n")
}

func TestRunTwiceUnchangedIsIdempotent(t *testing.T) {
	h := newHarness(t, twoItems)
	h.seed(t, scraper.NewsRecord{DateTag: "2024.01.10 — News", Title: "TitleA", URL: "https://example.com/a"})
	before := len(h.entries(t))

	for i := 0; i < 2; i++ {
		_, err := h.orch.Run(context.Background())
		require.NoError(t, err)
	}

	entries := h.entries(t)
	require.Len(t, entries, before+2)
	assert.Equal(t, storage.KindNoChange, entries[before].Kind)
	assert.Equal(t, storage.KindNoChange, entries[before+1].Kind)
	assert.Empty(t, h.notifier.opened)
}

func TestRunDetectsNewItem(t *testing.T) {
	h := newHarness(t, twoItems)
	h.seed(t, scraper.NewsRecord{DateTag: "2023.12.20 — News", Title: "Old", URL: "https://example.com/old"})

	outcome, err := h.orch.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, outcome.Changed)
	assert.Equal(t, "2023.12.20 — News", outcome.Baseline)
	assert.Equal(t, []string{"https://example.com/a"}, h.notifier.opened)

	dateTag, ok, err := h.store.ReadLatest(context.Background(), "phc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2024.01.10 — News", dateTag)
}

func TestRunAfterOnlyNoChangeEntries(t *testing.T) {
	h := newHarness(t, twoItems)
	ctx := context.Background()
	_, _, err := h.store.ReadLatest(ctx, "phc")
	require.NoError(t, err)
	require.NoError(t, h.store.Append(ctx, "phc", storage.NewNoChangeEntry(time.Now())))

	outcome, err := h.orch.Run(ctx)
	require.NoError(t, err)
	assert.False(t, outcome.HasBaseline)
	assert.True(t, outcome.Changed)
}

func TestRunFailuresLeaveLogUntouched(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		fetchEr error
		wantErr error
	}{
		{"malformed group", listing(
			group("2024.03.01 — News", "Title B", "/b"),
			`<dl><div><dt>2024.01.10 — News</dt></div><div><dd>no link</dd></div></dl>`,
		), nil, scraper.ErrMalformedPage},
		{"empty listing", listing(), nil, scraper.ErrEmptyResult},
		{"network", "", fmt.Errorf("%w: GET: connection reset", fetcher.ErrNetwork), fetcher.ErrNetwork},
		{"decode", "", fmt.Errorf("%w: bad bytes", fetcher.ErrDecode), fetcher.ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/first run", func(t *testing.T) {
			h := newHarness(t, tt.html)
			h.fetcher.err = tt.fetchEr

			_, err := h.orch.Run(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)

			// Остаётся только строка инициализации
			assert.Equal(t, []storage.Kind{storage.KindInit}, kinds(h.entries(t)))
			assert.Empty(t, h.notifier.opened)
			assert.Empty(t, h.mirror.entries)
		})

		t.Run(tt.name+"/existing log", func(t *testing.T) {
			h := newHarness(t, tt.html)
			h.fetcher.err = tt.fetchEr
			h.seed(t, scraper.NewsRecord{DateTag: "2023.12.20 — News", Title: "Old", URL: "https://example.com/old"})
			before := h.entries(t)

			_, err := h.orch.Run(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, h.entries(t))
		})
	}
}

func TestRunCorruptedLogAbortsBeforeFetch(t *testing.T) {
	h := newHarness(t, twoItems)
	h.seed(t, scraper.NewsRecord{DateTag: "2023.12.20 — News", Title: "Old", URL: "https://example.com/old"})
	// Запись без заголовка и URL даёт битую строку
	require.NoError(t, appendRaw(h.store.Path("phc"), "2024-01-01 00:00:00\tbroken\n"))

	_, err := h.orch.Run(context.Background())
	assert.ErrorIs(t, err, storage.ErrLogCorruption)
	assert.Equal(t, 0, h.fetcher.calls)
}

func TestRunNotifierAndMirrorErrorsAreNotFatal(t *testing.T) {
	h := newHarness(t, twoItems)
	h.notifier.err = errors.New("smtp down")
	h.mirror.err = errors.New("db down")

	outcome, err := h.orch.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Changed)
	assert.Equal(t, []storage.Kind{storage.KindInit, storage.KindRecord}, kinds(h.entries(t)))
}

func TestNewSiteAdapter(t *testing.T) {
	cfg := config.Default()

	adapter, err := NewSiteAdapter(cfg.Site)
	require.NoError(t, err)
	assert.Equal(t, "phc", adapter.Name())
	assert.Equal(t, scraper.PHCListURL, adapter.ListURL())

	cfg.Site.Name = "other"
	_, err = NewSiteAdapter(cfg.Site)
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	cfg := config.Default()
	cfg.CheckLog.Dir = filepath.Join(t.TempDir(), "log")
	cfg.Notify.Email.Enabled = true

	o, cleanup, err := Build(cfg, nil, &bytes.Buffer{})
	require.NoError(t, err)
	defer cleanup()

	assert.Nil(t, o.mirror)
	assert.IsType(t, &filelog.Store{}, o.checkLog)
	assert.IsType(t, scraper.LexicographicSelector{}, o.selector)

	cfg.Site.Ordering = "bogus"
	_, _, err = Build(cfg, nil, &bytes.Buffer{})
	assert.Error(t, err)
}
