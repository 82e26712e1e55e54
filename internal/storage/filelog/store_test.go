package filelog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phc-checker/internal/scraper"
	"phc-checker/internal/storage"
)

var testRecord = scraper.NewsRecord{
	DateTag: "2024.01.10 — News",
	Title:   "TitleA",
	URL:     "https://example.com/a",
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "log"), nil)
	s.now = func() time.Time { return time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local) }
	return s
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestReadLatestCreatesLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	dateTag, ok, err := s.ReadLatest(ctx, "phc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, dateTag)

	assert.Equal(t, filepath.Join(s.dir, "[phc]check_log.txt"), s.Path("phc"))
	assert.Equal(t, []string{"2024-01-15 09:00:00.000000\t処理スタート"}, readLines(t, s.Path("phc")))

	// Повторное чтение не дописывает ещё одну строку инициализации
	_, ok, err = s.ReadLatest(ctx, "phc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, readLines(t, s.Path("phc")), 1)
}

func TestNoChangeDoesNotCreateBaseline(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.ReadLatest(ctx, "phc")
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "phc", storage.NewNoChangeEntry(time.Time{})))

	_, ok, err := s.ReadLatest(ctx, "phc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoChangeKeepsBaseline(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.ReadLatest(ctx, "phc")
	require.NoError(t, err)

	require.NoError(t, s.Append(ctx, "phc", storage.NewRecordEntry(time.Time{}, testRecord)))
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, "phc", storage.NewNoChangeEntry(time.Time{})))
	}

	dateTag, ok, err := s.ReadLatest(ctx, "phc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testRecord.DateTag, dateTag)

	lines := readLines(t, s.Path("phc"))
	require.Len(t, lines, 5)
	assert.Equal(t, "2024-01-15 09:00:00.000000\t2024.01.10 — News\tTitleA\thttps://example.com/a", lines[1])
	assert.Equal(t, "2024-01-15 09:00:00.000000\t更新なし", lines[4])
}

func TestAppendCreatesMissingLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "phc", storage.NewRecordEntry(time.Time{}, testRecord)))

	dateTag, ok, err := s.ReadLatest(ctx, "phc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testRecord.DateTag, dateTag)
}

func TestAppendKeepsExplicitTimestamp(t *testing.T) {
	s := newTestStore(t)
	ts := time.Date(2023, 12, 31, 23, 59, 59, 500000000, time.Local)

	require.NoError(t, s.Append(context.Background(), "phc", storage.NewNoChangeEntry(ts)))
	assert.Equal(t, []string{"2023-12-31 23:59:59.500000\t更新なし"}, readLines(t, s.Path("phc")))
}

func TestReadLatestLegacyLog(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.dir, 0o755))

	// Строки в формате, который писал прежний скрипт
	legacy := "2024-01-01 08:00:00.123456\t処理スタート\n" +
		"2024-01-01 08:00:01.654321\t2023.12.20 — News\tOld\thttps://example.com/old\n" +
		"2024-01-02 08:00:00\t更新なし\n" +
		"\n"
	require.NoError(t, os.WriteFile(s.Path("phc"), []byte(legacy), 0o644))

	dateTag, ok, err := s.ReadLatest(context.Background(), "phc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2023.12.20 — News", dateTag)
}

func TestReadLatestCorruptedLog(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(s.dir, 0o755))
	require.NoError(t, os.WriteFile(s.Path("phc"), []byte("2024-01-01 08:00:00\t処理スタート\nbroken line\n"), 0o644))

	_, _, err := s.ReadLatest(context.Background(), "phc")
	assert.ErrorIs(t, err, storage.ErrLogCorruption)
	assert.Contains(t, err.Error(), "line 2")
}

func TestEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries, err := s.Entries(ctx, "phc")
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, statErr := os.Stat(s.Path("phc"))
	assert.True(t, os.IsNotExist(statErr), "Entries must not create the log")

	_, _, err = s.ReadLatest(ctx, "phc")
	require.NoError(t, err)
	require.NoError(t, s.Append(ctx, "phc", storage.NewRecordEntry(time.Time{}, testRecord)))

	entries, err = s.Entries(ctx, "phc")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, storage.KindInit, entries[0].Kind)
	assert.Equal(t, storage.KindRecord, entries[1].Kind)
}

func TestInvalidSiteName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, site := range []string{"", "..", "a/b", `a\b`} {
		_, _, err := s.ReadLatest(ctx, site)
		assert.Error(t, err, "site %q", site)
		assert.Error(t, s.Append(ctx, site, storage.NewNoChangeEntry(time.Time{})), "site %q", site)
	}
}

func TestCanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.ReadLatest(ctx, "phc")
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(s.dir)
	assert.True(t, os.IsNotExist(statErr))
}
