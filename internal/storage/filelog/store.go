// Package filelog хранит журнал проверок в текстовом файле log/[<site>]check_log.txt.
// Файл только дописывается: строки не переписываются и не удаляются.
package filelog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"phc-checker/internal/observability"
	"phc-checker/internal/storage"
)

const maxLineBytes = 1 << 20

type Store struct {
	dir    string
	now    func() time.Time
	logger *observability.Logger
}

func NewStore(dir string, logger *observability.Logger) *Store {
	if dir == "" {
		dir = "log"
	}
	if logger == nil {
		logger = observability.NewNop()
	}
	return &Store{
		dir:    dir,
		now:    time.Now,
		logger: logger,
	}
}

// Path путь к журналу сайта
func (s *Store) Path(site string) string {
	return filepath.Join(s.dir, fmt.Sprintf("[%s]check_log.txt", site))
}

// ReadLatest при отсутствии файла создаёт его со строкой «処理スタート» и возвращает ok == false.
// Иначе возвращает date_tag последней записи о новости.
func (s *Store) ReadLatest(ctx context.Context, site string) (string, bool, error) {
	if err := validateSite(site); err != nil {
		return "", false, err
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", false, fmt.Errorf("failed to create log dir %s: %w", s.dir, err)
	}

	entries, err := s.readEntries(site)
	if errors.Is(err, fs.ErrNotExist) {
		if err := s.initialize(site); err != nil {
			return "", false, err
		}
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	dateTag, ok := storage.Baseline(entries)
	s.logger.Debug("Baseline loaded",
		"site", site,
		"entries", len(entries),
		"has_baseline", ok,
		"date_tag", dateTag,
	)
	return dateTag, ok, nil
}

// Append дописывает строку в конец файла, создавая его при необходимости
func (s *Store) Append(ctx context.Context, site string, entry storage.Entry) error {
	if err := validateSite(site); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	line, err := storage.FormatEntry(entry)
	if err != nil {
		return fmt.Errorf("failed to format log entry: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log dir %s: %w", s.dir, err)
	}

	file, err := os.OpenFile(s.Path(site), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open check log: %w", err)
	}

	if _, err := file.WriteString(line); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to append check log: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close check log: %w", err)
	}

	s.logger.Debug("Check log appended", "site", site, "kind", entry.Kind.String())
	return nil
}

// Entries читает все строки; отсутствующий файл означает пустой журнал
func (s *Store) Entries(ctx context.Context, site string) ([]storage.Entry, error) {
	if err := validateSite(site); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := s.readEntries(site)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return entries, err
}

func (s *Store) initialize(site string) error {
	line, err := storage.FormatEntry(storage.NewInitEntry(s.now()))
	if err != nil {
		return err
	}

	// O_EXCL: журнал, созданный параллельно, не перетираем
	file, err := os.OpenFile(s.Path(site), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create check log: %w", err)
	}

	if _, err := file.WriteString(line); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write init entry: %w", err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close check log: %w", err)
	}

	s.logger.Info("Check log created", "site", site, "path", s.Path(site))
	return nil
}

func (s *Store) readEntries(site string) ([]storage.Entry, error) {
	file, err := os.Open(s.Path(site))
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			s.logger.Warn("Failed to close check log", "error", closeErr.Error())
		}
	}()

	var entries []storage.Entry

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		entry, err := storage.ParseEntry(line)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.Path(site), lineNum, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read check log: %w", err)
	}

	return entries, nil
}

func validateSite(site string) error {
	if site == "" {
		return fmt.Errorf("site name is empty")
	}
	if strings.ContainsAny(site, `/\`) || site == "." || site == ".." {
		return fmt.Errorf("invalid site name: %q", site)
	}
	return nil
}
