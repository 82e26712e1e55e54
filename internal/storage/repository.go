package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"phc-checker/internal/scraper"
)

// ErrLogCorruption строку журнала не удалось разобрать
var ErrLogCorruption = errors.New("check log corrupted")

const (
	InitToken     = "処理スタート"
	NoChangeToken = "更新なし"

	// TimestampLayout формат времени в журнале (локальное время, микросекунды)
	TimestampLayout = "2006-01-02 15:04:05.000000"
)

type Kind int

const (
	KindInit Kind = iota + 1
	KindNoChange
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindNoChange:
		return "no_change"
	case KindRecord:
		return "record"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Entry одна строка журнала проверок
type Entry struct {
	Timestamp time.Time
	Kind      Kind
	Record    scraper.NewsRecord // только для KindRecord
}

func NewInitEntry(ts time.Time) Entry {
	return Entry{Timestamp: ts, Kind: KindInit}
}

func NewNoChangeEntry(ts time.Time) Entry {
	return Entry{Timestamp: ts, Kind: KindNoChange}
}

func NewRecordEntry(ts time.Time, rec scraper.NewsRecord) Entry {
	return Entry{Timestamp: ts, Kind: KindRecord, Record: rec}
}

// Payload часть строки после метки времени
func (e Entry) Payload() (string, error) {
	switch e.Kind {
	case KindInit:
		return InitToken, nil
	case KindNoChange:
		return NoChangeToken, nil
	case KindRecord:
		for _, f := range e.Record.Fields() {
			if f == "" || strings.ContainsAny(f, "\t\n") {
				return "", fmt.Errorf("record field %q cannot be stored", f)
			}
		}
		if e.Record.DateTag == InitToken || e.Record.DateTag == NoChangeToken {
			return "", fmt.Errorf("record date tag collides with sentinel %q", e.Record.DateTag)
		}
		return strings.Join(e.Record.Fields(), "\t"), nil
	default:
		return "", fmt.Errorf("unknown entry kind: %s", e.Kind)
	}
}

// FormatEntry сериализует запись в строку журнала с переводом строки
func FormatEntry(e Entry) (string, error) {
	payload, err := e.Payload()
	if err != nil {
		return "", err
	}
	return e.Timestamp.Format(TimestampLayout) + "\t" + payload + "\n", nil
}

// ParseEntry разбирает одну строку журнала (без перевода строки)
func ParseEntry(line string) (Entry, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < 2 {
		return Entry{}, fmt.Errorf("%w: no discriminator field", ErrLogCorruption)
	}

	// Секунды без дроби тоже принимаются: при разборе дробная часть необязательна
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", fields[0], time.Local)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: bad timestamp %q", ErrLogCorruption, fields[0])
	}

	switch fields[1] {
	case InitToken, NoChangeToken:
		if len(fields) != 2 {
			return Entry{}, fmt.Errorf("%w: sentinel %q with extra fields", ErrLogCorruption, fields[1])
		}
		if fields[1] == InitToken {
			return NewInitEntry(ts), nil
		}
		return NewNoChangeEntry(ts), nil
	}

	if len(fields) != 4 {
		return Entry{}, fmt.Errorf("%w: record has %d fields, want 4", ErrLogCorruption, len(fields))
	}
	rec := scraper.NewsRecord{DateTag: fields[1], Title: fields[2], URL: fields[3]}
	if rec.DateTag == "" || rec.Title == "" || rec.URL == "" {
		return Entry{}, fmt.Errorf("%w: record with empty field", ErrLogCorruption)
	}

	return NewRecordEntry(ts, rec), nil
}

// Baseline возвращает date_tag последней настоящей записи.
// Служебные строки базой не считаются; если записей нет, ok == false.
func Baseline(entries []Entry) (dateTag string, ok bool) {
	for _, e := range entries {
		if e.Kind == KindRecord {
			dateTag = e.Record.DateTag
			ok = true
		}
	}
	return dateTag, ok
}

// CheckLog журнал проверок одного сайта, единственный источник истины
type CheckLog interface {
	// ReadLatest возвращает базовую метку; при первом запуске создаёт журнал
	ReadLatest(ctx context.Context, site string) (dateTag string, ok bool, err error)

	// Append дописывает одну строку в конец журнала
	Append(ctx context.Context, site string, entry Entry) error

	// Entries читает журнал целиком, не создавая его
	Entries(ctx context.Context, site string) ([]Entry, error)
}

// Mirror дополнительная копия журнала (например, в БД)
type Mirror interface {
	Append(ctx context.Context, site string, entry Entry) error
	Close() error
}
