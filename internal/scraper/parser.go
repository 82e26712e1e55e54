package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseableDate в метке не нашлась дата известного формата
var ErrUnparseableDate = fmt.Errorf("%w: unparseable date tag", ErrMalformedPage)

var (
	// Форматы: "2024.01.15", "2024/1/15", "2024-01-15"
	numericDateRe = regexp.MustCompile(`^(\d{4})[./-](\d{1,2})[./-](\d{1,2})`)
	// Формат: "2024年1月15日"
	kanjiDateRe = regexp.MustCompile(`^(\d{4})年\s*(\d{1,2})月\s*(\d{1,2})日`)
)

type DateParser struct {
	loc *time.Location
}

func NewDateParser(loc *time.Location) *DateParser {
	if loc == nil {
		loc = time.Local
	}
	return &DateParser{loc: loc}
}

// Parse достаёт дату из начала метки "дата + категория"
func (dp *DateParser) Parse(dateTag string) (time.Time, error) {
	s := strings.TrimSpace(dateTag)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date tag", ErrUnparseableDate)
	}

	matches := numericDateRe.FindStringSubmatch(s)
	if matches == nil {
		matches = kanjiDateRe.FindStringSubmatch(s)
	}
	if matches == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, dateTag)
	}

	year, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid year %q", ErrUnparseableDate, matches[1])
	}
	month, err := strconv.Atoi(matches[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid month %q", ErrUnparseableDate, matches[2])
	}
	day, err := strconv.Atoi(matches[3])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid day %q", ErrUnparseableDate, matches[3])
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: invalid month %d", ErrUnparseableDate, month)
	}
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: invalid day %d", ErrUnparseableDate, day)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, dp.loc)
	// time.Date нормализует 31.02 в март
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: no such day %q", ErrUnparseableDate, matches[0])
	}

	return t, nil
}

