package normalize

import (
	"fmt"
	"net/url"
	"strings"
)

var (
	// Переводы строк и табуляция внутри dt/dd
	lineBreaks = strings.NewReplacer("\r", "", "\n", "", "\t", "")

	// Для заголовков дополнительно убираем все виды пробелов
	titleSpaces = strings.NewReplacer(
		"\r", "",
		"\n", "",
		"\t", "",
		" ", "",
		"\u00a0", "",
		"\u3000", "",
	)
)

// DateTag убирает переводы строк и табуляцию, пробелы внутри метки сохраняются
func DateTag(raw string) string {
	return lineBreaks.Replace(raw)
}

// Title убирает переводы строк, табуляцию и пробелы
func Title(raw string) string {
	return titleSpaces.Replace(raw)
}

// ResolveURL превращает href в абсолютный URL относительно base
func ResolveURL(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty href")
	}
	if base == nil || !base.IsAbs() {
		return "", fmt.Errorf("base URL must be absolute")
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}

	return base.ResolveReference(ref).String(), nil
}
