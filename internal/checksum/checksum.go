package checksum

import (
	"crypto/sha256"
	"fmt"

	"phc-checker/internal/scraper"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// RecordHash генерирует SHA256 хеш записи
// Формула: SHA256(url|title|date_tag)
func (g *Generator) RecordHash(rec scraper.NewsRecord) string {
	content := fmt.Sprintf("%s|%s|%s", rec.URL, rec.Title, rec.DateTag)

	hash := sha256.Sum256([]byte(content))

	return fmt.Sprintf("%x", hash)
}

// VerifyRecordHash проверяет соответствие хеша
func (g *Generator) VerifyRecordHash(expectedHash string, rec scraper.NewsRecord) bool {
	return g.RecordHash(rec) == expectedHash
}
