package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"phc-checker/internal/scraper"
)

// LoadSelectors загружает селекторы из YAML файла
func LoadSelectors(filePath string) (*scraper.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	// Проверяем существование файла
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("selectors file not found: %s: %w", filePath, err)
	}

	// Открываем файл
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	// Парсим YAML
	var selectors scraper.Selectors
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	// Валидируем селекторы
	if err := validateSelectors(&selectors); err != nil {
		return nil, err
	}

	return &selectors, nil
}

// LoadSiteSelectors загружает site.selectors_file; относительный путь берётся от каталога конфига
func (c *Config) LoadSiteSelectors(configDir string) (*scraper.Selectors, error) {
	filePath := c.Site.SelectorsFile

	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(configDir, filePath)
	}

	return LoadSelectors(filePath)
}

// validateSelectors проверяет минимальный набор селекторов
func validateSelectors(s *scraper.Selectors) error {
	if s.Groups == "" {
		return fmt.Errorf("groups selector is required")
	}
	if s.Date == "" {
		return fmt.Errorf("date selector is required")
	}
	if s.Title == "" {
		return fmt.Errorf("title selector is required")
	}
	if s.Link == "" {
		return fmt.Errorf("link selector is required")
	}

	return nil
}
