package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// DefaultPath путь к конфигу, если он не передан явно
const DefaultPath = "configs/config.yaml"

// LoadConfig читает YAML (или TOML по расширению .toml) поверх значений по умолчанию
func LoadConfig(filePath string) (*Config, error) {
	cfg := Default()

	if strings.EqualFold(filepath.Ext(filePath), ".toml") {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else {
		file, err := os.Open(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				// Логируем ошибку, но не возвращаем — иначе перезапишем основную ошибку
				log.Printf("Warning: failed to close config file: %v", closeErr)
			}
		}()

		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if cfg.Site.SelectorsFile != "" {
		selectors, err := cfg.LoadSiteSelectors(filepath.Dir(filePath))
		if err != nil {
			return nil, err
		}
		cfg.Site.Selectors = *selectors
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault как LoadConfig, но отсутствие файла по пути по умолчанию не ошибка
func LoadOrDefault(filePath string) (*Config, error) {
	if filePath == "" {
		filePath = DefaultPath
	}

	if filePath == DefaultPath {
		if _, err := os.Stat(filePath); errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			return cfg, cfg.Validate()
		}
	}

	return LoadConfig(filePath)
}
