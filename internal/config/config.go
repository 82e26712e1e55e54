package config

import (
	"fmt"
	"net/url"
	"time"

	"phc-checker/internal/scraper"
)

type Config struct {
	Site          SiteConfig          `yaml:"site" toml:"site"`
	HTTP          HttpConfig          `yaml:"http" toml:"http"`
	Rod           RodConfig           `yaml:"rod" toml:"rod"`
	CheckLog      CheckLogConfig      `yaml:"check_log" toml:"check_log"`
	Storage       StorageConfig       `yaml:"storage" toml:"storage"`
	Notify        NotifyConfig        `yaml:"notify" toml:"notify"`
	Observability ObservabilityConfig `yaml:"observability" toml:"observability"`
}

type SiteConfig struct {
	Name          string            `yaml:"name" toml:"name"`
	BaseURL       string            `yaml:"base_url" toml:"base_url"`
	ListURL       string            `yaml:"list_url" toml:"list_url"`
	Ordering      string            `yaml:"ordering" toml:"ordering"`
	Selectors     scraper.Selectors `yaml:"selectors" toml:"selectors"`
	SelectorsFile string            `yaml:"selectors_file" toml:"selectors_file"`
}

type HttpConfig struct {
	UserAgent      string `yaml:"user_agent" toml:"user_agent"`
	TotalTimeoutMS int    `yaml:"total_timeout_ms" toml:"total_timeout_ms"`
	AcceptLanguage string `yaml:"accept_language" toml:"accept_language"`
}

type RodConfig struct {
	Enabled          bool   `yaml:"enabled" toml:"enabled"`
	ChromePath       string `yaml:"chrome_path" toml:"chrome_path"`
	PageTimeoutS     int    `yaml:"page_timeout_s" toml:"page_timeout_s"`
	WaitLoadTimeoutS int    `yaml:"wait_load_timeout_s" toml:"wait_load_timeout_s"`
}

type CheckLogConfig struct {
	Dir string `yaml:"dir" toml:"dir"`
}

type StorageConfig struct {
	Driver           string `yaml:"driver" toml:"driver"`
	DSN              string `yaml:"dsn" toml:"dsn"`
	CommandTimeoutMS int    `yaml:"command_timeout_ms" toml:"command_timeout_ms"`
}

type NotifyConfig struct {
	Browser bool        `yaml:"browser" toml:"browser"`
	Email   EmailConfig `yaml:"email" toml:"email"`
}

type EmailConfig struct {
	Enabled    bool   `yaml:"enabled" toml:"enabled"`
	SMTPServer string `yaml:"smtp_server" toml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port" toml:"smtp_port"`
	SMTPUser   string `yaml:"smtp_user" toml:"smtp_user"`
	SMTPPass   string `yaml:"smtp_pass" toml:"smtp_pass"`
	FromEmail  string `yaml:"from_email" toml:"from_email"`
	ToEmail    string `yaml:"to_email" toml:"to_email"`
}

type ObservabilityConfig struct {
	LogPath    string `yaml:"log_path" toml:"log_path"`
	LogLevel   string `yaml:"log_level" toml:"log_level"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
}

// Default конфиг для запуска без файла; совпадает с configs/config.yaml
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Name:      scraper.PHCSiteName,
			BaseURL:   scraper.PHCBaseURL,
			ListURL:   scraper.PHCListURL,
			Ordering:  scraper.OrderingLexicographic,
			Selectors: scraper.DefaultPHCSelectors(),
		},
		HTTP: HttpConfig{
			UserAgent:      "phc-checker/1.0",
			AcceptLanguage: "ja,en;q=0.8",
		},
		Rod: RodConfig{
			PageTimeoutS:     30,
			WaitLoadTimeoutS: 15,
		},
		CheckLog: CheckLogConfig{
			Dir: "log",
		},
		Storage: StorageConfig{
			CommandTimeoutMS: 5000,
		},
		Notify: NotifyConfig{
			Browser: true,
			Email: EmailConfig{
				SMTPPort: 587,
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:   "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 30,
		},
	}
}

// Validation
func (c *Config) Validate() error {
	if c.Site.Name == "" {
		return fmt.Errorf("site.name is required")
	}
	if err := validateAbsURL("site.base_url", c.Site.BaseURL); err != nil {
		return err
	}
	if err := validateAbsURL("site.list_url", c.Site.ListURL); err != nil {
		return err
	}
	if c.Site.Ordering != scraper.OrderingLexicographic && c.Site.Ordering != scraper.OrderingNewest {
		return fmt.Errorf("site.ordering must be '%s' or '%s'", scraper.OrderingLexicographic, scraper.OrderingNewest)
	}
	if c.HTTP.UserAgent == "" {
		return fmt.Errorf("http.user_agent is required")
	}
	if c.HTTP.TotalTimeoutMS < 0 {
		return fmt.Errorf("http.total_timeout_ms must be >= 0")
	}
	if c.CheckLog.Dir == "" {
		return fmt.Errorf("check_log.dir is required")
	}
	if c.Storage.Driver != "" && c.Storage.Driver != "mssql" {
		return fmt.Errorf("storage.driver must be empty or 'mssql'")
	}
	if c.Storage.Driver == "mssql" {
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required when storage.driver is set")
		}
		if c.Storage.CommandTimeoutMS <= 0 {
			return fmt.Errorf("storage.command_timeout_ms must be > 0")
		}
	}
	if c.Notify.Email.Enabled {
		if c.Notify.Email.SMTPServer == "" {
			return fmt.Errorf("notify.email.smtp_server is required when email is enabled")
		}
		if c.Notify.Email.SMTPPort <= 0 {
			return fmt.Errorf("notify.email.smtp_port must be > 0")
		}
		if c.Notify.Email.ToEmail == "" {
			return fmt.Errorf("notify.email.to_email is required when email is enabled")
		}
	}
	if c.Observability.MaxSizeMB < 0 || c.Observability.MaxBackups < 0 || c.Observability.MaxAgeDays < 0 {
		return fmt.Errorf("observability rotation limits must be >= 0")
	}
	if c.Rod.Enabled {
		if c.Rod.PageTimeoutS <= 0 {
			return fmt.Errorf("rod.page_timeout_s must be > 0")
		}
		if c.Rod.WaitLoadTimeoutS <= 0 {
			return fmt.Errorf("rod.wait_load_timeout_s must be > 0")
		}
	}
	return nil
}

func validateAbsURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is invalid: %w", field, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL", field)
	}
	return nil
}

// Getters

// GetTotalTimeout ноль означает «без таймаута»
func (c *Config) GetTotalTimeout() time.Duration {
	return time.Duration(c.HTTP.TotalTimeoutMS) * time.Millisecond
}

func (c *Config) GetRodPageTimeout() time.Duration {
	return time.Duration(c.Rod.PageTimeoutS) * time.Second
}

func (c *Config) GetRodWaitLoadTimeout() time.Duration {
	return time.Duration(c.Rod.WaitLoadTimeoutS) * time.Second
}
