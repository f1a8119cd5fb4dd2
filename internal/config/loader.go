package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".salesbot"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .salesbot configuration file.
// Every field is optional; unset fields keep the value they already have.
type File struct {
	Site      SiteSection     `yaml:"site,omitempty"`
	Login     LoginSection    `yaml:"login,omitempty"`
	Selectors Selectors       `yaml:"selectors,omitempty"`
	Output    OutputSection   `yaml:"output,omitempty"`
	Browser   BrowserSection  `yaml:"browser,omitempty"`
	Download  DownloadSection `yaml:"download,omitempty"`
}

// SiteSection names the intranet and its spreadsheet.
type SiteSection struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	SpreadsheetURL string `yaml:"spreadsheet_url,omitempty"`
	Sheet          string `yaml:"sheet,omitempty"`
}

// LoginSection configures the optional post-login check.
type LoginSection struct {
	VerifySelector string `yaml:"verify_selector,omitempty"`
}

// OutputSection configures where files are written.
type OutputSection struct {
	Dir        string `yaml:"dir,omitempty"`
	WorkDir    string `yaml:"work_dir,omitempty"`
	Screenshot string `yaml:"screenshot,omitempty"`
	PDF        string `yaml:"pdf,omitempty"`
}

// BrowserSection configures the Chrome session.
type BrowserSection struct {
	// Headless and SlowMo are pointers so that an explicit false or 0s can be
	// told apart from unset.
	Headless *bool          `yaml:"headless,omitempty"`
	SlowMo   *time.Duration `yaml:"slowmo,omitempty"`
	Timeout  time.Duration  `yaml:"timeout,omitempty"`
}

// DownloadSection configures the spreadsheet download.
type DownloadSection struct {
	Proxy     string        `yaml:"proxy,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	UserAgent string        `yaml:"user_agent,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error based on whether the path was
// explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// Apply overlays every value set in the file onto cfg.
func (cf *File) Apply(cfg *Config) {
	setString(&cfg.BaseURL, cf.Site.BaseURL)
	setString(&cfg.SpreadsheetURL, cf.Site.SpreadsheetURL)
	setString(&cfg.Sheet, cf.Site.Sheet)
	setString(&cfg.VerifySelector, cf.Login.VerifySelector)
	cfg.Selectors.Merge(cf.Selectors)

	setString(&cfg.OutputDir, cf.Output.Dir)
	setString(&cfg.WorkDir, cf.Output.WorkDir)
	setString(&cfg.ScreenshotFile, cf.Output.Screenshot)
	setString(&cfg.PDFFile, cf.Output.PDF)

	if cf.Browser.Headless != nil {
		cfg.Headless = *cf.Browser.Headless
	}
	if cf.Browser.SlowMo != nil {
		cfg.SlowMo = *cf.Browser.SlowMo
	}
	setDuration(&cfg.Timeout, cf.Browser.Timeout)

	setString(&cfg.Proxy, cf.Download.Proxy)
	setDuration(&cfg.DownloadTimeout, cf.Download.Timeout)
	setString(&cfg.UserAgent, cf.Download.UserAgent)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .salesbot in the current directory
// 3. Look for config.yaml in the XDG config directory
// 4. Look for .salesbot in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}

	return ""
}
