package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultHostingModule is the module that ships this tool inside Magento.
const DefaultHostingModule = "Tidycode_TUI"

// Database overrides the connection read from app/etc/env.php.
type Database struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Name     string `yaml:"name,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// IsSet reports whether any override field is present.
func (d Database) IsSet() bool {
	return d.Host != "" || d.Name != "" || d.User != "" || d.Password != "" || d.Port != 0
}

// Config holds settings stored at ~/.magetui/config.yaml.
type Config struct {
	MagentoRoot   string        `yaml:"magento_root,omitempty"`
	PHPBinary     string        `yaml:"php_binary,omitempty"`
	LogDir        string        `yaml:"log_dir,omitempty"`
	BackupDir     string        `yaml:"backup_dir,omitempty"`
	HostingModule string        `yaml:"hosting_module,omitempty"`
	LogLevel      string        `yaml:"log_level,omitempty"`
	LogFile       string        `yaml:"log_file,omitempty"`
	HistoryDB     string        `yaml:"history_db,omitempty"`
	QueryTTL      time.Duration `yaml:"query_ttl,omitempty"`
	Database      Database      `yaml:"database,omitempty"`
}

// Dir returns the directory holding config, log and journal files.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".magetui")
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	return &Config{
		PHPBinary:     "php",
		HostingModule: DefaultHostingModule,
		LogLevel:      "info",
		LogFile:       filepath.Join(Dir(), "magetui.log"),
		HistoryDB:     filepath.Join(Dir(), "history.db"),
		QueryTTL:      2 * time.Second,
	}
}

// Load reads path (Path() when empty). A missing file yields Default().
// Files readable by anyone but the owner are rejected since they may carry
// database credentials.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	perm := info.Mode().Perm()
	if perm&0o077 != 0 {
		return nil, fmt.Errorf("config permissions too open: %04o (want 0600)", perm)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.fillDefaults()
	return cfg, nil
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.PHPBinary == "" {
		c.PHPBinary = d.PHPBinary
	}
	if c.HostingModule == "" {
		c.HostingModule = d.HostingModule
	}
	if c.LogFile == "" {
		c.LogFile = d.LogFile
	}
	if c.HistoryDB == "" {
		c.HistoryDB = d.HistoryDB
	}
	if c.QueryTTL <= 0 {
		c.QueryTTL = d.QueryTTL
	}
}

// Resolve settles the Magento root and the directories derived from it.
// Precedence for the root: flag, MAGENTO_ROOT, config file, working dir.
func (c *Config) Resolve(flagRoot string) error {
	root := flagRoot
	if root == "" {
		root = os.Getenv("MAGENTO_ROOT")
	}
	if root == "" {
		root = c.MagentoRoot
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("working directory: %w", err)
		}
		root = wd
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}
	c.MagentoRoot = abs

	if c.LogDir == "" {
		c.LogDir = filepath.Join(abs, "var", "log")
	}
	if c.BackupDir == "" {
		c.BackupDir = filepath.Join(abs, "var", "backups")
	}
	return nil
}

// Save writes the config to Path() with secure permissions.
func (c *Config) Save() error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}
