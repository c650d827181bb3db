package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// MasavSettings identifies the originating institution in generated MASAV
// files. Every field is validated before an export is allowed.
type MasavSettings struct {
	InstitutionID   string `mapstructure:"institution_id" yaml:"institution_id"`
	InstitutionName string `mapstructure:"institution_name" yaml:"institution_name"`
	BankCode        string `mapstructure:"bank_code" yaml:"bank_code"`
	BranchCode      string `mapstructure:"branch_code" yaml:"branch_code"`
	AccountNumber   string `mapstructure:"account_number" yaml:"account_number"`
	SequenceNumber  string `mapstructure:"sequence_number" yaml:"sequence_number"`
	HebrewEncoding  string `mapstructure:"hebrew_encoding" yaml:"hebrew_encoding"`
	FileExtension   string `mapstructure:"file_extension" yaml:"file_extension"`
}

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Import struct {
		CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`
		AliasFile    string `mapstructure:"alias_file" yaml:"alias_file"`
	} `mapstructure:"import" yaml:"import"`

	Store struct {
		Driver string `mapstructure:"driver" yaml:"driver"` // memory or postgres
		DSN    string `mapstructure:"dsn" yaml:"-"`         // never serialize credentials
		File   string `mapstructure:"file" yaml:"file"`     // memory driver snapshot file
	} `mapstructure:"store" yaml:"store"`

	Masav MasavSettings `mapstructure:"masav" yaml:"masav"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading:
// defaults, then an optional config file, then MASAV_-prefixed environment
// variables.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.masav-batch")
	v.AddConfigPath(".masav-batch")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MASAV")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// A malformed config file should not be silently ignored.
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// Database credentials come from the environment only.
	if err := v.BindEnv("store.dsn", "MASAV_STORE_DSN", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind store DSN environment variable: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("import.csv_delimiter", ",")
	v.SetDefault("import.alias_file", "")

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.file", "transfers.yaml")

	v.SetDefault("masav.institution_id", "")
	v.SetDefault("masav.institution_name", "")
	v.SetDefault("masav.sequence_number", "001")
	v.SetDefault("masav.hebrew_encoding", "code-a")
	v.SetDefault("masav.file_extension", "txt")
}

func validateConfig(config *Config) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[config.Log.Level] {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s", config.Log.Format)
	}

	if len(config.Import.CSVDelimiter) != 1 {
		return fmt.Errorf("csv delimiter must be a single character, got %q", config.Import.CSVDelimiter)
	}

	switch config.Store.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("invalid store driver: %s", config.Store.Driver)
	}

	switch config.Masav.HebrewEncoding {
	case "code-a", "code-b":
	default:
		return fmt.Errorf("invalid hebrew encoding: %s (want code-a or code-b)", config.Masav.HebrewEncoding)
	}

	switch config.Masav.FileExtension {
	case "txt", "dat", "msv":
	default:
		return fmt.Errorf("invalid masav file extension: %s", config.Masav.FileExtension)
	}

	return nil
}

var (
	digits8 = regexp.MustCompile(`^\d{8}$`)
	digits3 = regexp.MustCompile(`^\d{3}$`)
	digits2 = regexp.MustCompile(`^\d{2}$`)
)

// Validate checks the institution settings required to generate a MASAV
// file. It is called by the exporter, not at startup, so that import-only
// runs do not require the settings to be present.
func (s MasavSettings) Validate() error {
	if !digits8.MatchString(s.InstitutionID) {
		return fmt.Errorf("masav institution_id must be 8 digits, got %q", s.InstitutionID)
	}
	if !digits2.MatchString(s.BankCode) {
		return fmt.Errorf("masav bank_code must be 2 digits, got %q", s.BankCode)
	}
	if !digits3.MatchString(s.BranchCode) {
		return fmt.Errorf("masav branch_code must be 3 digits, got %q", s.BranchCode)
	}
	if !digits3.MatchString(s.SequenceNumber) {
		return fmt.Errorf("masav sequence_number must be 3 digits, got %q", s.SequenceNumber)
	}
	if s.AccountNumber == "" {
		return fmt.Errorf("masav account_number is required")
	}
	return nil
}

// ConfigureLoggingFromConfig applies the configured level and format to the
// global logger.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	level, err := logrus.ParseLevel(config.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	if config.Log.Format == "json" {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return Logger
}
