package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"inspectdash/domain/inspection"
	"inspectdash/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Evidence EvidenceConfig
	UI       UIConfig
	LogLevel string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

// DataConfig holds the data file settings
type DataConfig struct {
	ExcelFile   string
	SheetName   string
	ColumnsFile string
	Columns     inspection.Columns
	Watch       bool
}

// EvidenceConfig bounds the in-memory photo previews
type EvidenceConfig struct {
	MaxBytes    int64
	MaxPreviews int
}

// UIConfig holds presentation settings
type UIConfig struct {
	Title      string
	NoticeFile string
}

const DefaultTitle = "Sistema de Gestión de Observaciones - RAC 2025"

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	config.Server = *loadServerConfig()

	dataConfig, err := loadDataConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load data configuration")
	}
	config.Data = *dataConfig

	config.Evidence = *loadEvidenceConfig()
	config.UI = *loadUIConfig()
	config.LogLevel = getEnvOrDefault("LOG_LEVEL", "INFO")

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		GinMode:         getEnvOrDefault("GIN_MODE", "debug"),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadDataConfig() (*DataConfig, error) {
	data := &DataConfig{
		ExcelFile:   getEnvOrDefault("EXCEL_FILE", "data.xlsx"),
		SheetName:   getEnvOrDefault("SHEET_NAME", "Hoja1"),
		ColumnsFile: getEnvOrDefault("COLUMNS_FILE", ""),
		Columns:     inspection.DefaultColumns(),
		Watch:       getEnvBoolOrDefault("WATCH_DATA_FILE", true),
	}
	if data.ColumnsFile != "" {
		columns, err := LoadColumns(data.ColumnsFile)
		if err != nil {
			return nil, err
		}
		data.Columns = columns
	}
	return data, nil
}

func loadEvidenceConfig() *EvidenceConfig {
	return &EvidenceConfig{
		MaxBytes:    int64(getEnvIntOrDefault("EVIDENCE_MAX_BYTES", 10<<20)),
		MaxPreviews: getEnvIntOrDefault("EVIDENCE_MAX_PREVIEWS", 200),
	}
}

func loadUIConfig() *UIConfig {
	return &UIConfig{
		Title:      getEnvOrDefault("DASHBOARD_TITLE", DefaultTitle),
		NoticeFile: getEnvOrDefault("NOTICE_FILE", ""),
	}
}

// LoadColumns reads a YAML column map. Fields left out keep their default
// header names.
func LoadColumns(path string) (inspection.Columns, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return inspection.Columns{}, &errors.AppError{
			Code:    errors.CodeConfigInvalid,
			Message: fmt.Sprintf("cannot read columns file %s", path),
			Cause:   err,
		}
	}

	var columns inspection.Columns
	if err := yaml.Unmarshal(content, &columns); err != nil {
		return inspection.Columns{}, &errors.AppError{
			Code:    errors.CodeConfigInvalid,
			Message: fmt.Sprintf("cannot parse columns file %s", path),
			Cause:   err,
		}
	}
	return columns.WithDefaults(), nil
}

func validateConfig(config *Config) error {
	if config.Data.ExcelFile == "" {
		return errors.ConfigInvalid("EXCEL_FILE is required")
	}
	if port, err := strconv.Atoi(config.Server.Port); err != nil || port <= 0 || port > 65535 {
		return errors.ConfigInvalid(fmt.Sprintf("PORT %q is not a valid port", config.Server.Port))
	}
	switch config.Server.GinMode {
	case "debug", "release", "test":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("GIN_MODE %q must be debug, release or test", config.Server.GinMode))
	}
	if config.Evidence.MaxBytes <= 0 {
		return errors.ConfigInvalid("EVIDENCE_MAX_BYTES must be positive")
	}
	if config.Evidence.MaxPreviews <= 0 {
		return errors.ConfigInvalid("EVIDENCE_MAX_PREVIEWS must be positive")
	}
	if config.Data.Columns.Month == config.Data.Columns.Section {
		return errors.ConfigInvalid("month and section columns must differ")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
