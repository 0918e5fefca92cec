package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "dumpmancer.yaml"
	DefaultPrefix  = "backup"
	DefaultStorage = ".dumpmancer"
)

// Config is the project configuration stored in dumpmancer.yaml.
type Config struct {
	StoragePath string   `yaml:"storage_path"`
	Prefix      string   `yaml:"prefix,omitempty"`
	DatabaseURL string   `yaml:"db_url,omitempty"`
	Tables      []string `yaml:"tables,omitempty"`
}

// FindConfigFile tries to find the dumpmancer config file in the current directory
// or any parent directory, falling back to the global config if needed
func FindConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached root directory
		}
		dir = parent
	}

	// Fall back to global config
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	globalConfig := filepath.Join(homeDir, DefaultStorage, "config.yaml")
	if _, err := os.Stat(globalConfig); err == nil {
		return globalConfig, nil
	}

	return "", fmt.Errorf("no config file found in project or ~/%s/config.yaml", DefaultStorage)
}

// ReadConfig reads and parses a config file, filling in defaults.
func ReadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if config.StoragePath == "" {
		config.StoragePath = DefaultStorage
	}
	if config.Prefix == "" {
		config.Prefix = DefaultPrefix
	}
	return &config, nil
}

// WriteConfig stores config as YAML at configPath.
func WriteConfig(configPath string, config *Config) error {
	yamlData, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("creating yaml: %w", err)
	}
	if err := os.WriteFile(configPath, yamlData, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// LoadConfig finds and reads the config. When there is none, it returns the
// defaults rooted at the working directory.
func LoadConfig() (*Config, string, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, "", fmt.Errorf("getting working directory: %w", wdErr)
		}
		return &Config{StoragePath: DefaultStorage, Prefix: DefaultPrefix}, wd, nil
	}
	config, err := ReadConfig(configPath)
	if err != nil {
		return nil, "", err
	}
	return config, filepath.Dir(configPath), nil
}

// GetDumpPath returns the directory holding the dumps of one database
func GetDumpPath(projectRoot, storagePath, databaseName string) string {
	if filepath.IsAbs(storagePath) {
		return filepath.Join(storagePath, "dumps", databaseName)
	}
	return filepath.Join(projectRoot, storagePath, "dumps", databaseName)
}

// GetDumpsRoot returns the directory holding the per-database dump directories
func GetDumpsRoot(projectRoot, storagePath string) string {
	return filepath.Dir(GetDumpPath(projectRoot, storagePath, "x"))
}
