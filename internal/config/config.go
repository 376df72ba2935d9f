package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the engine. Everything is
// optional except when the corresponding feature is used: the Omie
// credentials directory is only needed for reconciliation and the
// template path only for XLSX output.
type Config struct {
	// CredentialsDir holds one JSON file per client with Omie keys.
	CredentialsDir string
	// TemplatePath is the accounts-payable XLSX template to copy.
	TemplatePath string
	// OutputDir receives generated spreadsheets.
	OutputDir string
	// ListenAddr is the HTTP server bind address.
	ListenAddr string
}

// Load reads configuration from the environment, after loading a
// .env file when one is present.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		CredentialsDir: os.Getenv("STATEMENT_CREDENTIALS_DIR"),
		TemplatePath:   os.Getenv("STATEMENT_TEMPLATE_PATH"),
		OutputDir:      os.Getenv("STATEMENT_OUTPUT_DIR"),
		ListenAddr:     os.Getenv("STATEMENT_LISTEN_ADDR"),
	}
	if cfg.CredentialsDir == "" {
		cfg.CredentialsDir = "credenciais"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	return cfg
}

// Credentials are the per-client Omie API keys.
type Credentials struct {
	AppKey    string `json:"app_key"`
	AppSecret string `json:"app_secret"`
}

// LoadCredentials reads the credential file for a client. The file
// name is the lower-cased client name with spaces replaced by
// underscores, e.g. "Aurora Hotel" -> credenciais/aurora_hotel.json.
func (c *Config) LoadCredentials(client string) (*Credentials, error) {
	name := strings.ToLower(strings.ReplaceAll(client, " ", "_")) + ".json"
	path := filepath.Join(c.CredentialsDir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("credentials for client %q not found: %w", client, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials file %s: %w", path, err)
	}
	if creds.AppKey == "" || creds.AppSecret == "" {
		return nil, fmt.Errorf("incomplete credentials in %s: app_key and app_secret are required", path)
	}
	return &creds, nil
}
