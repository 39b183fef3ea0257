package commands

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"postpulse/internal/artifact"
	"postpulse/internal/handoff"
	"postpulse/internal/session"
	"postpulse/internal/vault"
	vaultdb "postpulse/internal/vault/db"
	"postpulse/lib/browser"
	"postpulse/lib/configutil"
	"postpulse/lib/storageutil"

	"postpulse/internal/enrich"
	"postpulse/internal/feed"
)

type SessionConfig struct {
	TimeoutMinutes      int `json:"timeout_minutes"`
	PollIntervalSeconds int `json:"poll_interval_seconds"`
}

type Config struct {
	Port       int                `json:"port"`
	DataDir    string             `json:"data_dir"`
	Passphrase string             `json:"passphrase"`
	Storage    storageutil.Config `json:"storage"`
	Browser    browser.Options    `json:"browser"`
	Session    SessionConfig      `json:"session"`
	Collect    feed.Config        `json:"collect"`
	Enrich     enrich.Config      `json:"enrich"`
}

func (c Config) sessionConfig() session.Config {
	return session.Config{
		Timeout:      time.Duration(c.Session.TimeoutMinutes) * time.Minute,
		PollInterval: time.Duration(c.Session.PollIntervalSeconds) * time.Second,
		Browser:      c.Browser,
	}
}

func loadConfig() (Config, error) {
	config, err := configutil.ReadConfig[Config]("config.json5")
	if os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config.json5 not found in the current directory")
	}
	if err != nil {
		return Config{}, err
	}

	if config.Port == 0 {
		config.Port = 8400
	}
	if config.DataDir == "" {
		config.DataDir = ".data"
	}
	if config.Storage.Driver == "" {
		config.Storage.Driver = "sqlite"
	}
	if config.Storage.Driver == "sqlite" && config.Storage.File == "" {
		config.Storage.File = filepath.Join(config.DataDir, "postpulse.db")
	}
	return config, nil
}

func openVault(config Config) (*vault.Vault, *sql.DB, error) {
	database, err := config.Storage.OpenDB()
	if err != nil {
		return nil, nil, fmt.Errorf("open credential store: %w", err)
	}
	_, err = database.Exec(vaultdb.Schema)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("apply credential store schema: %w", err)
	}
	v, err := vault.New(config.Passphrase, database)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return v, database, nil
}

func handoffBroker(config Config) *handoff.Broker {
	return handoff.New(filepath.Join(config.DataDir, "handoff"))
}

func artifactStore(config Config) *artifact.Store {
	return artifact.NewStore(config.DataDir)
}
