package storageutil

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Config struct {
	// "sqlite" for a local file, "libsql" for a remote turso url
	Driver string `json:"driver"`
	File   string `json:"file"`
	Url    string `json:"url"`
}

func (config Config) OpenDB() (*sql.DB, error) {
	if config.Driver == "libsql" {
		if config.Url == "" {
			return nil, fmt.Errorf("libsql driver requires a url")
		}
		return sql.Open("libsql", config.Url)
	}

	if config.File == "" {
		return nil, fmt.Errorf("a database path was not specified")
	}
	err := os.MkdirAll(filepath.Dir(config.File), 0755)
	if err != nil {
		return nil, err
	}

	_, statErr := os.Stat(config.File)
	if os.IsNotExist(statErr) {
		f, err := os.Create(config.File)
		if err != nil {
			return nil, err
		}
		f.Close()
	}

	db, err := sql.Open("sqlite", config.File)
	if err != nil {
		return nil, err
	}
	// see this stackoverflow post for information on why the following
	// lines exist: https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	return db, nil
}
