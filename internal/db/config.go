package db

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config selects the database, File opens a local sqlite file and Url a remote
// libsql database. File wins when both are set.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token" envconfig:"DB_AUTH_TOKEN"`
}

func (config Config) OpenDB() (*sql.DB, error) {
	switch {
	case config.File != "":
		return OpenFile(config.File)
	case config.Url != "":
		return openLibsql(config.Url, config.AuthToken)
	}
	return nil, fmt.Errorf("open db: neither a file nor a url was specified")
}

// filePragmas apply to every pooled connection of a sqlite file.
const filePragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// maxFileConns lets readers run next to the single writing transaction.
const maxFileConns = 4

// OpenFile opens (and creates if missing) a sqlite database, ":memory:" opens
// an in-memory database.
func OpenFile(path string) (*sql.DB, error) {
	if path == ":memory:" {
		db, err := sql.Open("sqlite", path)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
		return db, nil
	}

	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db, err := sql.Open("sqlite", path+filePragmas)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL readers never wait on the writer, see
	// https://stackoverflow.com/questions/35804884/sqlite-concurrent-writing-performance
	db.SetMaxOpenConns(maxFileConns)
	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

func openLibsql(rawUrl, authToken string) (*sql.DB, error) {
	dbUrl, err := url.Parse(rawUrl)
	if err != nil {
		return nil, fmt.Errorf("open db: parse url: %w", err)
	}
	if authToken != "" {
		query := dbUrl.Query()
		query.Set("authToken", authToken)
		dbUrl.RawQuery = query.Encode()
	}
	db, err := sql.Open("libsql", dbUrl.String())
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}
