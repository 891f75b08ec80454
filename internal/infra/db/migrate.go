package db

import (
	"database/sql"
	"fmt"
)

var postgresSchema = []string{
	`
CREATE TABLE IF NOT EXISTS news (
    id               BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
    headline         VARCHAR(255) NOT NULL,
    description      TEXT,
    publication_time TIMESTAMP WITHOUT TIME ZONE NOT NULL
)`,
	// 見出しの重複排除
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_news_headline ON news(headline)`,
	// 期間検索と一覧の並び順
	`CREATE INDEX IF NOT EXISTS idx_news_publication_time ON news(publication_time DESC)`,
}

var sqliteSchema = []string{
	`
CREATE TABLE IF NOT EXISTS news (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    headline         VARCHAR(255) NOT NULL,
    description      TEXT,
    publication_time DATETIME NOT NULL
)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_news_headline ON news(headline)`,
	`CREATE INDEX IF NOT EXISTS idx_news_publication_time ON news(publication_time DESC)`,
}

// MigrateUp creates the news table and its indexes for the given driver.
func MigrateUp(db *sql.DB, driver string) error {
	stmts := postgresSchema
	if driver == DriverSQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("MigrateUp: %w", err)
		}
	}
	return nil
}

// MigrateDown drops the news table. All stored articles are lost.
func MigrateDown(db *sql.DB) error {
	for _, stmt := range []string{
		`DROP INDEX IF EXISTS idx_news_publication_time`,
		`DROP INDEX IF EXISTS idx_news_headline`,
		`DROP TABLE IF EXISTS news`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("MigrateDown: %w", err)
		}
	}
	return nil
}
