package database

import (
	"database/sql"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

// FileDSN builds a modernc DSN for an on-disk database.
func FileDSN(path string) string {
	return fmt.Sprintf("file:%s?%s", path, sqlitePragmas)
}

// MemoryDSN builds a DSN for a named, shared in-memory database.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&%s", name, sqlitePragmas)
}

// OpenSQLite opens a gorm handle backed by the pure-Go modernc driver.
// A single connection keeps writers serialized, matching sqlite's own locking.
func OpenSQLite(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if cfg == nil {
		cfg = &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	}
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", Conn: sqlDB}, cfg)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}
