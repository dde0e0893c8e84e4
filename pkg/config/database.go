package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DB holds the relational database connection
type DB struct {
	SQL *gorm.DB
	log *logrus.Logger
}

// InitDB opens PostgreSQL, or SQLite when running in testing mode
func InitDB(cfg *Config, log *logrus.Logger) (*DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	if cfg.Testing {
		db, err = initSQLite(cfg.SQLiteDSN, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite: %w", err)
		}
		log.Info("Using SQLite database (testing mode)")
	} else {
		if cfg.PostgresConnStr == "" {
			return nil, fmt.Errorf("POSTGRES_CONN_STR environment variable not set")
		}
		db, err = initPostgres(cfg.PostgresConnStr, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		log.Info("Successfully connected to PostgreSQL!")
	}

	return &DB{SQL: db, log: log}, nil
}

// gormConfig sends gorm's slow-query and error lines through the application logger
func gormConfig(log *logrus.Logger) *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
	}
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), gormConfig(log))
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// initSQLite opens an SQLite database; a shared in-memory DSN keeps one
// database alive for the lifetime of the pool.
func initSQLite(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(log))
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() {
	if db.SQL == nil {
		return
	}
	sqlDB, err := db.SQL.DB()
	if err != nil {
		db.log.WithError(err).Error("Error getting SQL DB from GORM")
		return
	}
	if err := sqlDB.Close(); err != nil {
		db.log.WithError(err).Error("Error closing database connection")
		return
	}
	db.log.Info("Database connection closed.")
}
