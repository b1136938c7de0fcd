package database

import (
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/noah-isme/transcript-api/pkg/config"
)

// Open returns a configured client for the driver selected by cfg.Driver.
// "postgres" uses lib/pq, "pgx" the pgx stdlib adapter and "sqlite" the pure
// Go SQLite engine. The connection is verified before returning.
func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	driverName, dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Driver == config.DriverSQLite {
		sqlx.BindDriver(driverName, sqlx.QUESTION)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}

	configurePool(db, cfg)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// NewPostgres returns a configured PostgreSQL client.
func NewPostgres(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	cfg.Driver = config.DriverPostgres
	return Open(cfg)
}

// DSN resolves the database/sql driver name and data source for cfg.
func DSN(cfg config.DatabaseConfig) (string, string, error) {
	switch cfg.Driver {
	case "", config.DriverPostgres:
		return "postgres", postgresDSN(cfg), nil
	case config.DriverPgx:
		return "pgx", fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode), nil
	case config.DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		return "sqlite", path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func postgresDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

func configurePool(db *sqlx.DB, cfg config.DatabaseConfig) {
	if cfg.Driver == config.DriverSQLite {
		// a single writer avoids SQLITE_BUSY on concurrent saves
		db.SetMaxOpenConns(1)
		return
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)
}

// Rebind rewrites ? placeholders for the driver behind db.
func Rebind(db *sqlx.DB, query string) string {
	return db.Rebind(query)
}
