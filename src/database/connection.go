// Package database owns the Postgres connection the failure recorder and
// aggregator-config store use.
package database

import (
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/priceradar/pricesearch-engine/src/logging"
)

// Config holds the connection parameters for the engine's single
// database.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	TimeZone        string
	MigrationsPath  string
}

// DB wraps the gorm handle; the raw *sql.DB the migration driver needs is
// obtained from it on demand.
type DB struct {
	Gorm *gorm.DB
	log  *logging.Logger
}

// Connect opens the Postgres connection and tunes the pool sizing.
func Connect(cfg Config, log *logging.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode, cfg.TimeZone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("database connected")
	return &DB{Gorm: db, log: log}, nil
}

// Migrate applies every pending golang-migrate migration under
// cfg.MigrationsPath.
func (d *DB) Migrate(cfg Config) error {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	driver, err := pgmigrate.WithInstance(sqlDB, &pgmigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to build migration driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+cfg.MigrationsPath, cfg.DBName, driver)
	if err != nil {
		return fmt.Errorf("failed to build migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	d.log.Info("database migrations applied")
	return nil
}

// HealthCheck pings the database for the health endpoint.
func (d *DB) HealthCheck() string {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return "disconnected"
	}
	if err := sqlDB.Ping(); err != nil {
		return "disconnected"
	}
	return "connected"
}

// Close releases the underlying connection pool.
func (d *DB) Close() error {
	sqlDB, err := d.Gorm.DB()
	if err != nil {
		return nil
	}
	return sqlDB.Close()
}
