package db

import (
	"context"
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options locates the Postgres instance.
type Options struct {
	Host     string
	Port     uint
	Name     string
	SecretID string
}

// DSN renders the connection string for the given credentials.
func (o Options) DSN(username, password string) string {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d", o.Host, username, password, o.Name, o.Port)
	if os.Getenv("DB_SSL_MODE_DISABLE") == "true" {
		dsn += " sslmode=disable"
	}
	return dsn
}

// Connect opens the gorm connection, resolving credentials from the
// environment or Secrets Manager.
func Connect(ctx context.Context, opts Options) (*gorm.DB, error) {
	creds, err := retrieveCredentials(ctx, opts.SecretID)
	if err != nil {
		return nil, err
	}
	database, err := gorm.Open(postgres.Open(opts.DSN(creds.Username, creds.Password)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return database, nil
}
