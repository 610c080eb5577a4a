// Package pg provides a PostgreSQL backed store.
package pg

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manualsvc/bundler/store"
)

//go:embed sql
var sqlFiles embed.FS

func New(databaseUrl string, customizers ...func(*Options)) (*Store, error) {
	if databaseUrl == "" {
		return nil, errors.New("database URL is empty")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	pgPoolConfig, err := pgxpool.ParseConfig(databaseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %v", err)
	}

	if _, ok := pgPoolConfig.ConnConfig.RuntimeParams["application_name"]; !ok {
		pgPoolConfig.ConnConfig.RuntimeParams["application_name"] = options.ApplicationName
	}

	pgPoolCtx, pgPoolCancel := context.WithTimeout(context.Background(), options.Timeout)
	defer pgPoolCancel()

	pgPool, err := pgxpool.NewWithConfig(pgPoolCtx, pgPoolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %v", err)
	}

	s := &Store{pgPool: pgPool, timeout: options.Timeout}

	if err := s.migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate database: %v", err)
	}

	return s, nil
}

func NewOptions() Options {
	return Options{
		ApplicationName: "bundler",
		Timeout:         30 * time.Second,
	}
}

type Options struct {
	ApplicationName string        // Set as application_name runtime parameter, when not given via database URL.
	Timeout         time.Duration // Time limit for pool creation and migration.
}

func (o Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be a positive duration")
	}
	return nil
}

// Store implements store.Store on a pgx connection pool.
type Store struct {
	pgPool  *pgxpool.Pool
	timeout time.Duration
}

var _ store.Store = (*Store)(nil)

func (s *Store) Close() {
	s.pgPool.Close()
}

func (s *Store) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	createObjects, err := sqlFiles.ReadFile("sql/create_objects.sql")
	if err != nil {
		return fmt.Errorf("failed to read SQL file: %v", err)
	}

	if _, err := s.pgPool.Exec(ctx, string(createObjects)); err != nil {
		return fmt.Errorf("failed to create database objects: %v", err)
	}
	return nil
}
