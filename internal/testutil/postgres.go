// Package testutil provisions disposable infrastructure for integration
// tests. Containers are started through dockertest and destroyed when the
// test binary exits.
package testutil

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

// StartPostgres launches a throwaway PostgreSQL container and returns an open
// connection plus a cleanup function. The container self-destructs after
// three minutes even if cleanup never runs.
func StartPostgres() (*sql.DB, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, nil, fmt.Errorf("could not construct docker pool: %w", err)
	}
	if err := pool.Client.Ping(); err != nil {
		return nil, nil, fmt.Errorf("could not connect to docker: %w", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=tasktracker_test",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, nil, fmt.Errorf("could not start postgres container: %w", err)
	}
	resource.Expire(180)

	dsn := fmt.Sprintf("postgres://postgres:secret@%s/tasktracker_test?sslmode=disable",
		resource.GetHostPort("5432/tcp"))

	var db *sql.DB
	pool.MaxWait = 2 * time.Minute
	if err := pool.Retry(func() error {
		var err error
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		return db.Ping()
	}); err != nil {
		pool.Purge(resource)
		return nil, nil, fmt.Errorf("could not connect to postgres container: %w", err)
	}

	cleanup := func() {
		db.Close()
		if err := pool.Purge(resource); err != nil {
			fmt.Printf("could not purge postgres container: %v\n", err)
		}
	}
	return db, cleanup, nil
}
