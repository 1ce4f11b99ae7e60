package database

import (
	"context"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SetupTestDatabase starts a throwaway postgres container and points the
// package connection settings at it. Returns the container terminate func.
func SetupTestDatabase() (func(context.Context) error, error) {
	database = "ota_test"
	username = "ota_test"
	password = "ota_test"
	schema = "public"

	ctx := context.Background()

	dbContainer, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(database),
		postgres.WithUsername(username),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	teardown := func(ctx context.Context) error {
		return dbContainer.Terminate(ctx)
	}

	dbHost, err := dbContainer.Host(ctx)
	if err != nil {
		return teardown, err
	}

	dbPort, err := dbContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return teardown, err
	}

	host = dbHost
	port = dbPort.Port()

	return teardown, nil
}
