// Package testutil поднимает инфраструктуру для интеграционных тестов через testcontainers.
// Каждый хелпер пропускает тест в режиме -short и останавливает контейнер по t.Cleanup.
//
// Запуск только юнит-тестов:
//
//	go test ./... -short
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

const startTimeout = 2 * time.Minute

// Logger — логгер для тестов: только ошибки, чтобы не засорять вывод.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// SkipIfShort пропускает интеграционный тест в short-режиме.
func SkipIfShort(t testing.TB) {
	t.Helper()
	if testing.Short() {
		t.Skip("пропускаем интеграционный тест в short режиме")
	}
}

func terminateOnCleanup(t testing.TB, c testcontainers.Container) {
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})
}

// PostgresContainer — параметры подключения к поднятому PostgreSQL.
type PostgresContainer struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// StartPostgres поднимает PostgreSQL в Docker.
func StartPostgres(t testing.TB) *PostgresContainer {
	t.Helper()
	SkipIfShort(t)
	const (
		user     = "test"
		password = "test"
		dbName   = "testdb"
	)

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	terminateOnCleanup(t, container)

	host := hostOf(ctx, t, container)
	mapped, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	port := mapped.Port()
	return &PostgresContainer{Host: host, Port: port, User: user, Password: password, DBName: dbName}
}

// RedisContainer — параметры подключения к поднятому Redis.
type RedisContainer struct {
	Host string
	Port string
}

// StartRedis поднимает Redis в Docker.
func StartRedis(t testing.TB) *RedisContainer {
	t.Helper()
	SkipIfShort(t)

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	container, err := redis.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	terminateOnCleanup(t, container)

	host := hostOf(ctx, t, container)
	mapped, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	port := mapped.Port()
	return &RedisContainer{Host: host, Port: port}
}

// MongoContainer — параметры подключения к поднятому MongoDB.
type MongoContainer struct {
	Host string
	Port string
}

// URI возвращает строку подключения для mongo-driver.
func (c *MongoContainer) URI() string {
	return fmt.Sprintf("mongodb://%s:%s", c.Host, c.Port)
}

// StartMongo поднимает MongoDB в Docker.
func StartMongo(t testing.TB) *MongoContainer {
	t.Helper()
	SkipIfShort(t)

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	container, err := mongodb.Run(ctx,
		"mongo:7",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Waiting for connections").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("mongo container: %v", err)
	}
	terminateOnCleanup(t, container)

	host := hostOf(ctx, t, container)
	mapped, err := container.MappedPort(ctx, "27017")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	port := mapped.Port()
	return &MongoContainer{Host: host, Port: port}
}

// ClickHouseContainer — параметры подключения к поднятому ClickHouse (нативный порт).
type ClickHouseContainer struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

// StartClickHouse поднимает ClickHouse в Docker.
func StartClickHouse(t testing.TB) *ClickHouseContainer {
	t.Helper()
	SkipIfShort(t)
	const (
		user     = "default"
		password = ""
		database = "default"
	)

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	container, err := clickhouse.Run(ctx,
		"clickhouse/clickhouse-server:24-alpine",
		clickhouse.WithUsername(user),
		clickhouse.WithPassword(password),
		clickhouse.WithDatabase(database),
	)
	if err != nil {
		t.Fatalf("clickhouse container: %v", err)
	}
	terminateOnCleanup(t, container)

	host := hostOf(ctx, t, container)
	mapped, err := container.MappedPort(ctx, "9000")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	port := mapped.Port()
	return &ClickHouseContainer{Host: host, Port: port, User: user, Password: password, Database: database}
}

func hostOf(ctx context.Context, t testing.TB, c testcontainers.Container) string {
	t.Helper()
	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	return host
}
