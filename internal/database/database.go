package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"OtaUpdateServer/internal/model"

	"github.com/golang-migrate/migrate/v4"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
)

// Service represents a service that interacts with a database.
type Service interface {
	CreateApp(data model.NewAppData) (int, error)
	GetApp(id int) (model.AppEntity, error)
	GetAppByKey(appKey string) (model.AppEntity, error)
	GetApps() ([]model.AppEntity, error)

	CreateChannel(data model.NewChannelData) (int, error)
	GetChannel(appId int, name string) (model.ChannelEntity, error)
	GetChannelById(id int) (model.ChannelEntity, error)
	GetChannels(appId int) ([]model.ChannelEntity, error)
	UpdateChannelPolicy(id int, patch model.UpdateChannelDTO) error

	// Inserts the bundle and repoints the owning channel's active-bundle
	// pointer in one transaction
	PublishBundle(data model.NewBundleData, channelName string) (int, error)
	GetBundle(id int) (model.BundleEntity, error)
	GetBundles(appId int) ([]model.BundleEntity, error)

	// Returns the bundle the named channel currently points at, or nil when
	// the channel is unknown, has no pointer, or the bundle does not match
	// the platform or is inactive or soft-deleted
	ActiveBundle(appId int, channelName, platform string) (*model.BundleEntity, error)
	RollbackChannel(appId int, channelName string, bundleId int) error
	SoftDeleteBundle(id int) error

	UpsertDevice(data model.UpsertDeviceData) error
	GetDevice(appId int, deviceId string) (*model.DeviceEntity, error)
	SetDeviceChannel(appId int, deviceId, platform, channel string) error
	ClearDeviceChannel(appId int, deviceId string) error
	CreateCheckin(data model.NewCheckinData) error

	CreatePublisher(data model.NewPublisherData) (int, error)
	GetPublisherByName(name string) (model.PublisherEntity, error)
	CreateAuthSession(data model.NewAuthSessionData) error
	GetAuthSession(id string) (model.AuthSessionEntity, error)
	ExtendAuthSession(id string, expiry int64) (string, error)
	CreateApiKey(data model.NewApiKeyData) error

	// Validates that the given apiKey exists in the database
	ValidateApiKey(string) bool

	// Returns the id of the app the ApiKey belongs to
	GetAppId(apiKey string) (int, error)

	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error
}

type service struct {
	db *sql.DB
}

var (
	database   = os.Getenv("OTA_DB_DATABASE")
	password   = os.Getenv("OTA_DB_PASSWORD")
	username   = os.Getenv("OTA_DB_USERNAME")
	port       = os.Getenv("OTA_DB_PORT")
	host       = os.Getenv("OTA_DB_HOST")
	schema     = os.Getenv("OTA_DB_SCHEMA")
	dbInstance *service
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func New() Service {
	// Reuse Connection
	if dbInstance != nil {
		return dbInstance
	}
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s", username, password, host, port, database, schema)
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		log.Fatal(err)
	}
	dbInstance = &service{
		db: db,
	}

	if err = dbInstance.migrate(); err != nil {
		log.Fatalf("Could not migrate db: %v\n", err)
	}

	return dbInstance
}

func (s *service) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	driver, err := pgxmigrate.WithInstance(s.db, &pgxmigrate.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, database, driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}

// Health checks the health of the database connection by pinging the database.
// It returns a map with keys indicating various health statistics.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	stats := make(map[string]string)

	// Ping the database
	err := s.db.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	// Database is up, add more statistics
	stats["status"] = "up"
	stats["message"] = "It's healthy"

	// Get database stats (like open connections, in use, idle, etc.)
	dbStats := s.db.Stats()
	stats["open_connections"] = strconv.Itoa(dbStats.OpenConnections)
	stats["in_use"] = strconv.Itoa(dbStats.InUse)
	stats["idle"] = strconv.Itoa(dbStats.Idle)
	stats["wait_count"] = strconv.FormatInt(dbStats.WaitCount, 10)
	stats["wait_duration"] = dbStats.WaitDuration.String()
	stats["max_idle_closed"] = strconv.FormatInt(dbStats.MaxIdleClosed, 10)
	stats["max_lifetime_closed"] = strconv.FormatInt(dbStats.MaxLifetimeClosed, 10)

	// Evaluate stats to provide a health message
	if dbStats.OpenConnections > 40 { // Assuming 50 is the max for this example
		stats["message"] = "The database is experiencing heavy load."
	}

	if dbStats.WaitCount > 1000 {
		stats["message"] = "The database has a high number of wait events, indicating potential bottlenecks."
	}

	return stats
}

// Close closes the database connection.
// It logs a message indicating the disconnection from the specific database.
// If the connection is successfully closed, it returns nil.
// If an error occurs while closing the connection, it returns the error.
func (s *service) Close() error {
	log.Printf("Disconnected from database: %s", database)
	return s.db.Close()
}
