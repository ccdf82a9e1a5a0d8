package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/DanielPPerez/API-Estancia2/internal/config"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ContainerOptions selects the database and optional Redis to start
type ContainerOptions struct {
	DBType     string
	DBImage    string
	DBDatabase string
	DBUser     string
	DBPassword string
	WithRedis  bool
	RedisImage string
}

// ContainerOptionsFromEnv reads DB_TYPE, DB_IMAGE, DB_DATABASE, DB_USER,
// DB_PASSWORD, REDIS_IMAGE and WITH_REDIS with usable defaults
func ContainerOptionsFromEnv() ContainerOptions {
	opts := ContainerOptions{
		DBType:     envOr("DB_TYPE", "mysql"),
		DBImage:    os.Getenv("DB_IMAGE"),
		DBDatabase: envOr("DB_DATABASE", "estancia"),
		DBUser:     envOr("DB_USER", "estancia"),
		DBPassword: envOr("DB_PASSWORD", "estancia-password"),
		WithRedis:  os.Getenv("WITH_REDIS") == "true",
		RedisImage: envOr("REDIS_IMAGE", "redis:7-alpine"),
	}
	return opts
}

// TestContainers holds the running containers
type TestContainers struct {
	Network        *testcontainers.DockerNetwork
	DBContainer    testcontainers.Container
	RedisContainer testcontainers.Container

	opts    ContainerOptions
	dbHost  string
	dbPort  nat.Port
	redisAt string
}

// Terminate stops every container and removes the network
func (tc *TestContainers) Terminate(t *testing.T) {
	ctx := context.Background()
	if tc.RedisContainer != nil {
		if err := tc.RedisContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Redis: %v", err)
		}
	}
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Database: %v", err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

// Config returns a configuration pointing at the started containers
func (tc *TestContainers) Config(jwtSecret string) *config.Config {
	cfg := &config.Config{
		Port:                 "3000",
		CORSAllowedOrigins:   "*",
		DBType:               tc.opts.DBType,
		DBHost:               tc.dbHost,
		DBPort:               tc.dbPort.Port(),
		DBDatabase:           tc.opts.DBDatabase,
		DBUser:               tc.opts.DBUser,
		DBPassword:           tc.opts.DBPassword,
		DBConnectionLimit:    10,
		DBAcquireTimeout:     10 * time.Second,
		DBLogLevel:           "warn",
		JWTSecret:            jwtSecret,
		JWTExpiration:        12 * time.Hour,
		JWTRefreshExpiration: 24 * time.Hour,
		AuthRateLimit:        5,
		AuthRateBurst:        10,
		StorageDriver:        "local",
		UploadDir:            "uploads",
		StorageTimeout:       30 * time.Second,
		RoleCacheTTL:         5 * time.Minute,
	}
	if tc.redisAt != "" {
		cfg.RedisURL = "redis://" + tc.redisAt
	}
	return cfg
}

// CreateTestContainers starts the database (and Redis when asked) on a private
// network. t may be nil when called from a standalone executable.
func CreateTestContainers(t *testing.T, opts ContainerOptions) (*TestContainers, error) {
	ctx := context.Background()
	tc := &TestContainers{opts: opts}

	net, err := network.New(ctx)
	if err != nil {
		exitWithError(t, err, "Failed to create network")
		return nil, err
	}
	tc.Network = net
	networkName := net.Name

	dbImage := opts.DBImage
	if dbImage == "" {
		dbImage = defaultDBImage(opts.DBType)
	}
	containerPort := defaultDBPort(opts.DBType)
	tcpDbPort, err := nat.NewPort("tcp", containerPort)
	if err != nil {
		tc.Terminate(t)
		exitWithError(t, err, "Failed to create DB port")
		return nil, err
	}

	if exists, err := imageExists(ctx, dbImage); err == nil && !exists {
		logMessage(t, "Image %s not present locally, pulling...", dbImage)
	}

	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        dbImage,
			ExposedPorts: []string{string(tcpDbPort)},
			Env:          getDBInitEnvMap(opts),
			WaitingFor:   wait.ForListeningPort(tcpDbPort).WithStartupTimeout(90 * time.Second),
			Networks:     []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {"db"},
			},
			HostConfigModifier: func(hostConfig *container.HostConfig) {
				// Database files live in memory, the containers are throwaway
				hostConfig.Tmpfs = map[string]string{dbDataDir(opts.DBType): "rw"}
			},
		},
		Started: true,
	})
	if err != nil {
		tc.Terminate(t)
		exitWithError(t, err, "Failed to start Database")
		return nil, err
	}
	tc.DBContainer = dbContainer

	tc.dbHost, _ = dbContainer.Host(ctx)
	tc.dbPort, _ = dbContainer.MappedPort(ctx, tcpDbPort)
	logMessage(t, "DB_HOST=%s DB_PORT=%s", tc.dbHost, tc.dbPort.Port())

	if opts.WithRedis {
		tcpRedisPort, _ := nat.NewPort("tcp", "6379")
		redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        opts.RedisImage,
				ExposedPorts: []string{string(tcpRedisPort)},
				WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
				Networks:     []string{networkName},
				NetworkAliases: map[string][]string{
					networkName: {"redis"},
				},
			},
			Started: true,
		})
		if err != nil {
			tc.Terminate(t)
			exitWithError(t, err, "Failed to start Redis")
			return nil, err
		}
		tc.RedisContainer = redisContainer

		redisHost, _ := redisContainer.Host(ctx)
		redisPort, _ := redisContainer.MappedPort(ctx, tcpRedisPort)
		tc.redisAt = fmt.Sprintf("%s:%s", redisHost, redisPort.Port())
		logMessage(t, "REDIS_URL=redis://%s", tc.redisAt)
	}

	logMessage(t, "Test containers started successfully")
	return tc, nil
}

func getDBInitEnvMap(opts ContainerOptions) map[string]string {
	switch opts.DBType {
	case "postgres", "postgresql":
		return map[string]string{
			"POSTGRES_PASSWORD": opts.DBPassword,
			"POSTGRES_USER":     opts.DBUser,
			"POSTGRES_DB":       opts.DBDatabase,
		}
	}
	return map[string]string{
		"MYSQL_ROOT_PASSWORD": opts.DBPassword,
		"MYSQL_DATABASE":      opts.DBDatabase,
		"MYSQL_USER":          opts.DBUser,
		"MYSQL_PASSWORD":      opts.DBPassword,
	}
}

func defaultDBImage(dbType string) string {
	switch dbType {
	case "postgres", "postgresql":
		return "postgres:16-alpine"
	case "mariadb":
		return "mariadb:11"
	}
	return "mysql:8.4"
}

func defaultDBPort(dbType string) string {
	if dbType == "postgres" || dbType == "postgresql" {
		return "5432"
	}
	return "3306"
}

func dbDataDir(dbType string) string {
	if dbType == "postgres" || dbType == "postgresql" {
		return "/var/lib/postgresql/data"
	}
	return "/var/lib/mysql"
}

func imageExists(ctx context.Context, imageName string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}

	for _, image := range images {
		for _, tag := range image.RepoTags {
			if tag == imageName {
				return true, nil
			}
		}
	}

	return false, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func exitWithError(t *testing.T, err error, msg string) {
	if t != nil {
		t.Fatalf(msg+": %v", err)
	} else {
		fmt.Printf(msg+": %v\n", err)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
