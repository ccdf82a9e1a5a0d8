package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/DanielPPerez/API-Estancia2/internal/testutil"
	"github.com/joho/godotenv"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run the development database (and Redis when WITH_REDIS=true) as local
containers, configured from the .env file.

Usage:

devenv [-h] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to the .env file

example
  devenv -f /path/to/something/.env
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	opts := testutil.ContainerOptionsFromEnv()
	containers, err := testutil.CreateTestContainers(nil, opts)
	if err != nil {
		log.Fatalf("Failed to create containers: %v\n", err)
	}

	cfg := containers.Config(os.Getenv("JWT_SECRET"))
	fmt.Printf("DB_TYPE=%s\nDB_HOST=%s\nDB_PORT=%s\nDB_DATABASE=%s\nDB_USER=%s\n",
		cfg.DBType, cfg.DBHost, cfg.DBPort, cfg.DBDatabase, cfg.DBUser)
	if cfg.RedisURL != "" {
		fmt.Printf("REDIS_URL=%s\n", cfg.RedisURL)
	}

	sig := <-sigs
	log.Printf("\nReceived signal: %v, terminating containers...\n", sig)
	containers.Terminate(nil)
}
