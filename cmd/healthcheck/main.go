// main.go
//
// One-shot health probe printing JSON
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of API-Estancia2.
// API-Estancia2 is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// API-Estancia2 is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with API-Estancia2.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/DanielPPerez/API-Estancia2/internal/cache"
	"github.com/DanielPPerez/API-Estancia2/internal/config"
	"github.com/DanielPPerez/API-Estancia2/internal/database"
	"github.com/DanielPPerez/API-Estancia2/internal/services"
	"github.com/DanielPPerez/API-Estancia2/internal/storage"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	ctx := context.Background()
	deps := services.HealthDeps{DB: db}

	var cacheErr error
	if cfg.RedisURL != "" {
		client, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			cacheErr = err
		} else {
			defer client.Close()
			deps.Cache = cache.NewRedisRoleCache(client, cfg.RoleCacheTTL)
		}
	}

	if store, err := storage.New(cfg); err != nil {
		log.Printf("Document storage unavailable: %v", err)
	} else {
		deps.Store = store
	}

	// Perform health check
	result := services.HealthCheck(ctx, cfg, deps)
	if cacheErr != nil {
		result.Status = "unhealthy"
		result.Cache = "unreachable"
		result.ErrorMessage = fmt.Sprintf("Redis connection failed: %v", cacheErr)
	}

	// Output result as JSON
	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal health check result: %v", err)
	}

	fmt.Println(string(output))

	// Exit with appropriate code
	if result.Status != "healthy" {
		os.Exit(1)
	}
	os.Exit(0)
}
