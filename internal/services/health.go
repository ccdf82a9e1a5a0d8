package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/DanielPPerez/API-Estancia2/internal/cache"
	"github.com/DanielPPerez/API-Estancia2/internal/config"
	"github.com/DanielPPerez/API-Estancia2/internal/storage"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Cache        string            `json:"cache"`
	Storage      string            `json:"storage"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthDeps are the collaborators probed by HealthCheck; Cache and Store may be nil
type HealthDeps struct {
	DB    *gorm.DB
	Cache cache.RoleCache
	Store storage.DocumentStore
}

const healthTimeout = 3 * time.Second

func (r *HealthCheckResult) fail(component, message string, err error) {
	r.Status = "unhealthy"
	r.Details[component+"_error"] = err.Error()
	msg := fmt.Sprintf("%s: %v", message, err)
	if r.ErrorMessage == "" {
		r.ErrorMessage = msg
	} else {
		r.ErrorMessage += "; " + msg
	}
	log.Printf("Health check failed - %s: %v", component, err)
}

// HealthCheck performs a comprehensive health check of the service
func HealthCheck(ctx context.Context, cfg *config.Config, deps HealthDeps) HealthCheckResult {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	result := HealthCheckResult{
		Status:  "healthy",
		Cache:   "disabled",
		Storage: "disabled",
		Details: make(map[string]string),
	}

	// Check database connectivity
	sqlDB, err := deps.DB.DB()
	if err != nil {
		result.Database = "error"
		result.fail("database", "Database connection error", err)
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.fail("database", "Database ping failed", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	if deps.Cache != nil {
		if err := deps.Cache.Ping(ctx); err != nil {
			result.Cache = "unreachable"
			result.fail("cache", "Redis ping failed", err)
		} else {
			result.Cache = "ok"
		}
	}

	if deps.Store != nil {
		result.Details["storage_driver"] = deps.Store.Name()
		if err := deps.Store.Ping(ctx); err != nil {
			result.Storage = "unreachable"
			result.fail("storage", "Document storage check failed", err)
		} else {
			result.Storage = "ok"
		}
	}

	if result.Status == "healthy" {
		log.Println("Health check passed - all systems operational")
	}

	return result
}
