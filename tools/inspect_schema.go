package main

import (
	"fmt"
	"log"

	"github.com/DanielPPerez/API-Estancia2/internal/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Prints the tables and indexes the migrations create, using SQLite
func main() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		log.Fatal(err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	var objects []struct {
		Type string
		Name string
		SQL  string
	}
	err = db.Raw("SELECT type, name, sql FROM sqlite_master WHERE sql IS NOT NULL AND name NOT LIKE 'sqlite_%' ORDER BY type DESC, name").
		Scan(&objects).Error
	if err != nil {
		log.Fatal(err)
	}

	for _, o := range objects {
		fmt.Printf("\n=== %s: %s ===\n%s\n", o.Type, o.Name, o.SQL)
	}
}
