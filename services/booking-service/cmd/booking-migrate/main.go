package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/md-rashed-zaman/slotbook/libs/config"
	"github.com/md-rashed-zaman/slotbook/libs/db"
	"github.com/md-rashed-zaman/slotbook/services/booking-service/migrations"
)

// Usage: booking-migrate [up|down|force <version>]
func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	databaseURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		log.Fatal(err)
	}

	opts := db.MigrateOptions{MigrationsTable: "booking_schema_migrations"}
	cmd := "up"
	if len(os.Args) >= 2 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "up":
	case "down":
		opts.Down = true
	case "force":
		if len(os.Args) < 3 {
			log.Fatal("force needs a version")
		}
		version, err := strconv.Atoi(os.Args[2])
		if err != nil {
			log.Fatalf("invalid version: %v", err)
		}
		opts.ForceVersion = version
	default:
		log.Fatalf("unknown command %q", cmd)
	}

	if err := db.Migrate(databaseURL, migrations.FS, opts); err != nil {
		log.Fatal(err)
	}
	fmt.Println("migrations complete")
}
