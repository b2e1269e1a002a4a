// Command migrate manages the booking schema: up, down, to <version>, seed.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	"ms-booking/internal/config"
	"ms-booking/internal/database"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/logger"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate [-dir ./migrations] up | down | to <version> | seed")
	flag.PrintDefaults()
}

func main() {
	dir := flag.String("dir", migrations.DefaultOptions().Dir, "directory holding the SQL migrations")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.NewWriterLogger(os.Stderr)
	ctx := context.Background()

	sqldb, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	defer sqldb.Close()
	if err := sqldb.PingContext(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	opts := migrations.DefaultOptions()
	opts.Dir = *dir
	runner := migrations.NewRunner(bunDB, opts, log)
	defer runner.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = runner.Up()
	case "down":
		err = runner.Down()
	case "to":
		var version uint64
		version, err = strconv.ParseUint(flag.Arg(1), 10, 32)
		if err != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("Invalid version %q", flag.Arg(1)))
		}
		err = runner.To(uint(version))
	case "seed":
		if err = runner.Up(); err != nil {
			break
		}
		var n int
		n, err = database.SeedVenue(ctx, bunDB, database.DemoPlan())
		if err == nil {
			log.Info("MIGRATE", fmt.Sprintf("Seeded venue %s with %d seats", database.DemoPlan().VenueID, n))
		}
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
}
