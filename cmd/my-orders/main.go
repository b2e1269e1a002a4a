// Command my-orders keeps a local list of booking ids and syncs it with the
// booking service.
//
//	my-orders add <bookingId>
//	my-orders remove <bookingId>
//	my-orders list
//	my-orders sync
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"ms-booking/internal/logger"
	"ms-booking/internal/orderids"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	defaultFile, err := orderids.DefaultPath()
	if err != nil {
		defaultFile = "orders.json"
	}
	defaultAPI := os.Getenv("BOOKING_API_URL")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:8080"
	}

	file := flag.String("file", defaultFile, "order id cache file")
	api := flag.String("api", defaultAPI, "booking service base URL")
	flag.Parse()

	store := orderids.NewStore(*file)
	log := logger.NewWriterLogger(os.Stderr)

	if err := run(store, orderids.NewClient(*api, log), flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "my-orders:", err)
		os.Exit(1)
	}
}

func run(store *orderids.Store, client *orderids.Client, args []string) error {
	if len(args) == 0 {
		return errors.New("expected a command: add, remove, list or sync")
	}

	switch args[0] {
	case "add", "remove":
		if len(args) != 2 {
			return fmt.Errorf("%s needs exactly one booking id", args[0])
		}
		if args[0] == "add" {
			return store.Add(args[1])
		}
		return store.Remove(args[1])

	case "list":
		for _, id := range store.List() {
			fmt.Println(id)
		}
		return nil

	case "sync":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		result, err := store.Reconcile(ctx, client)
		if errors.Is(err, orderids.ErrNothingToSync) {
			fmt.Println("no orders yet")
			return nil
		}
		if err != nil {
			return err
		}
		for _, id := range result.InvalidIDs {
			fmt.Printf("removed %s\n", id)
		}
		for _, b := range result.AllBookings {
			fmt.Printf("%s\t%s\t%s\t%s\n", b.ID, b.Status, b.Amount.StringFixed(2), b.CreatedAt.Format(time.RFC3339))
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", args[0])
}
