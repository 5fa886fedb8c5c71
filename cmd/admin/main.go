package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"travel_booking/internal/adapters/bookingapi"
	"travel_booking/internal/adapters/observability"
	"travel_booking/internal/domain"
	"travel_booking/internal/shared"
)

const usage = `usage: admin [-api URL] <hotels|rentCar|all> <command> [args]

commands:
  list                          print every record
  show ID                       print one record
  add k=v... [-image PATH]      create a record (image file required)
  edit ID k=v... [-image PATH]  update the given fields
  delete ID                     delete a record
  export FILE.xlsx              write the list to an Excel workbook
                                ("all" exports one sheet per kind)
`

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	api := flag.String("api", cfg.APIBaseURL, "API base URL")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := bookingapi.New(*api, cfg.ClientRPS, cfg.RequestTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize API client")
	}

	if err := run(ctx, client, flag.Args(), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		printError(err)
		os.Exit(1)
	}
}

func printError(err error) {
	var ve *domain.ValidationError
	var ae *bookingapi.APIError
	switch {
	case errors.As(err, &ve):
		fmt.Fprintln(os.Stderr, "validation failed:")
		for _, f := range ve.Fields {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Field, f.Message)
		}
	case errors.As(err, &ae) && len(ae.Fields) > 0:
		fmt.Fprintf(os.Stderr, "%s:\n", ae.Message)
		for _, f := range ae.Fields {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Field, f.Message)
		}
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
	}
}
