package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/swelljoe/wxlookup/internal/config"
	"github.com/swelljoe/wxlookup/internal/display"
	"github.com/swelljoe/wxlookup/internal/lookup"
	"github.com/swelljoe/wxlookup/internal/weather"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: wxlookup-cli <report-id>")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ok, err := run(ctx, os.Stdout, os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	if !ok {
		os.Exit(1)
	}
}

// run looks up one report and prints the banner message followed by the
// weather display. It reports whether the lookup succeeded.
func run(ctx context.Context, out io.Writer, id string) (bool, error) {
	cfg, err := config.Load()
	if err != nil {
		return false, err
	}

	client, err := weather.NewClient(cfg.ReportBaseURL, cfg.HTTPTimeout)
	if err != nil {
		return false, fmt.Errorf("failed to create report client: %w", err)
	}

	l := lookup.New(client)
	l.SetField(lookup.FieldID, id)
	res := l.Submit(ctx)

	if _, err := fmt.Fprintln(out, res.Message); err != nil {
		return false, err
	}
	if v := lookup.ViewModel(res); v != nil {
		if _, err := fmt.Fprintln(out); err != nil {
			return false, err
		}
		if err := display.RenderText(out, *v); err != nil {
			return false, err
		}
	}
	return res.Success, nil
}
