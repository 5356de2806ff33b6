package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/olgasafonova/gramps-mcp-server/internal/auth"
	"github.com/olgasafonova/gramps-mcp-server/internal/base"
	"github.com/olgasafonova/gramps-mcp-server/internal/config"
	"github.com/olgasafonova/gramps-mcp-server/internal/format"
	"github.com/olgasafonova/gramps-mcp-server/internal/genealogy"
	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
)

var (
	heading = color.New(color.FgCyan, color.Bold)
	label   = color.New(color.FgHiBlack)
	good    = color.New(color.FgGreen)
	bad     = color.New(color.FgRed)
)

func newClient(cfg *config.Config, logger *slog.Logger) *gramps.Client {
	httpClient := base.NewClient(base.WithLogger(logger), base.WithTimeout(cfg.Timeout))
	tokens := auth.NewTokenManager(httpClient, logger, cfg.APIBase(), cfg.Username, cfg.Password)
	return gramps.NewClient(httpClient, tokens, logger, gramps.Options{
		APIBase:   cfg.APIBase(),
		TreeID:    cfg.TreeID,
		CacheTTL:  time.Minute,
		CacheSize: config.DefaultCacheSize,
	})
}

func timed(fn func() error) (time.Duration, error) {
	start := time.Now()
	err := fn()
	return time.Since(start), err
}

func row(name string, d time.Duration) {
	label.Printf("   %-28s", name)
	fmt.Printf("%v\n", d)
}

// firstPerson returns the handle of any person in the tree.
func firstPerson(ctx context.Context, client *gramps.Client) (string, error) {
	v, err := client.Call(ctx, gramps.People.List(), gramps.Params{"pagesize": 1}, nil)
	if err != nil {
		return "", err
	}
	people := gramps.AsObjects(v)
	if len(people) == 0 {
		return "", fmt.Errorf("tree has no people")
	}
	return people[0].Handle(), nil
}

// measureCachePerformance compares a cold record fetch with a cached one
func measureCachePerformance(ctx context.Context, client *gramps.Client, handle string) error {
	heading.Println("=== Record Cache ===")

	cold, err := timed(func() error {
		_, err := client.Record(ctx, gramps.People, handle, nil)
		return err
	})
	if err != nil {
		return err
	}
	warm, _ := timed(func() error {
		_, err := client.Record(ctx, gramps.People, handle, nil)
		return err
	})

	row("First fetch (network):", cold)
	row("Second fetch (cached):", warm)
	if warm > 0 {
		good.Printf("   Speedup: %.0fx faster\n", float64(cold)/float64(warm))
	}
	fmt.Println()
	return nil
}

// measureFormatting times the formatter views built from several fetches
func measureFormatting(ctx context.Context, client *gramps.Client, logger *slog.Logger, handle string) error {
	heading.Println("=== Formatting ===")

	f := format.New(client, logger)
	summary, _ := timed(func() error {
		f.Person(ctx, handle)
		return nil
	})
	row("Person summary:", summary)

	var text string
	detail, err := timed(func() error {
		var err error
		text, err = f.PersonDetail(ctx, handle)
		return err
	})
	if err != nil {
		return err
	}
	row("Person detail:", detail)
	label.Printf("   %-28s", "Detail size:")
	fmt.Printf("%d chars (~%d tokens)\n", len(text), len(text)/4)
	fmt.Println()
	return nil
}

// measureSearch times one tool call end to end, without caching
func measureSearch(ctx context.Context, client *gramps.Client, logger *slog.Logger) error {
	heading.Println("=== Search Tool ===")

	service := genealogy.New(client, logger)
	d, err := timed(func() error {
		_, err := service.FindType(ctx, genealogy.FindTypeArgs{Type: "person", MaxResults: 10})
		return err
	})
	if err != nil {
		return err
	}
	row("find_type (10 people):", d)
	fmt.Println()
	return nil
}

func main() {
	heading.Println("Gramps MCP Server - Performance Measurements")
	fmt.Println("============================================")
	fmt.Println()

	cfg, err := config.Load(os.Getenv("GRAMPS_MCP_CONFIG"))
	if err != nil {
		bad.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := newClient(cfg, logger)
	defer client.Close()

	ctx := context.Background()
	handle, err := firstPerson(ctx, client)
	if err != nil {
		bad.Printf("Error: %v\n", err)
		return
	}

	for _, step := range []func() error{
		func() error { return measureCachePerformance(ctx, client, handle) },
		func() error { return measureFormatting(ctx, client, logger, handle) },
		func() error { return measureSearch(ctx, client, logger) },
	} {
		if err := step(); err != nil {
			bad.Printf("   Error: %v\n", err)
			return
		}
	}

	heading.Println("=== Summary ===")
	fmt.Println("• Caching: repeated record fetches are served from memory")
	fmt.Println("• Coalescing: concurrent fetches of the same record share one request")
	fmt.Println("• Detail views fan out to events, places and citations, so they gain most from the cache")
}
