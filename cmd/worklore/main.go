// Copyright 2025 Worklore Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/worklore/worklore"
	"github.com/worklore/worklore/ai"
	"github.com/worklore/worklore/core"
	"github.com/worklore/worklore/fusion"
	"github.com/worklore/worklore/tuning"
)

func main() {
	app := &cli.App{
		Name:  "worklore",
		Usage: "Searchable log of engineering work",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the database directory",
				Value:   defaultDBPath(),
			},
			&cli.StringFlag{
				Name:  "embedding-host",
				Usage: "Embedding service host URL",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
				Value: "embeddinggemma",
			},
			&cli.IntFlag{
				Name:  "embedding-dimensions",
				Usage: "Embedding vector dimensions",
				Value: 384,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "add",
				Usage:  "Record a unit of work",
				Action: addCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "category",
						Aliases:  []string{"c"},
						Usage:    "Record category (feature, bugfix, incident, ...)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Short title",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "body",
						Aliases: []string{"b"},
						Usage:   "Longer description; reads stdin when set to -",
					},
					&cli.StringSliceFlag{
						Name:  "tag",
						Usage: "Tag to attach (repeatable)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search recorded work",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "profile",
						Aliases: []string{"p"},
						Usage:   "Tuning profile to score with",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   10,
					},
					&cli.StringSliceFlag{
						Name:    "category",
						Aliases: []string{"c"},
						Usage:   "Restrict results to a category (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Show per-result scoring detail",
					},
				},
			},
			{
				Name:      "show",
				Usage:     "Show a record by id",
				ArgsUsage: "<id>",
				Action:    showCommand,
			},
			{
				Name:   "recent",
				Usage:  "List records updated recently",
				Action: recentCommand,
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "since",
						Usage: "How far back to look",
						Value: 7 * 24 * time.Hour,
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete a record by id",
				ArgsUsage: "<id>",
				Action:    deleteCommand,
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the search indexes from stored records",
				Action: reindexCommand,
			},
			{
				Name:  "profile",
				Usage: "Manage tuning profiles",
				Subcommands: []*cli.Command{
					{
						Name:      "set",
						Usage:     "Create or update a tuning profile",
						ArgsUsage: "<name>",
						Action:    profileSetCommand,
						Flags: []cli.Flag{
							&cli.Float64Flag{
								Name:  "lexical-weight",
								Value: tuning.DefaultProfile().LexicalWeight,
							},
							&cli.Float64Flag{
								Name:  "vector-weight",
								Value: tuning.DefaultProfile().VectorWeight,
							},
							&cli.Float64Flag{
								Name:  "dampening-k",
								Value: tuning.DefaultProfile().DampeningK,
							},
							&cli.Float64Flag{
								Name:  "recency-weight",
								Value: tuning.DefaultProfile().RecencyWeight,
							},
							&cli.DurationFlag{
								Name:  "recency-half-life",
								Value: tuning.DefaultProfile().RecencyHalfLife,
							},
							&cli.IntFlag{
								Name:  "candidates",
								Value: tuning.DefaultProfile().CandidatesPerSource,
							},
							&cli.StringSliceFlag{
								Name:  "boost",
								Usage: "Category boost as category=multiplier (repeatable)",
							},
						},
					},
					{
						Name:      "show",
						Usage:     "Show a tuning profile",
						ArgsUsage: "<name>",
						Action:    profileShowCommand,
					},
					{
						Name:   "list",
						Usage:  "List tuning profiles",
						Action: profileListCommand,
					},
					{
						Name:      "delete",
						Usage:     "Delete a tuning profile",
						ArgsUsage: "<name>",
						Action:    profileDeleteCommand,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "worklore.db"
	}
	return home + "/.worklore/db"
}

func openEngine(c *cli.Context, opts ...worklore.EngineOption) (*worklore.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithEmbeddingDimensions(c.Int("embedding-dimensions")),
	)
	aiConfig.Normalize()
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts = append([]worklore.EngineOption{worklore.WithAIConfig(aiConfig)}, opts...)
	engine, err := worklore.Open(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func addCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	body := c.String("body")
	if body == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read body from stdin: %w", err)
		}
		body = string(data)
	}

	record, err := engine.AddRecord(context.Background(), &core.Record{
		Category: c.String("category"),
		Title:    c.String("title"),
		Body:     body,
		Tags:     c.StringSlice("tag"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("Recorded %d: %s\n", record.Id, record.Title)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	response, err := engine.SearchWithOptions(context.Background(), query, &fusion.SearchOptions{
		Profile:    c.String("profile"),
		Limit:      c.Int("limit"),
		Categories: c.StringSlice("category"),
	})
	if err != nil {
		return err
	}

	if response.Degraded {
		fmt.Fprintln(os.Stderr, "warning: one search source was unavailable, results may be incomplete")
	}

	if len(response.Results) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	for i, result := range response.Results {
		record := result.Record
		fmt.Printf("%2d. [%d] %-10s %s  (%.4f)\n", i+1, record.Id, record.Category, record.Title, result.Score)
		if c.Bool("explain") {
			fmt.Printf("      lexical rank %d (%.4f), vector rank %d (%.4f), recency %.4f, category x%.2f\n",
				result.LexicalRank, result.LexicalContribution,
				result.VectorRank, result.VectorContribution,
				result.RecencyTerm, result.CategoryMultiplier)
		}
	}
	return nil
}

func showCommand(c *cli.Context) error {
	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	record, err := engine.GetRecord(context.Background(), id)
	if err != nil {
		return err
	}

	fmt.Printf("ID:       %d\n", record.Id)
	fmt.Printf("Category: %s\n", record.Category)
	fmt.Printf("Title:    %s\n", record.Title)
	if len(record.Tags) > 0 {
		fmt.Printf("Tags:     %s\n", strings.Join(record.Tags, ", "))
	}
	fmt.Printf("Created:  %s\n", record.CreatedAt.Format(time.RFC3339))
	fmt.Printf("Updated:  %s\n", record.UpdatedAt.Format(time.RFC3339))
	if record.Body != "" {
		fmt.Printf("\n%s\n", record.Body)
	}
	return nil
}

func recentCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	now := time.Now()
	records, err := engine.Records().GetRecordsByDateRange(context.Background(), now.Add(-c.Duration("since")), now)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No recent records.")
		return nil
	}

	for _, record := range records {
		fmt.Printf("[%d] %s  %-10s %s\n", record.Id, record.UpdatedAt.Format("2006-01-02 15:04"), record.Category, record.Title)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.DeleteRecord(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("Deleted %d\n", id)
	return nil
}

func reindexCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	// Open already rebuilt the indexes; run again with progress output so
	// a failed startup rebuild surfaces its error here.
	return engine.Rebuild(context.Background(), os.Stderr)
}

func profileSetCommand(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("profile name is required")
	}

	boosts := make(map[string]float64)
	for _, pair := range c.StringSlice("boost") {
		category, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("invalid boost %q: expected category=multiplier", pair)
		}
		multiplier, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid boost multiplier %q: %w", value, err)
		}
		boosts[category] = multiplier
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	profile := &core.Profile{
		Name:                name,
		LexicalWeight:       c.Float64("lexical-weight"),
		VectorWeight:        c.Float64("vector-weight"),
		DampeningK:          c.Float64("dampening-k"),
		RecencyWeight:       c.Float64("recency-weight"),
		RecencyHalfLife:     c.Duration("recency-half-life"),
		CandidatesPerSource: c.Int("candidates"),
	}
	if len(boosts) > 0 {
		profile.CategoryBoosts = boosts
	}

	if err := engine.Profiles().Put(context.Background(), profile); err != nil {
		return err
	}
	fmt.Printf("Saved profile %q\n", name)
	return nil
}

func profileShowCommand(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("profile name is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	profile, err := engine.Profiles().Get(context.Background(), name)
	if err != nil {
		return err
	}
	printProfile(profile)
	return nil
}

func profileListCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	profiles, err := engine.Profiles().List(context.Background())
	if err != nil {
		return err
	}
	for _, profile := range profiles {
		fmt.Printf("%-16s lexical %.2f  vector %.2f  recency %.2f/%s\n",
			profile.Name, profile.LexicalWeight, profile.VectorWeight,
			profile.RecencyWeight, profile.RecencyHalfLife)
	}
	return nil
}

func profileDeleteCommand(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("profile name is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Profiles().Delete(context.Background(), name); err != nil {
		return err
	}
	fmt.Printf("Deleted profile %q\n", name)
	return nil
}

func printProfile(profile *core.Profile) {
	fmt.Printf("Name:                 %s\n", profile.Name)
	fmt.Printf("Lexical weight:       %.2f\n", profile.LexicalWeight)
	fmt.Printf("Vector weight:        %.2f\n", profile.VectorWeight)
	fmt.Printf("Dampening k:          %.1f\n", profile.DampeningK)
	fmt.Printf("Recency weight:       %.2f\n", profile.RecencyWeight)
	fmt.Printf("Recency half-life:    %s\n", profile.RecencyHalfLife)
	fmt.Printf("Candidates per index: %d\n", profile.CandidatesPerSource)
	if len(profile.CategoryBoosts) > 0 {
		categories := make([]string, 0, len(profile.CategoryBoosts))
		for category := range profile.CategoryBoosts {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			fmt.Printf("Boost %-14s x%.2f\n", category+":", profile.CategoryBoosts[category])
		}
	}
}

func parseID(arg string) (core.ID, error) {
	if arg == "" {
		return 0, fmt.Errorf("record id is required")
	}
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid record id %q: %w", arg, err)
	}
	return core.ID(id), nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
