package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/worklore/worklore"
	"github.com/worklore/worklore/core"
)

// Seed entries as category|title|body|comma,separated,tags. The last two
// fields are optional.
var entries = []string{
	"feature|Add OAuth login|Implemented the OAuth2 authorization code flow with PKCE and refresh token rotation.|auth,api",
	"feature|Ship CSV export|Users can now export their reports as CSV from the dashboard.|dashboard",
	"feature|Add dark mode toggle|Theme preference persists in local storage and follows the OS setting by default.|frontend",
	"feature|Per-team rate limits|Rate limiter now keys on team id instead of api key.|api,limits",
	"bugfix|Fix duplicate webhook delivery|Delivery worker now records an idempotency key before dispatching.|webhooks",
	"bugfix|Fix timezone drift in reports|Report bucketing used server local time instead of the account timezone.|reports",
	"bugfix|Fix memory growth in sync worker|The diff buffer was never returned to the pool on the error path.|sync",
	"bugfix|Escape search input in highlights|Raw query text reached innerHTML through the highlight renderer.|frontend,security",
	"incident|Payment gateway outage|Requests to the payment provider timed out for 40 minutes. Circuit breaker saved checkout for card-on-file users.|payments,sev2",
	"incident|Queue backlog after deploy|Consumer group rebalanced into a single instance after the 14:00 deploy. Backlog cleared in 25 minutes.|kafka,sev3",
	"incident|Certificate expiry on internal CA|Service mesh certs expired overnight. Renewal job had been failing silently for two weeks.|infra,sev2",
	"deployment|Roll out v2 ingestion pipeline|Gradual rollout at 5/25/100 percent over three days, error budget untouched.|pipeline",
	"deployment|Move staging to spot instances|Staging cluster now runs on spot with a small on-demand floor.|infra,cost",
	"config|Raise connection pool ceiling|Bumped pgbouncer default pool from 20 to 50 after the read replica upgrade.|postgres",
	"config|Tighten CORS allowlist|Dropped the wildcard origin that predated the public API.|api,security",
	"refactor|Extract billing client|Billing calls moved behind an interface so tests stop hitting the sandbox.|billing,testing",
	"refactor|Split the monolith scheduler|Cron definitions now live beside the jobs they trigger.|scheduler",
	"research|Vector index survey|Compared HNSW and IVF recall at equal latency budgets on our embedding corpus.|search",
	"research|Evaluate OTel tail sampling|Tail sampling keeps error traces at full fidelity for about 8 percent of head-sampling cost.|observability",
	"decision|Use Postgres for relational storage|Standardize on Postgres; team familiarity beats marginal benchmark wins.|postgres,adr",
	"decision|Standardize on structured logging|All services log through slog with a shared schema for request and trace ids.|observability,adr",
	"migration|Backfill normalized addresses|Batched backfill of 12M address rows with a 500ms sleep between batches.|postgres",
	"migration|Move sessions to Redis|Session reads dropped from 9ms to under 1ms after leaving the primary database.|redis",
	"note|Flaky test quarantine list|checkout_flow_test and retry_backoff_test are quarantined pending the clock injection work.|testing",
	"note|On-call handoff notes|Watch the payment provider status page; they have a maintenance window Saturday.|oncall",
	"task|Rotate the staging credentials|Quarterly rotation, tracked in the security calendar.|security",
	"task|Upgrade Go toolchain across services|Blocked on the two services still pinning the old linter.|infra",
}

var (
	dbPath   = flag.String("db", "./worklore_seed_db", "database directory to seed")
	seedFile = flag.String("src", "", "file of seed entries, one category|title|body|tags line each")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

func parseEntry(line string) (*core.Record, error) {
	fields := strings.SplitN(line, "|", 4)
	if len(fields) < 2 {
		return nil, fmt.Errorf("malformed entry %q: expected category|title|body|tags", line)
	}
	record := &core.Record{
		Category: strings.TrimSpace(fields[0]),
		Title:    strings.TrimSpace(fields[1]),
	}
	if len(fields) > 2 {
		record.Body = strings.TrimSpace(fields[2])
	}
	if len(fields) > 3 && fields[3] != "" {
		for _, tag := range strings.Split(fields[3], ",") {
			record.Tags = append(record.Tags, strings.TrimSpace(tag))
		}
	}
	return record, nil
}

func seed(ctx context.Context, engine *worklore.Engine, source iter.Seq[string]) error {
	var count int
	for line := range source {
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := parseEntry(line)
		if err != nil {
			return err
		}
		if _, err := engine.AddRecord(ctx, record); err != nil {
			return fmt.Errorf("failed to add %q: %w", record.Title, err)
		}
		count++
	}
	slog.Info("seeding complete", "records", count)
	return nil
}

func main() {
	engine, err := worklore.Open(*dbPath)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	var source iter.Seq[string]
	if *seedFile != "" {
		source, err = linesFromFile(*seedFile)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(entries)
	}

	if err := seed(context.Background(), engine, source); err != nil {
		panic(err)
	}
}
