// Package main provides termloader, a bulk import tool that loads dictionary
// terms into the hosted store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/trendingvenues/termdict/internal/domain/term"
	"github.com/trendingvenues/termdict/internal/store/postgres"
	"github.com/trendingvenues/termdict/pkg/circuitbreaker"
	"github.com/trendingvenues/termdict/pkg/workerpool"
)

func main() {
	var (
		file    = flag.String("file", "", "JSON file of terms to load (defaults to the built-in dictionary)")
		dbURL   = flag.String("db", os.Getenv("DATABASE_URL"), "Postgres connection string")
		workers = flag.Int("workers", 8, "concurrent insert workers")
		email   = flag.String("email", "loader@trendingvenues.com", "audit email recorded on imported terms")
	)
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if *dbURL == "" {
		logger.Fatal("no database configured, set DATABASE_URL or pass -db")
	}

	terms, err := loadTerms(*file)
	if err != nil {
		logger.Fatal("failed to load input", zap.Error(err))
	}

	pool, err := pgxpool.New(context.Background(), *dbURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		logger.Fatal("database ping failed", zap.Error(err))
	}

	breaker := circuitbreaker.New(circuitbreaker.DefaultConfig("termloader"), logger)
	st := postgres.New(pool, breaker, logger)
	defer st.Close()

	audit := term.NewAuditStamp(*email, "")

	cfg := workerpool.DefaultConfig()
	cfg.Workers = *workers

	wp, err := workerpool.New(cfg, func(ctx context.Context, task *workerpool.Task) *workerpool.Result {
		t := task.Payload.(term.Term)
		draft := term.Draft{
			Term:       t.Term,
			Definition: t.Definition,
			Category:   t.Category,
			Code:       t.Code,
			CodeSystem: t.CodeSystem,
		}
		if _, err := st.Create(ctx, draft, audit); err != nil {
			return &workerpool.Result{TaskID: task.ID, Error: err}
		}
		return &workerpool.Result{TaskID: task.ID, Success: true}
	}, logger)
	if err != nil {
		logger.Fatal("failed to create worker pool", zap.Error(err))
	}

	start := time.Now()
	wp.Start()

	for _, t := range terms {
		if err := wp.Submit(&workerpool.Task{ID: t.Term, Payload: t}); err != nil {
			logger.Error("submit failed", zap.String("term", t.Term), zap.Error(err))
		}
	}

	wp.Stop()

	stats := wp.Stats()
	logger.Info("import finished",
		zap.Int64("loaded", stats.TasksCompleted),
		zap.Int64("failed", stats.TasksFailed),
		zap.Int64("retried", stats.TasksRetried),
		zap.Duration("elapsed", time.Since(start)),
	)

	if stats.TasksFailed > 0 {
		os.Exit(1)
	}
}

// loadTerms reads terms from a JSON file, or returns the built-in dictionary
// when no file is given.
func loadTerms(path string) ([]term.Term, error) {
	if path == "" {
		return term.SeedTerms(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var terms []term.Term
	if err := json.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for _, t := range terms {
		draft := term.Draft{
			Term:       t.Term,
			Definition: t.Definition,
			Category:   t.Category,
			Code:       t.Code,
			CodeSystem: t.CodeSystem,
		}
		if errs := term.ValidateDraft(term.NormalizeDraft(draft)); len(errs) > 0 {
			return nil, fmt.Errorf("invalid term %q: %s", t.Term, errs.Error())
		}
	}
	return terms, nil
}
