package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/japb1998/contacts/internal/config"
	"github.com/japb1998/contacts/internal/database"
	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/errs"
	"github.com/japb1998/contacts/internal/logger"
	"github.com/japb1998/contacts/internal/mapper"
	"github.com/japb1998/contacts/internal/model"
	"github.com/japb1998/contacts/internal/service"
)

type CLI struct {
	File        string `arg:"" type:"existingfile" help:"JSON array of contacts."`
	Concurrency int    `default:"8" help:"Parallel inserts."`
}

type report struct {
	Created  int64
	Skipped  int64
	Invalid  int64
	Failures []error
}

// creator is the part of the service the seeder uses.
type creator interface {
	Create(ctx context.Context, in dto.CreateContact) (*model.Contact, error)
}

// seed creates every record, skipping duplicates and invalid rows. Only
// store failures are collected as errors.
func seed(ctx context.Context, svc creator, records []dto.SeedContact, concurrency int, log *zap.Logger) report {
	var created, skipped, invalid atomic.Int64
	failures := make(chan error, len(records))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))

	for i, rec := range records {
		i := i
		in := mapper.SeedContactToCreate(rec)
		g.Go(func() error {
			_, err := svc.Create(ctx, in)
			var (
				conflict   *errs.ConflictError
				validation *errs.ValidationError
			)
			switch {
			case err == nil:
				created.Add(1)
			case errors.As(err, &conflict):
				log.Info("contact already exists", zap.Int("row", i), zap.String("email", in.Email))
				skipped.Add(1)
			case errors.As(err, &validation):
				log.Warn("invalid contact", zap.Int("row", i), zap.Any("errors", validation.Fields))
				invalid.Add(1)
			default:
				log.Error("failed to create contact", zap.Int("row", i), zap.Error(err))
				failures <- fmt.Errorf("row %d: %w", i, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	close(failures)

	r := report{Created: created.Load(), Skipped: skipped.Load(), Invalid: invalid.Load()}
	for err := range failures {
		r.Failures = append(r.Failures, err)
	}
	return r
}

func readRecords(path string) ([]dto.SeedContact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []dto.SeedContact
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("seed-contacts"),
		kong.Description("Bulk import contacts straight into the configured store."),
	)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	records, err := readRecords(cli.File)
	if err != nil {
		log.Fatal("failed to read contacts", zap.Error(err))
	}

	store, closeStore, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer func() { _ = closeStore(context.Background()) }()

	r := seed(ctx, service.NewContactService(store, log), records, cli.Concurrency, log)
	log.Info("seed finished",
		zap.Int("records", len(records)),
		zap.Int64("created", r.Created),
		zap.Int64("skipped", r.Skipped),
		zap.Int64("invalid", r.Invalid),
		zap.Int("failed", len(r.Failures)),
	)
	if len(r.Failures) > 0 {
		os.Exit(1)
	}
}
