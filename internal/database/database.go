package database

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/japb1998/contacts/internal/config"
	"github.com/japb1998/contacts/internal/model"
)

var tracer trace.Tracer

func getTracer() trace.Tracer {
	if tracer != nil {
		return tracer
	}

	tracer = otel.Tracer("github.com/japb1998/contacts/internal/database")
	return tracer
}

// ContactRepository is the persistence contract of the contact service.
// Implementations must be safe for concurrent use.
type ContactRepository interface {
	// Insert assigns ID, CreatedAt and UpdatedAt on c. A taken email returns
	// an *errs.ConflictError.
	Insert(ctx context.Context, c *model.Contact) error
	FindByID(ctx context.Context, id string) (*model.Contact, error)
	// FindPage returns one page of matching contacts, newest first, and the
	// total number of matches.
	FindPage(ctx context.Context, f ContactFilter, p PaginationOps) ([]model.Contact, int64, error)
	UpdateByID(ctx context.Context, id string, patch ContactPatch) (*model.Contact, error)
	DeleteByID(ctx context.Context, id string) error
	// DeleteMany removes every listed contact that exists and reports how
	// many were removed.
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// ContactFilter narrows a listing. Search is matched case-insensitively as a
// substring of name, email or phone. An empty Category matches all.
type ContactFilter struct {
	Search   string
	Category model.Category
}

func (f ContactFilter) Matches(c model.Contact) bool {
	return c.Matches(f.Search, string(f.Category))
}

type PaginationOps struct {
	Limit int
	Skip  int
}

// ContactPatch holds the fields of a partial update. Nil fields are kept.
type ContactPatch struct {
	Name     *string
	Email    *string
	Phone    *string
	Category *model.Category
	Message  *string
}

func (p ContactPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.Category == nil && p.Message == nil
}

func (p ContactPatch) apply(c *model.Contact) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Message != nil {
		c.Message = *p.Message
	}
}

// Open builds the repository selected by cfg.StoreDriver. The returned
// function releases the underlying connection.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ContactRepository, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Info("using in-memory contact store")
		return NewMemoryRepository(), noop, nil

	case config.DriverDynamo:
		sess, err := newSession(cfg)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using dynamodb contact store", zap.String("table", cfg.ContactTable))
		return NewDynamoContactRepository(NewDynamoClient(sess), cfg.ContactTable, logger), noop, nil

	case config.DriverMongo:
		uri, err := mongoURI(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		repo, closeFn, err := ConnectMongo(ctx, uri, cfg.MongoDatabase, cfg.MongoCollection, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using mongodb contact store",
			zap.String("database", cfg.MongoDatabase),
			zap.String("collection", cfg.MongoCollection))
		return repo, closeFn, nil
	}

	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
