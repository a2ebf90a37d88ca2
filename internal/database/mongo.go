package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/japb1998/contacts/internal/errs"
	"github.com/japb1998/contacts/internal/model"
)

type contactDocument struct {
	ID        bson.ObjectID  `bson:"_id,omitempty"`
	Name      string         `bson:"name"`
	Email     string         `bson:"email"`
	Phone     string         `bson:"phone"`
	Category  model.Category `bson:"category"`
	Message   string         `bson:"message,omitempty"`
	CreatedAt time.Time      `bson:"createdAt"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}

func (d contactDocument) toModel() model.Contact {
	return model.Contact{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		Category:  d.Category,
		Message:   d.Message,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

type facetResult struct {
	Data []contactDocument `bson:"data"`
	Meta []struct {
		Total int64 `bson:"total"`
	} `bson:"meta"`
}

// MongoRepository stores contacts in a single collection with a unique index
// on email.
type MongoRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
	now    func() time.Time
}

// ConnectMongo dials uri, verifies the connection and makes sure the indexes
// exist.
func ConnectMongo(ctx context.Context, uri, database, collection string, logger *zap.Logger) (*MongoRepository, func(context.Context) error, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	repo := NewMongoRepository(client.Database(database).Collection(collection), logger)
	if err := repo.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return repo, client.Disconnect, nil
}

func NewMongoRepository(coll *mongo.Collection, logger *zap.Logger) *MongoRepository {
	return &MongoRepository{
		coll:   coll,
		logger: logger.Named("mongo"),
		now:    time.Now,
	}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create contact indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Insert(ctx context.Context, c *model.Contact) error {
	ctx, span := getTracer().Start(ctx, "mongo.insert-contact")
	defer span.End()

	now := r.now().UTC().Truncate(time.Millisecond)
	doc := contactDocument{
		ID:        bson.NewObjectID(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Category:  c.Category,
		Message:   c.Message,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &errs.ConflictError{Field: "email", Value: c.Email}
		}
		r.logger.Error("failed to insert contact", zap.Error(err))
		return fmt.Errorf("error while creating contact: %w", err)
	}

	c.ID = doc.ID.Hex()
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*model.Contact, error) {
	ctx, span := getTracer().Start(ctx, "mongo.find-contact")
	defer span.End()

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.InvalidID(id)
	}

	var doc contactDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("error while getting contact: %w", err)
	}
	c := doc.toModel()
	return &c, nil
}

// FindPage runs a single aggregation that pages and counts the matches.
func (r *MongoRepository) FindPage(ctx context.Context, f ContactFilter, p PaginationOps) ([]model.Contact, int64, error) {
	ctx, span := getTracer().Start(ctx, "mongo.find-contacts")
	defer span.End()
	span.SetAttributes(attribute.Int("skip", p.Skip), attribute.Int("limit", p.Limit))

	cur, err := r.coll.Aggregate(ctx, pagePipeline(f, p))
	if err != nil {
		r.logger.Error("failed to aggregate contacts", zap.Error(err))
		return nil, 0, fmt.Errorf("error while retrieving contacts: %w", err)
	}
	defer cur.Close(ctx)

	var results []facetResult
	if err := cur.All(ctx, &results); err != nil {
		return nil, 0, fmt.Errorf("error while decoding contacts: %w", err)
	}

	contacts := make([]model.Contact, 0)
	var total int64
	if len(results) > 0 {
		for _, d := range results[0].Data {
			contacts = append(contacts, d.toModel())
		}
		if len(results[0].Meta) > 0 {
			total = results[0].Meta[0].Total
		}
	}
	return contacts, total, nil
}

func (r *MongoRepository) UpdateByID(ctx context.Context, id string, patch ContactPatch) (*model.Contact, error) {
	ctx, span := getTracer().Start(ctx, "mongo.update-contact")
	defer span.End()

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.InvalidID(id)
	}

	set := updateDocument(patch)
	set["updatedAt"] = r.now().UTC().Truncate(time.Millisecond)

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc contactDocument
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, errs.ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, &errs.ConflictError{Field: "email", Value: *patch.Email}
		}
		r.logger.Error("failed to update contact", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("error updating contact: %w", err)
	}
	c := doc.toModel()
	return &c, nil
}

func (r *MongoRepository) DeleteByID(ctx context.Context, id string) error {
	ctx, span := getTracer().Start(ctx, "mongo.delete-contact")
	defer span.End()

	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return errs.InvalidID(id)
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("error while deleting contact: %w", err)
	}
	if res.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	ctx, span := getTracer().Start(ctx, "mongo.delete-contacts")
	defer span.End()

	oids := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := bson.ObjectIDFromHex(id)
		if err != nil {
			return 0, errs.InvalidID(id)
		}
		oids = append(oids, oid)
	}

	res, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return 0, fmt.Errorf("error while deleting contacts: %w", err)
	}
	return res.DeletedCount, nil
}

func matchStage(f ContactFilter) bson.M {
	match := bson.M{}
	if f.Search != "" {
		re := bson.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		match["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"email": re},
			bson.M{"phone": re},
		}
	}
	if f.Category != "" && string(f.Category) != model.CategoryAll {
		match["category"] = f.Category
	}
	return match
}

func pagePipeline(f ContactFilter, p PaginationOps) mongo.Pipeline {
	data := bson.A{
		bson.M{"$sort": bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}},
		bson.M{"$skip": p.Skip},
	}
	if p.Limit > 0 {
		data = append(data, bson.M{"$limit": p.Limit})
	}

	return mongo.Pipeline{
		{{Key: "$match", Value: matchStage(f)}},
		{{Key: "$facet", Value: bson.M{
			"data": data,
			"meta": bson.A{bson.M{"$count": "total"}},
		}}},
	}
}

func updateDocument(p ContactPatch) bson.M {
	set := bson.M{}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if p.Phone != nil {
		set["phone"] = *p.Phone
	}
	if p.Category != nil {
		set["category"] = *p.Category
	}
	if p.Message != nil {
		set["message"] = *p.Message
	}
	return set
}
