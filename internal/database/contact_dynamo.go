package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/japb1998/contacts/internal/errs"
	"github.com/japb1998/contacts/internal/model"
)

const (
	contactPartition = "CONTACT"
	emailPartition   = "EMAIL"
	listIndexName    = "listIndex"

	batchGetSize   = 100
	batchWriteSize = 25
)

// contactItem is the stored shape of a contact. Listing goes through the
// listIndex GSI whose sort key orders contacts newest first.
type contactItem struct {
	PK            string    `json:"pk"`
	SK            string    `json:"sk"`
	ListPartition string    `json:"listPartition"`
	ListKey       string    `json:"listKey"`
	Name          string    `json:"name"`
	NameLower     string    `json:"nameLower"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Category      string    `json:"category"`
	Message       string    `json:"message,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// emailItem reserves an email for one contact.
type emailItem struct {
	PK        string `json:"pk"`
	SK        string `json:"sk"`
	ContactID string `json:"contactId"`
}

func newContactItem(c model.Contact) contactItem {
	return contactItem{
		PK:            contactPartition,
		SK:            c.ID,
		ListPartition: contactPartition,
		ListKey:       listKey(c.CreatedAt, c.ID),
		Name:          c.Name,
		NameLower:     strings.ToLower(c.Name),
		Email:         c.Email,
		Phone:         c.Phone,
		Category:      string(c.Category),
		Message:       c.Message,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func (i contactItem) toModel() model.Contact {
	return model.Contact{
		ID:        i.SK,
		Name:      i.Name,
		Email:     i.Email,
		Phone:     i.Phone,
		Category:  model.Category(i.Category),
		Message:   i.Message,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// listKey sorts ascending from the newest contact to the oldest. Contacts
// created in the same instant fall back to id order.
func listKey(createdAt time.Time, id string) string {
	return fmt.Sprintf("%019d#%s", math.MaxInt64-createdAt.UnixNano(), id)
}

func contactKey(id string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"pk": {S: aws.String(contactPartition)},
		"sk": {S: aws.String(id)},
	}
}

func emailKey(email string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"pk": {S: aws.String(emailPartition)},
		"sk": {S: aws.String(email)},
	}
}

// DynamoContactRepository stores contacts and their email reservations in a
// single table.
type DynamoContactRepository struct {
	Client    *DynamoClient
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

func NewDynamoContactRepository(client *DynamoClient, tableName string, logger *zap.Logger) *DynamoContactRepository {
	l := logger.Named("dynamodb")
	return &DynamoContactRepository{
		Client:    client.withLogger(l),
		tableName: tableName,
		logger:    l,
		now:       time.Now,
	}
}

func (r *DynamoContactRepository) Insert(ctx context.Context, c *model.Contact) error {
	ctx, span := getTracer().Start(ctx, "dynamodb.insert-contact")
	defer span.End()

	now := r.now().UTC()
	created := *c
	created.ID = bson.NewObjectID().Hex()
	created.CreatedAt = now
	created.UpdatedAt = now

	contactPut, err := r.put(newContactItem(created), "attribute_not_exists(pk)")
	if err != nil {
		return err
	}
	emailPut, err := r.put(emailItem{PK: emailPartition, SK: created.Email, ContactID: created.ID}, "attribute_not_exists(pk)")
	if err != nil {
		return err
	}

	err = r.Client.TransactWrite(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []*dynamodb.TransactWriteItem{contactPut, emailPut},
	})
	if err != nil {
		if slices.Contains(cancelledAt(err), 1) {
			return &errs.ConflictError{Field: "email", Value: created.Email}
		}
		r.logger.Error("failed to create contact", zap.Error(err))
		return fmt.Errorf("error while creating contact: %w", err)
	}

	*c = created
	return nil
}

func (r *DynamoContactRepository) FindByID(ctx context.Context, id string) (*model.Contact, error) {
	ctx, span := getTracer().Start(ctx, "dynamodb.find-contact")
	defer span.End()

	item, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}
	c := item.toModel()
	return &c, nil
}

// FindPage counts and pages the matches concurrently. The page query walks
// the index until skip+limit matches were collected, then slices.
func (r *DynamoContactRepository) FindPage(ctx context.Context, f ContactFilter, p PaginationOps) ([]model.Contact, int64, error) {
	ctx, span := getTracer().Start(ctx, "dynamodb.find-contacts")
	defer span.End()
	span.SetAttributes(attribute.Int("skip", p.Skip), attribute.Int("limit", p.Limit))

	errChan := make(chan error, 2)
	countChan := make(chan int64, 1)
	itemsChan := make(chan []model.Contact, 1)

	go func() {
		if count, err := r.count(ctx, f); err != nil {
			errChan <- err
		} else {
			countChan <- count
		}
	}()

	go func() {
		if items, err := r.page(ctx, f, p); err != nil {
			errChan <- err
		} else {
			itemsChan <- items
		}
	}()

	var (
		total    int64
		contacts []model.Contact
	)
	for i := 0; i < 2; i++ {
		select {
		case t := <-countChan:
			total = t
		case t := <-itemsChan:
			contacts = t
		case err := <-errChan:
			return nil, 0, err
		}
	}
	return contacts, total, nil
}

func (r *DynamoContactRepository) UpdateByID(ctx context.Context, id string, patch ContactPatch) (*model.Contact, error) {
	ctx, span := getTracer().Start(ctx, "dynamodb.update-contact")
	defer span.End()

	current, err := r.get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := current.toModel()
	patch.apply(&updated)
	updated.UpdatedAt = r.now().UTC()

	contactPut, err := r.put(newContactItem(updated), "attribute_exists(pk)")
	if err != nil {
		return nil, err
	}
	items := []*dynamodb.TransactWriteItem{contactPut}

	emailChanged := updated.Email != current.Email
	if emailChanged {
		emailPut, err := r.put(emailItem{PK: emailPartition, SK: updated.Email, ContactID: updated.ID}, "attribute_not_exists(pk)")
		if err != nil {
			return nil, err
		}
		items = append(items, emailPut, &dynamodb.TransactWriteItem{
			Delete: &dynamodb.Delete{TableName: &r.tableName, Key: emailKey(current.Email)},
		})
	}

	if err := r.Client.TransactWrite(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		for _, i := range cancelledAt(err) {
			switch {
			case i == 0:
				return nil, errs.ErrNotFound
			case i == 1 && emailChanged:
				return nil, &errs.ConflictError{Field: "email", Value: updated.Email}
			}
		}
		r.logger.Error("failed to update contact", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("error updating contact: %w", err)
	}
	return &updated, nil
}

func (r *DynamoContactRepository) DeleteByID(ctx context.Context, id string) error {
	ctx, span := getTracer().Start(ctx, "dynamodb.delete-contact")
	defer span.End()

	current, err := r.get(ctx, id)
	if err != nil {
		return err
	}

	err = r.Client.TransactWrite(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []*dynamodb.TransactWriteItem{
			{Delete: &dynamodb.Delete{
				TableName:           &r.tableName,
				Key:                 contactKey(current.SK),
				ConditionExpression: aws.String("attribute_exists(pk)"),
			}},
			{Delete: &dynamodb.Delete{TableName: &r.tableName, Key: emailKey(current.Email)}},
		},
	})
	if err != nil {
		if slices.Contains(cancelledAt(err), 0) {
			return errs.ErrNotFound
		}
		return fmt.Errorf("error while deleting contact: %w", err)
	}
	return nil
}

// DeleteMany looks up which ids exist and deletes those together with their
// email reservations. Batches are not atomic with each other.
func (r *DynamoContactRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	ctx, span := getTracer().Start(ctx, "dynamodb.delete-contacts")
	defer span.End()

	seen := make(map[string]struct{}, len(ids))
	keys := make([]map[string]*dynamodb.AttributeValue, 0, len(ids))
	for _, id := range ids {
		oid, err := bson.ObjectIDFromHex(id)
		if err != nil {
			return 0, errs.InvalidID(id)
		}
		if _, ok := seen[oid.Hex()]; ok {
			continue
		}
		seen[oid.Hex()] = struct{}{}
		keys = append(keys, contactKey(oid.Hex()))
	}

	existing, err := r.batchGet(ctx, keys)
	if err != nil {
		return 0, err
	}

	requests := make([]*dynamodb.WriteRequest, 0, len(existing)*2)
	for _, item := range existing {
		requests = append(requests,
			&dynamodb.WriteRequest{DeleteRequest: &dynamodb.DeleteRequest{Key: contactKey(item.SK)}},
			&dynamodb.WriteRequest{DeleteRequest: &dynamodb.DeleteRequest{Key: emailKey(item.Email)}},
		)
	}

	for start := 0; start < len(requests); start += batchWriteSize {
		end := min(start+batchWriteSize, len(requests))
		pending := map[string][]*dynamodb.WriteRequest{r.tableName: requests[start:end]}

		for len(pending) > 0 {
			out, err := r.Client.BatchWrite(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return 0, fmt.Errorf("error while deleting contacts: %w", err)
			}
			pending = out.UnprocessedItems
		}
	}

	return int64(len(existing)), nil
}

func (r *DynamoContactRepository) get(ctx context.Context, id string) (*contactItem, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.InvalidID(id)
	}

	out, err := r.Client.GetOne(ctx, &dynamodb.GetItemInput{
		TableName:      &r.tableName,
		Key:            contactKey(oid.Hex()),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("error while getting contact: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, errs.ErrNotFound
	}

	var item contactItem
	if err := dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("error while getting contact: %w", err)
	}
	return &item, nil
}

func (r *DynamoContactRepository) put(v any, condition string) (*dynamodb.TransactWriteItem, error) {
	item, err := dynamodbattribute.MarshalMap(v)
	if err != nil {
		r.logger.Error("failed to marshal item", zap.Error(err))
		return nil, fmt.Errorf("error while marshalling item: %w", err)
	}
	return &dynamodb.TransactWriteItem{
		Put: &dynamodb.Put{
			TableName:           &r.tableName,
			Item:                item,
			ConditionExpression: aws.String(condition),
		},
	}, nil
}

func (r *DynamoContactRepository) batchGet(ctx context.Context, keys []map[string]*dynamodb.AttributeValue) ([]contactItem, error) {
	found := make([]contactItem, 0, len(keys))

	for start := 0; start < len(keys); start += batchGetSize {
		end := min(start+batchGetSize, len(keys))
		pending := map[string]*dynamodb.KeysAndAttributes{
			r.tableName: {Keys: keys[start:end], ConsistentRead: aws.Bool(true)},
		}

		for len(pending) > 0 {
			out, err := r.Client.BatchGet(ctx, &dynamodb.BatchGetItemInput{RequestItems: pending})
			if err != nil {
				return nil, fmt.Errorf("error while getting contacts: %w", err)
			}
			var items []contactItem
			if err := dynamodbattribute.UnmarshalListOfMaps(out.Responses[r.tableName], &items); err != nil {
				return nil, fmt.Errorf("error while unmarshalling contacts: %w", err)
			}
			found = append(found, items...)
			pending = out.UnprocessedKeys
		}
	}
	return found, nil
}

// listQuery builds the index query shared by count and page.
func (r *DynamoContactRepository) listQuery(f ContactFilter) (*dynamodb.QueryInput, error) {
	names := map[string]*string{
		"#listPartition": aws.String("listPartition"),
	}
	values := map[string]any{
		":listPartition": contactPartition,
	}
	filters := make([]string, 0, 2)

	if f.Search != "" {
		names["#nameLower"] = aws.String("nameLower")
		names["#email"] = aws.String("email")
		names["#phone"] = aws.String("phone")
		values[":search"] = strings.ToLower(f.Search)
		filters = append(filters, "(contains(#nameLower, :search) OR contains(#email, :search) OR contains(#phone, :search))")
	}
	if f.Category != "" && string(f.Category) != model.CategoryAll {
		names["#category"] = aws.String("category")
		values[":category"] = string(f.Category)
		filters = append(filters, "#category = :category")
	}

	marshaledValues, err := dynamodbattribute.MarshalMap(values)
	if err != nil {
		r.logger.Error("failed to marshal values", zap.Error(err))
		return nil, errors.New("error while retrieving contacts")
	}

	input := &dynamodb.QueryInput{
		TableName:                 &r.tableName,
		IndexName:                 aws.String(listIndexName),
		KeyConditionExpression:    aws.String("#listPartition = :listPartition"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: marshaledValues,
		ScanIndexForward:          aws.Bool(true),
	}
	if len(filters) > 0 {
		input.FilterExpression = aws.String(strings.Join(filters, " AND "))
	}
	return input, nil
}

func (r *DynamoContactRepository) count(ctx context.Context, f ContactFilter) (int64, error) {
	input, err := r.listQuery(f)
	if err != nil {
		return 0, err
	}
	input.Select = aws.String(dynamodb.SelectCount)

	var total int64
	for {
		out, err := r.Client.Query(ctx, input)
		if err != nil {
			return 0, errors.New("error while counting contacts")
		}
		total += aws.Int64Value(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *DynamoContactRepository) page(ctx context.Context, f ContactFilter, p PaginationOps) ([]model.Contact, error) {
	input, err := r.listQuery(f)
	if err != nil {
		return nil, err
	}

	collected := make([]contactItem, 0)
	for {
		out, err := r.Client.Query(ctx, input)
		if err != nil {
			return nil, errors.New("error while retrieving contacts")
		}

		var items []contactItem
		if err := dynamodbattribute.UnmarshalListOfMaps(out.Items, &items); err != nil {
			r.logger.Error("failed to unmarshal contacts", zap.Error(err))
			return nil, fmt.Errorf("error while retrieving contacts error: %w", err)
		}
		collected = append(collected, items...)

		if len(out.LastEvaluatedKey) == 0 || (p.Limit > 0 && len(collected) >= p.Skip+p.Limit) {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}

	// manual pagination.
	switch {
	case len(collected) <= p.Skip:
		collected = collected[:0]
	case p.Limit > 0 && len(collected) > p.Skip+p.Limit:
		collected = collected[p.Skip : p.Skip+p.Limit]
	default:
		collected = collected[p.Skip:]
	}

	contacts := make([]model.Contact, 0, len(collected))
	for _, item := range collected {
		contacts = append(contacts, item.toModel())
	}
	return contacts, nil
}

// cancelledAt returns the positions of the transaction items whose condition
// failed, or nil when err is not a cancellation.
func cancelledAt(err error) []int {
	var tce *dynamodb.TransactionCanceledException
	if !errors.As(err, &tce) {
		return nil
	}
	var failed []int
	for i, reason := range tce.CancellationReasons {
		if reason != nil && aws.StringValue(reason.Code) == "ConditionalCheckFailed" {
			failed = append(failed, i)
		}
	}
	return failed
}
