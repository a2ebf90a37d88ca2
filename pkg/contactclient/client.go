// Package contactclient is a Go client for the contacts REST API.
package contactclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/japb1998/contacts/internal/cache"
	"github.com/japb1998/contacts/internal/dto"
	"github.com/japb1998/contacts/internal/errs"
	"github.com/japb1998/contacts/internal/listing"
	"github.com/japb1998/contacts/internal/model"
)

const (
	listNamespace    = "contacts"
	contactNamespace = "contact"

	defaultTimeout = 10 * time.Second
)

// APIError is a non 2xx answer decoded from the error envelope.
type APIError struct {
	StatusCode int
	Message    string
	// Errors holds the field errors of a 400.
	Errors []errs.FieldError
	// Conflict describes the clashing field of a 409.
	Conflict *dto.ConflictDetail
}

func (e *APIError) Error() string {
	return fmt.Sprintf("contacts api: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) IsNotFound() bool   { return e.StatusCode == http.StatusNotFound }
func (e *APIError) IsConflict() bool   { return e.StatusCode == http.StatusConflict }
func (e *APIError) IsValidation() bool { return e.StatusCode == http.StatusBadRequest }

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

type Client struct {
	baseURL  string
	http     *http.Client
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithCache caches list pages and single contacts. A ttl of zero uses the
// store default.
func WithCache(store cache.Store, ttl time.Duration) Option {
	return func(cl *Client) {
		cl.cache = store
		cl.cacheTTL = ttl
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(cl *Client) {
		cl.logger = logger
	}
}

// New returns a client for the API mounted at baseURL, e.g.
// http://localhost:8001/api/v1.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	c.logger = c.logger.Named("contactclient")
	return c
}

var _ listing.Source = (*Client)(nil)

// List fetches one page. Zero values are left to the server defaults.
func (c *Client) List(ctx context.Context, q listing.Query) (dto.ContactPage, error) {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	key := v.Encode()

	version, versioned := c.cacheVersion(ctx, listNamespace)
	var page dto.ContactPage
	if versioned && c.cacheGet(ctx, listNamespace, key, &page) {
		return page, nil
	}

	var res dto.ListResponse
	if err := c.do(ctx, http.MethodGet, "/contacts?"+key, nil, &res); err != nil {
		return dto.ContactPage{}, err
	}
	page = dto.ContactPage{Contacts: res.Data, Pagination: res.Pagination}

	if versioned {
		c.cacheSet(ctx, listNamespace, version, key, page)
	}
	return page, nil
}

// Count returns the unfiltered number of contacts.
func (c *Client) Count(ctx context.Context) (int64, error) {
	return listing.Count(ctx, c)
}

func (c *Client) Get(ctx context.Context, id string) (*model.Contact, error) {
	version, versioned := c.cacheVersion(ctx, contactNamespace)
	var contact model.Contact
	if versioned && c.cacheGet(ctx, contactNamespace, id, &contact) {
		return &contact, nil
	}

	var res dto.ContactResponse
	if err := c.do(ctx, http.MethodGet, "/contacts/"+url.PathEscape(id), nil, &res); err != nil {
		return nil, err
	}

	if versioned {
		c.cacheSet(ctx, contactNamespace, version, id, res.Data)
	}
	return res.Data, nil
}

func (c *Client) Create(ctx context.Context, in dto.CreateContact) (*model.Contact, error) {
	var res dto.ContactResponse
	if err := c.do(ctx, http.MethodPost, "/contacts", in, &res); err != nil {
		return nil, err
	}
	c.invalidate(ctx)
	return res.Data, nil
}

func (c *Client) Update(ctx context.Context, id string, in dto.UpdateContact) (*model.Contact, error) {
	var res dto.ContactResponse
	if err := c.do(ctx, http.MethodPut, "/contacts/"+url.PathEscape(id), in, &res); err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return res.Data, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	var res dto.MessageResponse
	if err := c.do(ctx, http.MethodDelete, "/contacts/"+url.PathEscape(id), nil, &res); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

func (c *Client) BulkDelete(ctx context.Context, ids []string) (dto.BulkDeleteResult, error) {
	var res dto.BulkDeleteResponse
	if err := c.do(ctx, http.MethodPost, "/contacts/bulk-delete", dto.BulkDelete{IDs: ids}, &res); err != nil {
		return dto.BulkDeleteResult{}, err
	}
	c.invalidate(ctx, ids...)
	return res.BulkDeleteResult, nil
}

// Health calls the liveness probe. It is never cached.
func (c *Client) Health(ctx context.Context) (dto.HealthResponse, error) {
	var res dto.HealthResponse
	err := c.do(ctx, http.MethodGet, "/healthcheck", nil, &res)
	return res, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var envelope struct {
		Message string          `json:"message"`
		Errors  json.RawMessage `json:"errors"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Message == "" {
		apiErr.Message = http.StatusText(status)
		return apiErr
	}
	apiErr.Message = envelope.Message

	if len(envelope.Errors) == 0 {
		return apiErr
	}
	switch envelope.Errors[0] {
	case '[':
		_ = json.Unmarshal(envelope.Errors, &apiErr.Errors)
	case '{':
		var detail dto.ConflictDetail
		if json.Unmarshal(envelope.Errors, &detail) == nil {
			apiErr.Conflict = &detail
		}
	}
	return apiErr
}

func (c *Client) cacheGet(ctx context.Context, namespace, key string, dst any) bool {
	if c.cache == nil {
		return false
	}
	found, err := c.cache.Get(ctx, namespace, key, dst)
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("namespace", namespace), zap.Error(err))
		return false
	}
	return found
}

// cacheVersion reports false when caching is off or the store is unreachable.
func (c *Client) cacheVersion(ctx context.Context, namespace string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	v, err := c.cache.Version(ctx, namespace)
	if err != nil {
		c.logger.Warn("cache version read failed", zap.String("namespace", namespace), zap.Error(err))
		return "", false
	}
	return v, true
}

// cacheSet stores v unless the namespace was invalidated after version was read.
func (c *Client) cacheSet(ctx context.Context, namespace, version, key string, v any) {
	if err := c.cache.SetAt(ctx, namespace, version, key, v, c.cacheTTL); err != nil {
		c.logger.Warn("cache write failed", zap.String("namespace", namespace), zap.Error(err))
	}
}

// Refresh forgets every cached list and contact so the next reads go to the
// API.
func (c *Client) Refresh(ctx context.Context) {
	if c.cache == nil {
		return
	}
	for _, ns := range []string{listNamespace, contactNamespace} {
		if err := c.cache.Invalidate(ctx, ns); err != nil {
			c.logger.Warn("cache invalidation failed", zap.String("namespace", ns), zap.Error(err))
		}
	}
}

// invalidate drops every cached list and the given contacts.
func (c *Client) invalidate(ctx context.Context, ids ...string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx, listNamespace); err != nil {
		c.logger.Warn("cache invalidation failed", zap.Error(err))
	}
	for _, id := range ids {
		if err := c.cache.Delete(ctx, contactNamespace, id); err != nil {
			c.logger.Warn("cache delete failed", zap.String("id", id), zap.Error(err))
		}
	}
}
