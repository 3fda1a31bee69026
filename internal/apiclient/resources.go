package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	teamTimeout    = 45 * time.Second
	teamMaxRetries = 4
	teamDelay      = 2 * time.Second
)

// fetch runs req through the retry loop and unwraps the response envelope
// inside each attempt.
func fetch[T any](ctx context.Context, c *Client, req Request, s callSettings, failMsg string) (T, error) {
	if req.Timeout <= 0 {
		req.Timeout = s.timeout
	}
	return Retry(ctx, c.retrier, s.retry, func(ctx context.Context) (T, error) {
		var zero T
		raw, err := c.dispatch(ctx, req)
		if err != nil {
			return zero, err
		}
		return decodeEnvelope[T](raw, failMsg)
	})
}

// decodeEnvelope unwraps {status, data}. status "error" becomes a
// non-retryable UNKNOWN_ERROR carrying the envelope's message and field
// errors.
func decodeEnvelope[T any](raw json.RawMessage, failMsg string) (T, error) {
	var zero T
	var env Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, newError(CodeUnknown, 0, fmt.Sprintf("%s: invalid JSON response", failMsg), nil, err)
	}
	if env.Status == "error" {
		msg := env.Message
		if msg == "" {
			msg = failMsg
		}
		return zero, newError(CodeUnknown, 0, msg, errorBody{Errors: env.Errors}.fieldErrors(), nil)
	}
	if env.Data == nil {
		return zero, nil
	}
	return *env.Data, nil
}

func get(path ...string) Request {
	return Request{Method: http.MethodGet, Path: path}
}

// Posts lists blog posts. search and tags are optional filters.
func (c *Client) Posts(ctx context.Context, page, limit int, search string, tags []string, opts ...CallOption) (Page[BlogPost], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if search != "" {
		q.Set("search", search)
	}
	for _, tag := range tags {
		q.Add("tags", tag)
	}
	req := get("blog", "posts")
	req.Query = q
	return fetch[Page[BlogPost]](ctx, c, req, c.settings(opts), "Failed to fetch blog posts")
}

// Post fetches a single blog post by slug.
func (c *Client) Post(ctx context.Context, slug string, opts ...CallOption) (BlogPost, error) {
	return fetch[BlogPost](ctx, c, get("blog", "posts", slug), c.settings(opts), "Failed to fetch blog post")
}

func (c *Client) FeaturedPosts(ctx context.Context, limit int, opts ...CallOption) ([]BlogPost, error) {
	req := get("blog", "posts", "featured")
	req.Query = url.Values{"limit": {strconv.Itoa(limit)}}
	return fetch[[]BlogPost](ctx, c, req, c.settings(opts), "Failed to fetch featured posts")
}

func (c *Client) Tags(ctx context.Context, opts ...CallOption) ([]Tag, error) {
	return fetch[[]Tag](ctx, c, get("blog", "tags"), c.settings(opts), "Failed to fetch tags")
}

func (c *Client) RelatedPosts(ctx context.Context, slug string, limit int, opts ...CallOption) ([]BlogPost, error) {
	req := get("blog", "posts", slug, "related")
	req.Query = url.Values{"limit": {strconv.Itoa(limit)}}
	return fetch[[]BlogPost](ctx, c, req, c.settings(opts), "Failed to fetch related posts")
}

type resultList[T any] struct {
	Results []T `json:"results"`
}

// Products lists all products.
func (c *Client) Products(ctx context.Context, opts ...CallOption) ([]Product, error) {
	list, err := fetch[resultList[Product]](ctx, c, get("products"), c.settings(opts), "Failed to fetch products")
	if err != nil {
		return nil, err
	}
	return list.Results, nil
}

// Product fetches a single product by slug.
func (c *Client) Product(ctx context.Context, slug string, opts ...CallOption) (Product, error) {
	return fetch[Product](ctx, c, get("products", slug), c.settings(opts), "Failed to fetch product")
}

// ProductByID lists products and picks the one with the given id. The
// listing carries its own retries; a miss is a NOT_FOUND error.
func (c *Client) ProductByID(ctx context.Context, id int, opts ...CallOption) (Product, error) {
	products, err := c.Products(ctx, opts...)
	if err != nil {
		return Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, newError(CodeNotFound, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id), nil, nil)
}

// TeamMembers lists the team. The endpoint is slow, so unless the caller
// overrides them it gets a 45s per-attempt timeout, 4 retries and a 2s base
// delay.
func (c *Client) TeamMembers(ctx context.Context, opts ...CallOption) ([]TeamMember, error) {
	s := c.settings(opts)
	if !s.maxRetriesSet {
		s.retry.MaxRetries = teamMaxRetries
	}
	if !s.delaySet {
		s.retry.Delay = teamDelay
	}
	if !s.timeoutSet {
		s.timeout = teamTimeout
	}

	page, err := fetch[*Page[TeamMember]](ctx, c, get("team"), s, "Failed to fetch team members")
	if err != nil {
		return nil, err
	}
	if page == nil || page.Results == nil {
		return nil, newError(CodeUnknown, 0, "Invalid response structure from team API", nil, nil)
	}
	return page.Results, nil
}

func (c *Client) CaseStudies(ctx context.Context, opts ...CallOption) ([]CaseStudy, error) {
	list, err := fetch[resultList[CaseStudy]](ctx, c, get("case-studies"), c.settings(opts), "Failed to fetch case studies")
	if err != nil {
		return nil, err
	}
	return list.Results, nil
}
