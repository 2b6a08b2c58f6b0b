// Package client talks to the listings API over HTTP. It implements
// marketplace.ListingsAPI for the CLI.
package client

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

	"campusconnect/connect/internal/models"
)

const defaultTimeout = 15 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// Client is an HTTP client for the listings API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken authenticates requests with a bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default client, which has a 15s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchListings reads listings matching q.
func (c *Client) FetchListings(ctx context.Context, q models.ListingQuery) ([]models.Listing, error) {
	params := url.Values{}
	if q.Category != "" {
		params.Set("category", string(q.Category))
	}
	if q.PriceRange != nil {
		params.Set("min_price", strconv.FormatFloat(q.PriceRange.Min, 'f', -1, 64))
		params.Set("max_price", strconv.FormatFloat(q.PriceRange.Max, 'f', -1, 64))
	}
	if q.UniversityOnly {
		params.Set("university_only", "true")
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("page_size", strconv.Itoa(q.PageSize))
	}

	var envelope struct {
		Data  []models.Listing `json:"data"`
		Error *string          `json:"error"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/listings?"+params.Encode(), nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.Error != nil {
		return nil, errors.New(*envelope.Error)
	}
	return envelope.Data, nil
}

// ToggleFavorite flips the caller's favorite on listingID and returns the
// server's resulting state.
func (c *Client) ToggleFavorite(ctx context.Context, listingID string) (bool, error) {
	var res models.FavoriteToggleResult
	err := c.do(ctx, http.MethodPost, "/v1/listings/"+url.PathEscape(listingID)+"/favorite", nil, &res)
	if err != nil {
		return false, err
	}
	if !res.Success {
		if res.Error != nil {
			return false, errors.New(*res.Error)
		}
		return false, errors.New("failed to update favorite")
	}
	return res.IsFavorited, nil
}

// Upload sends a base64 payload to the upload endpoint.
func (c *Client) Upload(ctx context.Context, req models.UploadRequest) (*models.UploadResult, error) {
	var res models.UploadResult
	if err := c.do(ctx, http.MethodPost, "/api/upload", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var errBody struct {
			Error *string `json:"error"`
		}
		if json.Unmarshal(raw, &errBody) == nil && errBody.Error != nil {
			apiErr.Message = *errBody.Error
		}
		return apiErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
