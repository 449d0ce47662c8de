package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
)

// Domain endpoint paths. These all require a valid bearer token, supplied
// transparently by the transport.
const (
	RouteMembers       = "/api/members"
	RouteMembersImport = "/api/members/import"
	RouteCenters       = "/api/centers"
	RouteEvents        = "/api/events"
)

// ListMembers fetches a page of members.
func (c *Client) ListMembers(ctx context.Context, params PageParams) (*Page[Member], error) {
	var page Page[Member]
	if err := c.do(ctx, http.MethodGet, RouteMembers+params.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListCenters fetches a page of centers.
func (c *Client) ListCenters(ctx context.Context, params PageParams) (*Page[Center], error) {
	var page Page[Center]
	if err := c.do(ctx, http.MethodGet, RouteCenters+params.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListEvents fetches a page of events.
func (c *Client) ListEvents(ctx context.Context, params PageParams) (*Page[Event], error) {
	var page Page[Event]
	if err := c.do(ctx, http.MethodGet, RouteEvents+params.query(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ImportMembersCSV uploads a CSV of members as a multipart form. The server
// validates and persists rows; the client only reports the outcome.
func (c *Client) ImportMembersCSV(ctx context.Context, filename string, csv io.Reader) (*ImportResult, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, csv); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+RouteMembersImport, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var result ImportResult
	if err := decodeEnvelope(resp, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// query renders the pagination parameters as a URL query string.
func (p PageParams) query() string {
	values := url.Values{}
	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		values.Set("search", p.Search)
	}
	if p.Sort != "" {
		values.Set("sort", p.Sort)
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
