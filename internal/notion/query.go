package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// MaxPageSize is the largest page size Notion accepts.
const MaxPageSize = 100

// QueryOptions contains optional parameters for a database query
type QueryOptions struct {
	// PageSize is clamped to 1..MaxPageSize; 0 means MaxPageSize.
	PageSize int
	// Limit stops paging once this many pages were collected. 0 means all.
	Limit int
}

type queryRequest struct {
	PageSize    int    `json:"page_size"`
	StartCursor string `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []json.RawMessage `json:"results"`
	HasMore    bool              `json:"has_more"`
	NextCursor *string           `json:"next_cursor"`
}

// QueryDatabase fetches every page of a database, following cursors.
// Results that cannot be decoded as pages are logged and skipped.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, opts QueryOptions) ([]Page, error) {
	if databaseID == "" {
		return nil, fmt.Errorf("notion: database id is required")
	}
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	var pages []Page
	cursor := ""
	for {
		result, err := c.queryPage(ctx, databaseID, queryRequest{PageSize: pageSize, StartCursor: cursor})
		if err != nil {
			return nil, err
		}

		for _, raw := range result.Results {
			var p Page
			if err := json.Unmarshal(raw, &p); err != nil {
				c.logger.Warn("skipping undecodable page", "err", err)
				continue
			}
			pages = append(pages, p)
		}

		if opts.Limit > 0 && len(pages) >= opts.Limit {
			return pages[:opts.Limit], nil
		}
		if !result.HasMore || result.NextCursor == nil || *result.NextCursor == "" {
			break
		}
		cursor = *result.NextCursor
	}

	c.logger.Debug("notion query complete", "database", databaseID, "pages", len(pages))
	return pages, nil
}

// queryPage fetches a single page of results
func (c *Client) queryPage(ctx context.Context, databaseID string, body queryRequest) (*queryResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	reqURL := fmt.Sprintf("%s/databases/%s/query", c.baseURL, databaseID)
	req, err := http.NewRequest(http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var result queryResponse
	if err := decodeJSON(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("notion: decode query response: %w", err)
	}
	return &result, nil
}
