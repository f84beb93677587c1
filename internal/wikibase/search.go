package wikibase

import (
	"context"
	"fmt"
	"strconv"
)

// SearchHit is one page returned by list=search
type SearchHit struct {
	Title  string `json:"title"`
	PageID int    `json:"pageid"`
}

// SearchResult is the decoded search response. Query is nil when the
// response carried no match list at all.
type SearchResult struct {
	Query *struct {
		Search []SearchHit `json:"search"`
	} `json:"query"`
}

// Hits returns the match list and whether one was present
func (r *SearchResult) Hits() ([]SearchHit, bool) {
	if r == nil || r.Query == nil || r.Query.Search == nil {
		return nil, false
	}
	return r.Query.Search, true
}

// Search runs a full-text search against the given namespace. Anonymous
// access is enough.
func (c *Client) Search(ctx context.Context, query string, limit int, namespace string) (*SearchResult, error) {
	if limit <= 0 {
		limit = 1
	}
	params := map[string]string{
		"action":   "query",
		"list":     "search",
		"srsearch": query,
		"srlimit":  strconv.Itoa(limit),
	}
	if namespace != "" {
		params["srnamespace"] = namespace
	}

	var result SearchResult
	if err := c.get(ctx, params, &result); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return &result, nil
}
