// Package resolve answers whether an entity already exists in the knowledge base.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/openalexbot/internal/wikibase"
)

// Searcher is the knowledge-base search collaborator
type Searcher interface {
	Search(ctx context.Context, query string, limit int, namespace string) (*wikibase.SearchResult, error)
}

// Every resolved id ends up as an item value, so only items match
var itemIDPattern = regexp.MustCompile(`^Q\d+$`)

// Resolver maps search queries to entity ids. Only found ids are memoized,
// so a query that missed once is asked again.
type Resolver struct {
	search    Searcher
	namespace string
	found     *gocache.Cache
	logger    *slog.Logger
}

// New creates a resolver searching the given namespace ("" for all)
func New(search Searcher, namespace string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		search:    search,
		namespace: namespace,
		found:     gocache.New(gocache.NoExpiration, 0),
		logger:    logger,
	}
}

// Statement builds the structured filter matching entities with property=value
func Statement(property, value string) string {
	return fmt.Sprintf("haswbstatement:%s=%s", property, value)
}

// Exists returns the id of the first match for query
func (r *Resolver) Exists(ctx context.Context, query string) (string, bool, error) {
	if id, ok := r.found.Get(query); ok {
		return id.(string), true, nil
	}

	res, err := r.search.Search(ctx, query, 1, r.namespace)
	if err != nil {
		return "", false, fmt.Errorf("resolve %q: %w", query, err)
	}

	hits, present := res.Hits()
	if !present {
		// A response without a match list is indistinguishable from an
		// error shape; report NotFound so the query stays re-resolvable.
		r.logger.Debug("search returned no match list", "query", query)
		return "", false, nil
	}
	if len(hits) == 0 {
		return "", false, nil
	}

	id, ok := entityID(hits[0].Title)
	if !ok {
		r.logger.Warn("search hit is not an item", "query", query, "title", hits[0].Title)
		return "", false, nil
	}

	r.found.Set(query, id, gocache.NoExpiration)
	return id, true, nil
}

// ByStatement resolves the entity carrying property=value
func (r *Resolver) ByStatement(ctx context.Context, property, value string) (string, bool, error) {
	return r.Exists(ctx, Statement(property, value))
}

// Remember records an id learned outside search, e.g. a freshly created item
func (r *Resolver) Remember(query, id string) {
	r.found.Set(query, id, gocache.NoExpiration)
}

// entityID extracts Q42 from titles like "Q42" or "Item:Q42"
func entityID(title string) (string, bool) {
	if i := strings.LastIndex(title, ":"); i >= 0 {
		title = title[i+1:]
	}
	if !itemIDPattern.MatchString(title) {
		return "", false
	}
	return title, true
}
