package catalog

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/xraph/catalog/app"
)

// DefaultSearchLimit is used when a caller passes a non-positive limit.
const DefaultSearchLimit = 5

// Search resolves a typeahead query against listing names. The primary
// path is an indexed prefix lookup on the derived lowercase name key. When
// the index is unavailable, or the prefix lookup finds nothing, it falls
// back to a bounded scan of recent listings with substring matching, which
// also covers records written before the name key existed.
//
// Queries shorter than two characters return no results rather than an
// error; the typeahead caller treats both the same way.
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]*app.Summary, error) {
	term := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(term) < 2 {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	hits, err := c.store.SearchAppsByPrefix(ctx, term, limit)
	if err != nil && !errors.Is(err, ErrSearchIndexUnavailable) {
		return nil, err
	}
	if err == nil && len(hits) > 0 {
		return hits, nil
	}

	return c.searchFallback(ctx, term, limit)
}

// searchFallback scans the most recent listings and substring-matches the
// term against their names. Bounded by searchFallbackScan, so result
// quality degrades before latency does. Hits keep scan order (most recent
// first); the indexed path's promoted-first ranking does not apply here.
func (c *Catalog) searchFallback(ctx context.Context, term string, limit int) ([]*app.Summary, error) {
	recent, err := c.store.ListRecentApps(ctx, c.searchFallbackScan)
	if err != nil {
		return nil, err
	}

	var hits []*app.Summary
	for _, a := range recent {
		if !strings.Contains(strings.ToLower(a.Name), term) {
			continue
		}
		hits = append(hits, a.Summary())
		if len(hits) >= limit {
			break
		}
	}

	c.plugins.EmitSearchFallback(ctx, term, len(hits))
	return hits, nil
}
