package usecase

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/aishopping/backend/internal/domain"
)

// rowContainerKeys are the top-level keys a provider may nest result rows
// under, tried in order. Shopping mode and regular-search mode use different
// containers.
var rowContainerKeys = []string{"shopping_results", "shopping_results_list", "organic_results"}

// OfferServiceConfig holds configuration for the offer service
type OfferServiceConfig struct {
	DefaultCount       int
	EnableDebugLogging bool
}

// OfferService aggregates shopping offers: it searches the upstream, normalizes
// heterogeneous result rows, guarantees priority-source presence, deduplicates
// and ranks. All state is scoped to one Aggregate call.
type OfferService struct {
	search             domain.ShoppingSearcher
	defaultCount       int
	enableDebugLogging bool
}

// OfferOptions are the caller-supplied knobs for one aggregation
type OfferOptions struct {
	Query             string
	Count             int // <=0 uses the configured default
	IncludeMembership bool
}

// NewOfferService creates a new offer service with dependencies
func NewOfferService(search domain.ShoppingSearcher, config OfferServiceConfig) *OfferService {
	defaultCount := config.DefaultCount
	if defaultCount <= 0 {
		defaultCount = 20
	}
	return &OfferService{
		search:             search,
		defaultCount:       defaultCount,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Aggregate returns a deduplicated, ranked list of offers for the query.
// A failure of the primary search is fatal; supplementary priority-source
// searches degrade to synthesized fallback entries instead of failing.
func (s *OfferService) Aggregate(ctx context.Context, opts OfferOptions) ([]domain.Offer, error) {
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return nil, domain.ErrInvalidRequest
	}

	count := opts.Count
	if count <= 0 {
		count = s.defaultCount
	}

	results, err := s.search.ShoppingSearch(ctx, query, count)
	if err != nil {
		return nil, err
	}

	offers := normalizeRows(extractRows(results))

	// Shopping mode comes back empty for some long-tail queries; degrade to a
	// regular web search before giving up
	if len(offers) == 0 {
		offers = s.webFallback(ctx, query, count)
	}

	if s.enableDebugLogging {
		log.Printf("[OFFERS] query=%q normalized %d offers", query, len(offers))
	}

	if opts.IncludeMembership {
		offers = s.ensurePrioritySources(ctx, query, count, offers)
	}

	offers = dedupeOffers(offers)
	rankOffers(offers, opts.IncludeMembership)

	// Truncation happens after injection and ranking so priority entries are
	// never starved by an early cut
	if len(offers) > count {
		offers = offers[:count]
	}
	return offers, nil
}

// extractRows pulls the result-row list out of the provider response, trying
// the known container keys in order. A missing or non-list container is zero
// rows, not an error.
func extractRows(results map[string]any) []domain.RawRow {
	for _, key := range rowContainerKeys {
		list, ok := results[key].([]any)
		if !ok {
			continue
		}
		rows := make([]domain.RawRow, 0, len(list))
		for _, item := range list {
			if row, ok := item.(domain.RawRow); ok {
				rows = append(rows, row)
			}
		}
		return rows
	}
	return nil
}

// normalizeRows applies row normalization, silently dropping rows that fail
// the data-quality filter
func normalizeRows(rows []domain.RawRow) []domain.Offer {
	offers := make([]domain.Offer, 0, len(rows))
	for _, row := range rows {
		if offer, ok := normalizeRow(row); ok {
			offers = append(offers, offer)
		}
	}
	return offers
}

// webFallback runs a regular web search when shopping results were empty.
// Organic rows carry less structure but still normalize; a failure here is
// non-fatal since the shopping search itself succeeded.
func (s *OfferService) webFallback(ctx context.Context, query string, count int) []domain.Offer {
	results, err := s.search.WebSearch(ctx, query, count)
	if err != nil {
		log.Printf("[OFFERS] web search fallback failed: %v", err)
		return nil
	}
	return normalizeRows(extractRows(results))
}

// ensurePrioritySources guarantees every priority source is represented.
// Missing sources get one supplementary search each (query plus a source
// hint); the searches are independent reads and run concurrently. Sources
// still absent afterwards get a synthesized direct-search fallback, so a
// priority source is never silently missing.
func (s *OfferService) ensurePrioritySources(ctx context.Context, query string, count int, offers []domain.Offer) []domain.Offer {
	var missing []string
	for _, source := range prioritySources {
		if !hasSource(offers, source) {
			missing = append(missing, source)
		}
	}
	if len(missing) == 0 {
		return offers
	}

	// Indexed slots keep the merge order deterministic regardless of which
	// supplementary search finishes first
	supplementary := make([][]domain.Offer, len(missing))
	var wg sync.WaitGroup
	for i, source := range missing {
		wg.Add(1)
		go func(i int, source string) {
			defer wg.Done()
			results, err := s.search.ShoppingSearch(ctx, query+" "+source, count)
			if err != nil {
				// Non-fatal: the synthesized fallback covers this source
				log.Printf("[OFFERS] supplementary search for %s failed: %v", source, err)
				return
			}
			supplementary[i] = normalizeRows(extractRows(results))
		}(i, source)
	}
	wg.Wait()

	for _, batch := range supplementary {
		offers = append(offers, batch...)
	}

	for _, source := range prioritySources {
		if !hasSource(offers, source) {
			offers = append(offers, priorityFallbackOffer(source, query))
		}
	}
	return offers
}

// hasSource reports whether any offer's source canonicalizes to the given
// priority source
func hasSource(offers []domain.Offer, canonical string) bool {
	for _, o := range offers {
		if normalizeRetailerName(o.Source) == canonical {
			return true
		}
	}
	return false
}

// dedupeOffers collapses offers sharing a dedupe key, keeping the copy with
// more information: a known price value wins, then first-seen
func dedupeOffers(offers []domain.Offer) []domain.Offer {
	index := make(map[string]int, len(offers))
	out := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		key := o.DedupeKey()
		if i, ok := index[key]; ok {
			if out[i].PriceValue == nil && o.PriceValue != nil {
				out[i] = o
			}
			continue
		}
		index[key] = len(out)
		out = append(out, o)
	}
	return out
}

// rankOffers sorts by the composite key: priority-source rank when membership
// mode is active, then ascending price with missing prices last, then title
func rankOffers(offers []domain.Offer, priorityMode bool) {
	sort.SliceStable(offers, func(i, j int) bool {
		a, b := &offers[i], &offers[j]

		if priorityMode {
			if ra, rb := priorityRank(a.Source), priorityRank(b.Source); ra != rb {
				return ra < rb
			}
		}

		switch {
		case a.PriceValue != nil && b.PriceValue != nil:
			if *a.PriceValue != *b.PriceValue {
				return *a.PriceValue < *b.PriceValue
			}
		case a.PriceValue != nil:
			return true
		case b.PriceValue != nil:
			return false
		}

		return a.Title < b.Title
	})
}
