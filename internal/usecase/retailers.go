package usecase

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/aishopping/backend/internal/domain"
)

// Retailers that typically require a paid membership to purchase. These are
// the priority sources: when membership mode is requested they must appear in
// output even when absent from upstream data.
var prioritySources = []string{"Costco", "Sam's Club", "BJ's"}

// Direct search URLs per priority source, used to synthesize a navigable
// fallback entry when every search for that source comes up empty
var prioritySearchURLs = map[string]string{
	"Costco":     "https://www.costco.com/CatalogSearch?keyword=",
	"Sam's Club": "https://www.samsclub.com/s/",
	"BJ's":       "https://www.bjs.com/search/",
}

// Retailers preferred in ranking when membership mode is active.
// Smaller rank = higher placement.
var preferredRetailers = []string{
	"amazon",
	"walmart",
	"target",
	"best buy",
	"home depot",
	"lowe's",
}

const unrankedRetailer = 999

var (
	domainSuffixPattern = regexp.MustCompile(`(?i)\.(com|net|org)$`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// normalizeRetailerName canonicalizes store/source strings from shopping
// results so "Costco.com", "COSTCO" and "Costco Wholesale" all compare equal
func normalizeRetailerName(source string) string {
	s := strings.TrimSpace(source)
	if s == "" {
		return ""
	}

	s = domainSuffixPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))

	low := strings.ToLower(s)
	// Smart apostrophes show up in provider data ("Sam’s Club", "BJ’s")
	low = strings.ReplaceAll(low, "’", "'")

	switch {
	case strings.Contains(low, "costco"):
		return "Costco"
	case strings.Contains(low, "sam") && strings.Contains(low, "club"):
		return "Sam's Club"
	case strings.Contains(low, "bj"):
		return "BJ's"
	}
	return s
}

// priorityRank orders sources in membership mode: priority sources first in
// canonical order, then generally preferred retailers, then everything else.
// Keeping priority sources ahead of all natural results means truncation can
// never starve them out.
func priorityRank(source string) int {
	canonical := normalizeRetailerName(source)
	for i, p := range prioritySources {
		if canonical == p {
			return i
		}
	}

	low := strings.ToLower(strings.TrimSpace(source))
	for i, pref := range preferredRetailers {
		if strings.Contains(low, pref) {
			return len(prioritySources) + i
		}
	}
	return unrankedRetailer
}

// priorityFallbackOffer synthesizes a minimal direct-search entry for a
// priority source that no upstream result covered: a navigable link with no
// price and an explicit membership marker, never fabricated listing data
func priorityFallbackOffer(source, query string) domain.Offer {
	keyword := strings.TrimSpace(query)
	if keyword == "" {
		keyword = "product"
	}
	return domain.Offer{
		Title:    source + " (membership) - search results",
		Source:   source,
		Link:     prioritySearchURLs[source] + url.QueryEscape(keyword),
		Delivery: "Membership required",
	}
}
