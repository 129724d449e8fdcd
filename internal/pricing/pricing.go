// Package pricing turns a page of shopping search hits into price
// statistics and a cleaned listing view.
package pricing

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/guarzo/sellermargin/internal/model"
)

// TopN is how many listings the cleaned view keeps.
const TopN = 10

// Summarize computes min/avg/max over the listings that carry a numeric
// price. total is the provider's hit count; pass a negative value when the
// provider did not report one and the page length is used instead.
func Summarize(items []model.RawListing, total int) model.PriceSummary {
	var (
		sum    int64
		count  int
		lo, hi int
	)
	for _, it := range items {
		price, ok := ParsePrice(it.LowPrice)
		if !ok {
			continue
		}
		if count == 0 || price < lo {
			lo = price
		}
		if count == 0 || price > hi {
			hi = price
		}
		sum += int64(price)
		count++
	}

	summary := model.PriceSummary{TopItems: TopItems(items, TopN)}
	if count > 0 {
		summary.MinPrice = lo
		summary.MaxPrice = hi
		summary.AvgPrice = int(sum / int64(count))
	}

	// The hit count, not the priced subset, approximates market saturation.
	summary.CompetitorCount = total
	if total < 0 {
		summary.CompetitorCount = len(items)
	}
	summary.SellerCount = summary.CompetitorCount
	return summary
}

// ParsePrice reads a provider price. Empty and non-integer values are
// rejected.
func ParsePrice(raw model.FlexString) (int, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return 0, false
	}
	price, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return price, true
}

// TopItems returns the first n listings in provider order with titles
// cleaned. Unpriced listings keep a price of 0.
func TopItems(items []model.RawListing, n int) []model.Listing {
	if n > len(items) {
		n = len(items)
	}
	out := make([]model.Listing, 0, n)
	for _, it := range items[:n] {
		price, _ := ParsePrice(it.LowPrice)
		out = append(out, model.Listing{
			Title: CleanTitle(it.Title),
			Price: price,
			Mall:  it.MallName,
			Link:  it.Link,
			Image: it.Image,
		})
	}
	return out
}

// CleanTitle drops the search highlight markup (<b>...</b>) and decodes
// HTML entities. Any other '<' is literal title text.
func CleanTitle(title string) string {
	if !strings.ContainsAny(title, "<&") {
		return title
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(escapeStrayTags(title)))
	if err != nil {
		return title
	}
	return doc.Text()
}

// escapeStrayTags escapes every '<' that does not open or close a <b> tag
// so the HTML parser keeps it as text.
func escapeStrayTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] == '<' && !isHighlightTag(s[i:]) {
			b.WriteString("&lt;")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHighlightTag(s string) bool {
	head := strings.ToLower(s[:min(len(s), 4)])
	return strings.HasPrefix(head, "<b>") || head == "</b>"
}

// CompetitionScore rates market crowding from 0 to 100: two points per
// competitor plus up to 50 points for the price spread (one per 1000 won).
func CompetitionScore(competitorCount, minPrice, maxPrice int) int {
	spread := 0
	if maxPrice > minPrice {
		spread = maxPrice - minPrice
	}
	spreadPoints := spread / 1000
	if spreadPoints > 50 {
		spreadPoints = 50
	}
	score := competitorCount*2 + spreadPoints
	if score > 100 {
		return 100
	}
	return score
}
