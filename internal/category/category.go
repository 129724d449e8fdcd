// Package category maps a shopping category string onto the seller
// taxonomy with its risk level, caveats and fee schedule.
package category

import (
	"slices"
	"strings"

	"github.com/guarzo/sellermargin/internal/model"
)

const (
	Fallback = "기타"

	RiskHigh   = "높음"
	RiskMedium = "보통"

	// DefaultInsightCode is the shopping insight category used when the
	// taxonomy name has no dedicated code.
	DefaultInsightCode = "50000167"
)

// Entry is one taxonomy category.
type Entry struct {
	Name  string
	Risk  string
	Notes []string
}

// Match order matters: the first containing entry wins.
var taxonomy = []Entry{
	{Name: "의류", Risk: RiskHigh, Notes: []string{"반품 가능성"}},
	{Name: "식품", Risk: RiskHigh, Notes: []string{"유통기한 주의"}},
	{Name: "생활용품", Risk: RiskMedium},
	{Name: "전자기기", Risk: RiskMedium},
	{Name: "화장품", Risk: RiskMedium},
}

var defaultFees = model.FeeTable{
	{Market: "스마트", Rate: 6.6},
	{Market: "쿠팡", Rate: 8.0},
	{Market: "오픈", Rate: 15.0},
}

var insightCodes = []struct {
	name string
	code string
}{
	{"의류", "50000804"},
	{"식품", "50000167"},
	{"생활용품", "50000167"},
	{"전자기기", "50000167"},
	{"가전", "50000167"},
	{"화장품", "50000802"},
	{"스포츠", "50000167"},
	{"기타", "50000167"},
}

// DefaultFees returns a copy of the marketplace fee schedule attached to
// every classification.
func DefaultFees() model.FeeTable {
	return slices.Clone(defaultFees)
}

// Match finds the taxonomy entry for raw. Containment is tested both ways
// so "여성의류" and "의류" match each other. An empty string matches
// nothing.
func Match(raw string) (Entry, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Entry{}, false
	}
	for _, e := range taxonomy {
		if strings.Contains(raw, e.Name) || strings.Contains(e.Name, raw) {
			return e, true
		}
	}
	return Entry{}, false
}

// Classify builds the result for a listing's first and second level
// categories.
func Classify(category1, category2 string) model.CategoryResult {
	category1 = strings.TrimSpace(category1)
	category2 = strings.TrimSpace(category2)

	result := Default()
	result.SubCategory = category2
	if result.SubCategory == "" {
		result.SubCategory = category1
	}

	if e, ok := Match(category1); ok {
		result.Category = e.Name
		result.RiskLevel = e.Risk
		result.SpecialNotes = append(result.SpecialNotes, e.Notes...)
	}
	return result
}

// Default is the classification used when nothing matched.
func Default() model.CategoryResult {
	return model.CategoryResult{
		Category:     Fallback,
		FeeRate:      DefaultFees(),
		RiskLevel:    RiskMedium,
		SpecialNotes: []string{},
	}
}

// InsightCode returns the shopping insight category code for a taxonomy
// name, DefaultInsightCode when unknown. An empty name counts as 기타.
func InsightCode(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = Fallback
	}
	for _, c := range insightCodes {
		if c.name == name {
			return c.code
		}
	}
	return DefaultInsightCode
}
