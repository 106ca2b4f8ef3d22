package domain

import "strings"

// Category is a fixed editorial classification. The set is closed; any
// label the annotation provider returns is normalized into it.
type Category struct {
	ID   string
	Name string
}

// The six editorial categories, plus the id used when normalization fails.
var Categories = []Category{
	{ID: "support", Name: "支援・合理的配慮"},
	{ID: "diverse-learning", Name: "多様な学び"},
	{ID: "research", Name: "研究"},
	{ID: "policy", Name: "制度・行政"},
	{ID: "ict", Name: "ICT・教材"},
	{ID: "events", Name: "イベント・研修"},
}

const DefaultCategory = "support"

// NormalizeCategory maps a raw label onto the closed category set: exact id
// match first, then substring match against ids and display names, then the
// default category.
func NormalizeCategory(raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return DefaultCategory
	}
	for _, c := range Categories {
		if label == c.ID {
			return c.ID
		}
	}
	for _, c := range Categories {
		if strings.Contains(label, c.ID) || strings.Contains(c.ID, label) {
			return c.ID
		}
		if strings.Contains(raw, c.Name) || strings.Contains(c.Name, strings.TrimSpace(raw)) {
			return c.ID
		}
	}
	return DefaultCategory
}

// ValidCategory reports whether the id belongs to the closed set.
func ValidCategory(id string) bool {
	for _, c := range Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}
