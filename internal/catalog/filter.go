package catalog

import (
	"strings"

	"github.com/fjod/foodclub/internal/domain"
)

const AllCategories = "All"

type Diet string

const (
	DietAll    Diet = "all"
	DietVeg    Diet = "veg"
	DietNonVeg Diet = "non-veg"
)

type Query struct {
	Category string
	Diet     Diet
	Search   string
}

func ParseDiet(s string) (Diet, bool) {
	switch Diet(strings.ToLower(strings.TrimSpace(s))) {
	case "", DietAll:
		return DietAll, true
	case DietVeg:
		return DietVeg, true
	case DietNonVeg:
		return DietNonVeg, true
	}
	return "", false
}

func Filter(items []domain.MenuItem, q Query) []domain.MenuItem {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]domain.MenuItem, 0, len(items))
	for _, item := range items {
		if q.Category != "" && q.Category != AllCategories && item.Category != q.Category {
			continue
		}
		if q.Diet == DietVeg && !item.Veg || q.Diet == DietNonVeg && item.Veg {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Name), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Categories lists "All" followed by each category in first-seen order.
func Categories(items []domain.MenuItem) []string {
	seen := make(map[string]bool, len(items))
	out := []string{AllCategories}
	for _, item := range items {
		if item.Category == "" || seen[item.Category] {
			continue
		}
		seen[item.Category] = true
		out = append(out, item.Category)
	}
	return out
}
