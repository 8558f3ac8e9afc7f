// Package inspection holds the inspection progress and completion logic:
// flattening a property's category tree, computing progress, merging a
// submitted checklist entry and finalizing a completed inspection into a
// report.
package inspection

import (
	"sort"
	"strings"

	"github.com/erazemk/inspecasa/internal/model"
)

// NormalizedCategory is one category of a property in display form.
type NormalizedCategory struct {
	Type          string              `json:"type"`
	Subcategories []model.Subcategory `json:"subcategories"`
}

// Normalize flattens the category groups into an ordered list. Groups keep
// their order; names inside one group are sorted so the output is stable.
func Normalize(groups []model.CategoryGroup) []NormalizedCategory {
	out := []NormalizedCategory{}
	for _, group := range groups {
		for _, name := range sortedNames(group) {
			out = append(out, NormalizedCategory{
				Type:          name,
				Subcategories: group[name].Subcategories,
			})
		}
	}
	return out
}

// IsComplete reports whether a subcategory counts towards progress.
// Images are not required.
func IsComplete(sub model.Subcategory) bool {
	return sub.InspectionStatus != "" && sub.Comment != ""
}

// Progress returns the share of complete subcategories, or 0 when the tree
// has none.
func Progress(groups []model.CategoryGroup) float64 {
	total, done := 0, 0
	for _, group := range groups {
		for _, cat := range group {
			for _, sub := range cat.Subcategories {
				total++
				if IsComplete(sub) {
					done++
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}

// IsRemoteURL reports whether ref already points at the image store.
// Anything else is a local reference that still needs uploading.
func IsRemoteURL(ref string) bool {
	return strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://")
}

// DuplicateCategories returns the category names that appear in more than
// one group. Lookups by name only ever see the first occurrence.
func DuplicateCategories(groups []model.CategoryGroup) []string {
	seen := make(map[string]int)
	for _, group := range groups {
		for name := range group {
			seen[name]++
		}
	}
	var dups []string
	for name, n := range seen {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)
	return dups
}

// findSubcategory locates (categoryType, name) in groups, returning the
// group index and the subcategory index.
func findSubcategory(groups []model.CategoryGroup, categoryType, name string) (int, int, error) {
	gi := -1
	for i, group := range groups {
		if _, ok := group[categoryType]; ok {
			gi = i
			break
		}
	}
	if gi == -1 {
		return 0, 0, notFound("category %q", categoryType)
	}

	for si, sub := range groups[gi][categoryType].Subcategories {
		if sub.Name == name {
			return gi, si, nil
		}
	}
	return 0, 0, notFound("subcategory %q in category %q", name, categoryType)
}

func sortedNames(group model.CategoryGroup) []string {
	names := make([]string, 0, len(group))
	for name := range group {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
