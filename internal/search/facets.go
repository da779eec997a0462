package search

import (
	"sort"
	"strings"

	"github.com/xandme/xandme-backend/internal/domain"
)

// Facets are derived, never stored: the distinct locations and activity
// labels of the currently loaded expert set, used to populate the directory
// filter dropdowns.
type Facets struct {
	// Locations maps a country to the sorted distinct cities seen in it.
	Locations map[string][]string `json:"locations"`
	// Activities is the sorted distinct set of category labels.
	Activities []string `json:"activities"`
}

// DeriveFacets computes directory facets from a slice of experts.
//
// Cities group under their country; experts without a country fall under
// "Autre". Activity labels prefer the dedicated activity field and fall back
// to splitting the legacy expertises list on ';'. Comparison is
// case-insensitive; the first-seen casing wins.
func DeriveFacets(experts []domain.Expert) Facets {
	cities := make(map[string]map[string]string) // country -> lower(city) -> city
	acts := make(map[string]string)              // lower(label) -> label

	for _, e := range experts {
		country := strings.TrimSpace(e.Pays)
		if country == "" {
			country = "Autre"
		}
		if city := strings.TrimSpace(e.Ville); city != "" {
			if cities[country] == nil {
				cities[country] = make(map[string]string)
			}
			key := strings.ToLower(city)
			if _, seen := cities[country][key]; !seen {
				cities[country][key] = city
			}
		}

		labels := []string{strings.TrimSpace(e.Activite)}
		if labels[0] == "" {
			labels = labels[:0]
			for _, tag := range strings.Split(e.Expertises, ";") {
				if t := strings.TrimSpace(tag); t != "" {
					labels = append(labels, t)
				}
			}
		}
		for _, label := range labels {
			key := strings.ToLower(label)
			if _, seen := acts[key]; !seen {
				acts[key] = label
			}
		}
	}

	f := Facets{Locations: make(map[string][]string, len(cities))}
	for country, set := range cities {
		list := make([]string, 0, len(set))
		for _, city := range set {
			list = append(list, city)
		}
		sort.Strings(list)
		f.Locations[country] = list
	}
	f.Activities = make([]string, 0, len(acts))
	for _, label := range acts {
		f.Activities = append(f.Activities, label)
	}
	sort.Strings(f.Activities)
	return f
}
