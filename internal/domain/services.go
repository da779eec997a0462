// Normalization of the legacy "services" column.
//
// The experts table was populated by several generations of ingestion
// scripts, so the raw JSON in Expert.Services appears in three incompatible
// shapes:
//
//  1. a single block: {"services_proposes": [...], "valeur_ajoutee":
//     {"description": ..., "points_forts": [...]}, "resultats_apportes": [...]}
//  2. a map from service name to a detail object (same sub-fields plus
//     tarif/duree/format/benefices)
//  3. a list of {"service": ..., "domaine": ..., "tarif": ...} records
//
// Rather than branching on shape in every consumer, DecodeServices detects
// the shape once and converts it into the canonical []ServiceOffer used by
// the profile view and the admin service-management endpoints.
package domain

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// ErrUnknownServicesShape is returned when the raw services JSON matches
// none of the three known legacy shapes.
var ErrUnknownServicesShape = errors.New("unrecognized services payload shape")

// ServiceOffer is the canonical, normalized representation of one service an
// expert proposes. Fields absent from a given legacy shape are left zero.
type ServiceOffer struct {
	Name        string   `json:"name"`
	Domain      string   `json:"domain,omitempty"`
	Price       string   `json:"price,omitempty"`
	Duration    string   `json:"duration,omitempty"`
	Format      string   `json:"format,omitempty"`
	Description string   `json:"description,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
	Results     []string `json:"results,omitempty"`
	Benefits    []string `json:"benefits,omitempty"`
}

// servicesBlock is legacy shape 1: a single aggregate block.
type servicesBlock struct {
	ServicesProposes  []string `json:"services_proposes"`
	ValeurAjoutee     *struct {
		Description string   `json:"description"`
		PointsForts []string `json:"points_forts"`
	} `json:"valeur_ajoutee"`
	ResultatsApportes []string `json:"resultats_apportes"`
}

// servicesDetail is the value type of legacy shape 2 (keyed by service name).
type servicesDetail struct {
	ServicesProposes []string `json:"services_proposes"`
	ValeurAjoutee    *struct {
		Description string   `json:"description"`
		PointsForts []string `json:"points_forts"`
	} `json:"valeur_ajoutee"`
	ResultatsApportes []string `json:"resultats_apportes"`
	Tarif             string   `json:"tarif"`
	Duree             string   `json:"duree"`
	Format            string   `json:"format"`
	Benefices         []string `json:"benefices"`
}

// servicesItem is the element type of legacy shape 3.
type servicesItem struct {
	Service string `json:"service"`
	Domaine string `json:"domaine"`
	Tarif   string `json:"tarif"`
}

// DecodeServices converts the raw services JSON into the canonical offer
// list. An empty or missing payload yields (nil, nil). A payload that is
// valid JSON but matches none of the known shapes yields
// ErrUnknownServicesShape.
func DecodeServices(raw string) ([]ServiceOffer, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		// Shape 3: list of {service, domaine, tarif}.
		var items []servicesItem
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, ErrUnknownServicesShape
		}
		out := make([]ServiceOffer, 0, len(items))
		for _, it := range items {
			if strings.TrimSpace(it.Service) == "" {
				continue
			}
			out = append(out, ServiceOffer{
				Name:   strings.TrimSpace(it.Service),
				Domain: strings.TrimSpace(it.Domaine),
				Price:  strings.TrimSpace(it.Tarif),
			})
		}
		return out, nil

	case '{':
		// Shape 1 carries at least one of its three well-known keys; try it
		// first because shape 2 (map keyed by arbitrary service names) would
		// also accept it structurally.
		var block servicesBlock
		if err := json.Unmarshal([]byte(raw), &block); err == nil && isBlockShape(raw) {
			return blockToOffers(block), nil
		}

		var byName map[string]servicesDetail
		if err := json.Unmarshal([]byte(raw), &byName); err != nil {
			return nil, ErrUnknownServicesShape
		}
		out := make([]ServiceOffer, 0, len(byName))
		for name, d := range byName {
			offer := ServiceOffer{
				Name:     name,
				Price:    strings.TrimSpace(d.Tarif),
				Duration: strings.TrimSpace(d.Duree),
				Format:   strings.TrimSpace(d.Format),
				Results:  d.ResultatsApportes,
				Benefits: d.Benefices,
			}
			if d.ValeurAjoutee != nil {
				offer.Description = d.ValeurAjoutee.Description
				offer.Highlights = d.ValeurAjoutee.PointsForts
			}
			out = append(out, offer)
		}
		sortOffersByName(out)
		return out, nil

	default:
		return nil, ErrUnknownServicesShape
	}
}

// isBlockShape reports whether the raw object carries one of the top-level
// keys that only legacy shape 1 uses.
func isBlockShape(raw string) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return false
	}
	for _, k := range []string{"services_proposes", "valeur_ajoutee", "resultats_apportes"} {
		if _, ok := probe[k]; ok {
			return true
		}
	}
	return false
}

// blockToOffers expands shape 1 into one offer per proposed service, with
// the shared description/highlights/results attached to each.
func blockToOffers(b servicesBlock) []ServiceOffer {
	names := b.ServicesProposes
	if len(names) == 0 {
		names = []string{""}
	}
	out := make([]ServiceOffer, 0, len(names))
	for _, name := range names {
		offer := ServiceOffer{
			Name:    strings.TrimSpace(name),
			Results: b.ResultatsApportes,
		}
		if b.ValeurAjoutee != nil {
			offer.Description = b.ValeurAjoutee.Description
			offer.Highlights = b.ValeurAjoutee.PointsForts
		}
		out = append(out, offer)
	}
	return out
}

// sortOffersByName keeps map-derived offers in a deterministic order.
func sortOffersByName(offers []ServiceOffer) {
	sort.Slice(offers, func(i, j int) bool { return offers[i].Name < offers[j].Name })
}
