// Package services – wizard catalogs
//
// Fixed catalogs backing the market-research wizard: business sectors (some
// with nested subsectors), the 13 metropolitan French regions with five
// representative cities each, and six budget bands. Selections are validated
// against these catalogs before a research run is accepted.
package services

// Sector is a top-level business sector; Subsectors may be empty, in which
// case the wizard skips the subsector step.
type Sector struct {
	Name       string   `json:"name"`
	Subsectors []string `json:"subsectors,omitempty"`
}

// WizardCatalog is the full catalog payload served to clients.
type WizardCatalog struct {
	Sectors []Sector            `json:"sectors"`
	Regions map[string][]string `json:"regions"`
	Budgets []string            `json:"budgets"`
}

// Sectors lists the selectable business sectors.
var Sectors = []Sector{
	{Name: "Commerce", Subsectors: []string{"Commerce de détail", "E-commerce", "Commerce de gros"}},
	{Name: "Technologie", Subsectors: []string{"Logiciels", "Intelligence artificielle", "Cybersécurité", "Fintech"}},
	{Name: "Restauration", Subsectors: []string{"Restauration rapide", "Restauration traditionnelle", "Traiteur"}},
	{Name: "Santé", Subsectors: []string{"Bien-être", "Services à la personne", "Dispositifs médicaux"}},
	{Name: "Services aux entreprises", Subsectors: []string{"Conseil", "Marketing", "Ressources humaines"}},
	{Name: "Immobilier"},
	{Name: "Artisanat"},
	{Name: "Transport et logistique"},
	{Name: "Éducation et formation"},
	{Name: "Tourisme et loisirs"},
}

// Regions maps each metropolitan French region to five representative cities.
var Regions = map[string][]string{
	"Auvergne-Rhône-Alpes":       {"Lyon", "Grenoble", "Saint-Étienne", "Clermont-Ferrand", "Annecy"},
	"Bourgogne-Franche-Comté":    {"Dijon", "Besançon", "Belfort", "Chalon-sur-Saône", "Auxerre"},
	"Bretagne":                   {"Rennes", "Brest", "Quimper", "Vannes", "Saint-Malo"},
	"Centre-Val de Loire":        {"Orléans", "Tours", "Bourges", "Blois", "Chartres"},
	"Corse":                      {"Ajaccio", "Bastia", "Porto-Vecchio", "Calvi", "Corte"},
	"Grand Est":                  {"Strasbourg", "Reims", "Metz", "Nancy", "Mulhouse"},
	"Hauts-de-France":            {"Lille", "Amiens", "Roubaix", "Dunkerque", "Calais"},
	"Île-de-France":              {"Paris", "Boulogne-Billancourt", "Saint-Denis", "Versailles", "Créteil"},
	"Normandie":                  {"Rouen", "Caen", "Le Havre", "Cherbourg-en-Cotentin", "Évreux"},
	"Nouvelle-Aquitaine":         {"Bordeaux", "Limoges", "Poitiers", "Pau", "La Rochelle"},
	"Occitanie":                  {"Toulouse", "Montpellier", "Nîmes", "Perpignan", "Albi"},
	"Pays de la Loire":           {"Nantes", "Angers", "Le Mans", "Saint-Nazaire", "Cholet"},
	"Provence-Alpes-Côte d'Azur": {"Marseille", "Nice", "Toulon", "Aix-en-Provence", "Avignon"},
}

// Budgets lists the six selectable budget bands.
var Budgets = []string{
	"Moins de 1 000 €",
	"1 000 € – 5 000 €",
	"5 000 € – 10 000 €",
	"10 000 € – 50 000 €",
	"50 000 € – 100 000 €",
	"Plus de 100 000 €",
}

// Catalog returns the full wizard catalog.
func Catalog() WizardCatalog {
	return WizardCatalog{Sectors: Sectors, Regions: Regions, Budgets: Budgets}
}

// findSector returns the catalog entry for name, or nil.
func findSector(name string) *Sector {
	for i := range Sectors {
		if Sectors[i].Name == name {
			return &Sectors[i]
		}
	}
	return nil
}

// validSubsector reports whether sub belongs to the sector's subsector list.
func validSubsector(sec *Sector, sub string) bool {
	for _, s := range sec.Subsectors {
		if s == sub {
			return true
		}
	}
	return false
}

// validCity reports whether city belongs to the region's city list.
func validCity(region, city string) bool {
	for _, c := range Regions[region] {
		if c == city {
			return true
		}
	}
	return false
}

// validBudget reports whether b is one of the budget bands.
func validBudget(b string) bool {
	for _, band := range Budgets {
		if band == b {
			return true
		}
	}
	return false
}
