// Package vocab holds the reference tables the local parser and the
// normalizer match against. Tables are ordered; order decides which entry
// wins when several match.
package vocab

import (
	"maps"
	"slices"

	"github.com/joseph-ayodele/winelabel/constants"
	"github.com/joseph-ayodele/winelabel/internal/common"
)

// Vocabulary bundles the reference tables. Treat a value as read-only once
// it has been handed to a parser.
type Vocabulary struct {
	Grapes          []string
	Regions         []string
	ProducerMarkers []string
	Corrections     map[string]string
	TypeSynonyms    []TypeKeywords
}

type TypeKeywords struct {
	Type  constants.WineType
	Words []string
}

var grapes = []string{
	"Cabernet Sauvignon", "Cabernet Franc", "Cabernet", "Merlot", "Pinot Noir",
	"Pinot Grigio", "Pinot Gris", "Pinot Blanc", "Pinot Meunier", "Pinotage",
	"Chardonnay", "Sauvignon Blanc", "Syrah", "Shiraz", "Grenache", "Garnacha",
	"Tempranillo", "Sangiovese", "Nebbiolo", "Barbera", "Dolcetto", "Malbec",
	"Zinfandel", "Primitivo", "Riesling", "Gewürztraminer", "Chenin Blanc",
	"Viognier", "Sémillon", "Carménère", "Mourvèdre", "Monastrell", "Carignan",
	"Cinsault", "Gamay", "Petit Verdot", "Petite Sirah", "Albariño", "Verdejo",
	"Grüner Veltliner", "Touriga Nacional", "Aglianico", "Nero d'Avola",
	"Corvina", "Vermentino", "Trebbiano", "Garganega", "Glera", "Muscat",
	"Moscato", "Marsanne", "Roussanne", "Torrontés", "Tannat", "Blaufränkisch",
	"Furmint", "Assyrtiko", "Montepulciano",
}

// Broad regions come first so a label naming both a commune and its region
// reports the region.
var regions = []string{
	"Bordeaux", "Bourgogne", "Burgundy", "Champagne", "Alsace", "Loire",
	"Rhône", "Languedoc", "Roussillon", "Provence", "Beaujolais", "Jura",
	"Rioja", "Ribera del Duero", "Priorat", "Rías Baixas", "Navarra", "Jerez",
	"Toscana", "Tuscany", "Piemonte", "Piedmont", "Veneto", "Sicilia", "Puglia",
	"Chianti", "Barolo", "Barbaresco", "Montalcino", "Valpolicella", "Friuli",
	"Mosel", "Rheingau", "Pfalz", "Nahe", "Rheinhessen", "Wachau", "Tokaj",
	"Douro", "Dão", "Alentejo", "Vinho Verde",
	"Napa Valley", "Sonoma", "Willamette Valley", "Paso Robles", "Central Coast",
	"Columbia Valley", "Finger Lakes",
	"Mendoza", "Maipo", "Colchagua", "Casablanca",
	"Barossa", "McLaren Vale", "Margaret River", "Coonawarra", "Hunter Valley",
	"Marlborough", "Central Otago", "Hawke's Bay",
	"Stellenbosch", "Swartland", "Franschhoek",
	"Pauillac", "Margaux", "Saint-Émilion", "Pomerol", "Sauternes",
	"Saint-Julien", "Pessac-Léognan", "Chablis", "Meursault", "Pommard",
	"Sancerre", "Vouvray", "Châteauneuf-du-Pape", "Côte-Rôtie", "Hermitage",
}

var producerMarkers = []string{
	"Château", "Chateau", "Domaine", "Clos", "Maison", "Mas", "Bodega", "Bodegas",
	"Weingut", "Schloss", "Tenuta", "Cantina", "Castello", "Fattoria", "Podere",
	"Azienda", "Marchesi", "Quinta", "Herdade", "Viña", "Cellars", "Winery",
	"Vineyards",
}

// corrections maps known misreadings (matched as whole tokens, any case)
// to the intended word.
var corrections = map[string]string{
	"PR0TECTION":    "PROTECTION",
	"PROTECTI0N":    "PROTECTION",
	"PR0TECTI0N":    "PROTECTION",
	"PROTECTLON":    "PROTECTION",
	"APPELATION":    "APPELLATION",
	"APPELLATI0N":   "APPELLATION",
	"APPELLAT1ON":   "APPELLATION",
	"APPELLATLON":   "APPELLATION",
	"CHÃ‚TEAU":      "CHÂTEAU",
	"CHÃ¢TEAU":      "CHÂTEAU",
	"CH4TEAU":       "CHÂTEAU",
	"CHÂTFAU":       "CHÂTEAU",
	"D0MAINE":       "DOMAINE",
	"DOMA1NE":       "DOMAINE",
	"DOMALNE":       "DOMAINE",
	"C0NTROLEE":     "CONTRÔLÉE",
	"CONTR0LEE":     "CONTRÔLÉE",
	"V1NTAGE":       "VINTAGE",
	"VINTAGF":       "VINTAGE",
	"0RIGINE":       "ORIGINE",
	"DENOMINAZI0NE": "DENOMINAZIONE",
}

// Default returns a fresh copy of the built-in tables.
func Default() *Vocabulary {
	v := &Vocabulary{
		Grapes:          slices.Clone(grapes),
		Regions:         slices.Clone(regions),
		ProducerMarkers: slices.Clone(producerMarkers),
		Corrections:     maps.Clone(corrections),
	}
	v.TypeSynonyms = extendTypes(typeSynonyms, nil)
	return v
}

// Extend returns a copy of v with the configured entries appended. Extra
// entries go after the built-ins so they never change existing outcomes.
func (v *Vocabulary) Extend(cfg common.VocabularyConfig) *Vocabulary {
	out := &Vocabulary{
		Grapes:          appendNew(slices.Clone(v.Grapes), cfg.Grapes),
		Regions:         appendNew(slices.Clone(v.Regions), cfg.Regions),
		ProducerMarkers: appendNew(slices.Clone(v.ProducerMarkers), cfg.ProducerMarkers),
		Corrections:     maps.Clone(v.Corrections),
		TypeSynonyms:    extendTypes(v.TypeSynonyms, cfg.TypeSynonyms),
	}
	if out.Corrections == nil {
		out.Corrections = map[string]string{}
	}
	for from, to := range cfg.Corrections {
		out.Corrections[from] = to
	}
	return out
}

func appendNew(dst, extra []string) []string {
	for _, e := range extra {
		if e == "" {
			continue
		}
		if !slices.ContainsFunc(dst, func(s string) bool { return Fold(s) == Fold(e) }) {
			dst = append(dst, e)
		}
	}
	return dst
}
