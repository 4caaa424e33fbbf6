package geo

import (
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Location is a resolved gazetteer entry.
type Location struct {
	Name string
	Lat  float64
	Lon  float64
}

type entry struct {
	name string
	lat  float64
	lon  float64
}

// Gazetteer resolves free-text place names against a static table of
// known conflict-zone locations. Lookups are cached; the table order is
// fixed so substring matching stays first-wins deterministic.
type Gazetteer struct {
	entries []entry
	index   map[string]int
	cache   *gocache.Cache
}

// locativePrefix strips leading prepositions ("attack in Tehran" etc).
var locativePrefix = regexp.MustCompile(`(?i)^(in|at|near|from|to|towards)\s+`)

// New returns a gazetteer loaded with the built-in location table.
func New() *Gazetteer {
	g := &Gazetteer{
		entries: knownLocations,
		index:   make(map[string]int, len(knownLocations)),
		cache:   gocache.New(time.Hour, 10*time.Minute),
	}
	for i, e := range g.entries {
		g.index[e.name] = i
	}
	return g
}

// Lookup resolves a raw place name. It strips locative prefixes and
// anything after the first comma/period/semicolon, then tries an exact
// match, a case-insensitive match, and finally a substring scan where the
// first table key contained in the cleaned name wins. The substring pass
// can match a shorter place name inside a longer one; that ambiguity is
// accepted rather than resolved.
func (g *Gazetteer) Lookup(raw string) (Location, bool) {
	clean := cleanName(raw)
	if clean == "" {
		return Location{}, false
	}

	if cached, found := g.cache.Get(clean); found {
		loc := cached.(Location)
		return loc, loc.Name != ""
	}

	loc, ok := g.resolve(clean)
	g.cache.Set(clean, loc, gocache.DefaultExpiration)
	return loc, ok
}

func (g *Gazetteer) resolve(clean string) (Location, bool) {
	if i, ok := g.index[clean]; ok {
		return g.location(i), true
	}

	lower := strings.ToLower(clean)
	for i, e := range g.entries {
		if strings.ToLower(e.name) == lower {
			return g.location(i), true
		}
	}

	for i, e := range g.entries {
		if strings.Contains(lower, strings.ToLower(e.name)) {
			return g.location(i), true
		}
	}

	return Location{}, false
}

func (g *Gazetteer) location(i int) Location {
	e := g.entries[i]
	return Location{Name: e.name, Lat: e.lat, Lon: e.lon}
}

func cleanName(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = locativePrefix.ReplaceAllString(clean, "")
	if i := strings.IndexAny(clean, ",.;"); i >= 0 {
		clean = clean[:i]
	}
	return strings.TrimSpace(clean)
}

// iranianCities marks locations inside Iran, used to infer the attacking
// party when extraction leaves it ambiguous.
var iranianCities = map[string]bool{
	"Iran": true, "Tehran": true, "Isfahan": true, "Natanz": true,
	"Fordow": true, "Bushehr": true, "Tabriz": true, "Shiraz": true,
	"Kerman": true, "Yazd": true, "Arak": true, "Qom": true,
	"Karaj": true, "Mashhad": true, "Bandar Abbas": true,
	"Kermanshah": true, "Hamadan": true, "Urmia": true,
	"Khorramabad": true, "Ahvaz": true, "Chabahar": true, "Zanjan": true,
	"Qazvin": true, "Khorramshahr": true, "Dezful": true, "Birjand": true,
	"Semnan": true, "Bandar-e Mahshahr": true, "Khondab": true,
	"Parchin": true, "Piranshahr": true, "Kashan": true, "Khojir": true,
	"Javadabad": true, "Najafabad": true, "Malard": true, "Ijrud": true,
}

// IsIranian reports whether a resolved location name lies in Iran.
func IsIranian(name string) bool {
	return iranianCities[name]
}

var knownLocations = []entry{
	// Israel locations
	{"Israel", 31.0461, 34.8516},
	{"Jerusalem", 31.7683, 35.2137},
	{"Tel Aviv", 32.0853, 34.7818},
	{"Haifa", 32.7940, 34.9896},
	{"Eilat", 29.5577, 34.9519},
	{"Beer Sheva", 31.2518, 34.7913},
	{"Dimona", 31.0684, 35.0333},
	{"Ashkelon", 31.6689, 34.5742},
	{"Ashdod", 31.7920, 34.6497},
	{"Netanya", 32.3329, 34.8599},
	{"Herzliya", 32.1649, 34.8259},
	{"Ramat Gan", 32.0684, 34.8248},
	{"Rehovot", 31.8928, 34.8113},
	{"Rishon LeZion", 31.9497, 34.8892},
	{"Kiryat Ekron", 31.8517, 34.8219},
	{"Bnei Brak", 32.0907, 34.8338},
	{"Caesarea", 32.5186, 34.9019},
	{"Azor", 32.0243, 34.8060},
	{"Karmiel", 32.9170, 35.2950},
	{"Gush Dan", 32.0853, 34.7818},
	{"West Jerusalem", 31.7857, 35.2007},
	{"Tamra", 32.8530, 35.1981},

	// Iran locations
	{"Iran", 32.4279, 53.6880},
	{"Tehran", 35.6892, 51.3890},
	{"Isfahan", 32.6546, 51.6680},
	{"Natanz", 33.5133, 51.9244},
	{"Fordow", 34.8847, 51.4717},
	{"Bushehr", 28.9684, 50.8385},
	{"Tabriz", 38.0962, 46.2738},
	{"Shiraz", 29.5926, 52.5836},
	{"Kerman", 30.2839, 57.0834},
	{"Yazd", 31.8974, 54.3569},
	{"Arak", 34.0954, 49.7013},
	{"Qom", 34.6416, 50.8746},
	{"Karaj", 35.8400, 50.9391},
	{"Mashhad", 36.2605, 59.6168},
	{"Bandar Abbas", 27.1832, 56.2667},
	{"Kermanshah", 34.3277, 47.0778},
	{"Hamadan", 34.7983, 48.5148},
	{"Urmia", 37.5527, 45.0759},
	{"Khorramabad", 33.4647, 48.3486},
	{"Parchin", 35.5258, 51.7731},
	{"Piranshahr", 36.7013, 45.1413},
	{"Kashan", 33.9850, 51.4100},
	{"Khojir", 35.6891, 51.7371},
	{"Javadabad", 35.5047, 51.6676},
	{"Najafabad", 32.6324, 51.3650},
	{"Malard", 35.6658, 50.9767},
	{"Ijrud", 36.1406, 48.9387},

	// Military and nuclear facilities
	{"Dimona Nuclear", 31.0684, 35.0333},
	{"Natanz Nuclear", 33.5133, 51.9244},
	{"Fordow Nuclear", 34.8847, 51.4717},
	{"Bushehr Nuclear", 28.9684, 50.8385},
	{"Parchin Military", 35.5258, 51.7731},
	{"Isfahan Nuclear", 32.6546, 51.6680},
	{"Khojir Missile", 35.6891, 51.7371},

	// Regional locations
	{"Damascus", 33.5138, 36.2765},
	{"Beirut", 33.8938, 35.5018},
	{"Gaza", 31.5017, 34.4668},
	{"West Bank", 32.0000, 35.2500},
	{"Golan Heights", 32.9784, 35.7471},
	{"Semnan", 35.5729, 53.3971},
	{"Bandar-e Mahshahr", 30.5589, 49.1981},
	{"Khondab", 34.3139, 49.1847},
}
