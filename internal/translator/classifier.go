package translator

import (
	"strings"
	"unicode"
)

// Category is a purchase item class the classifier can suggest.
type Category string

const (
	CategoryMaterials Category = "materials"
	CategoryServices  Category = "services"
	CategoryEquipment Category = "equipment"
	CategoryExpense   Category = "expense"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryMaterials, CategoryServices, CategoryEquipment, CategoryExpense:
		return true
	}
	return false
}

// Rule maps description keywords to a category. Keywords match as
// case-insensitive substrings.
type Rule struct {
	Category Category
	Keywords []string
}

// DefaultRules covers the usual purchase descriptions in Spanish and English.
var DefaultRules = []Rule{
	{
		Category: CategoryMaterials,
		Keywords: []string{"material", "cemento", "acero", "madera", "arena", "ladrillo", "pintura", "cement", "steel", "lumber", "timber"},
	},
	{
		Category: CategoryServices,
		Keywords: []string{"servicio", "asesoria", "asesoría", "consultoria", "consultoría", "mantencion", "mantención", "honorario", "service", "consulting", "maintenance", "fee"},
	},
	{
		Category: CategoryEquipment,
		Keywords: []string{"equipo", "maquinaria", "computador", "herramienta", "vehiculo", "vehículo", "equipment", "machine", "computer", "laptop", "tool"},
	},
}

// Suggestion is the classifier's best guess for a description. A zero
// Confidence means nothing matched and the fallback was used.
type Suggestion struct {
	Category    Category
	AccountCode string
	Confidence  float64
	Keyword     string
	hits        int
}

// Classifier suggests accounts for free-text purchase descriptions. It is
// best-effort and never overrides an explicit account code.
type Classifier struct {
	rules    []Rule
	accounts AccountMap
}

// NewClassifier creates a classifier with DefaultRules plus extra keywords.
func NewClassifier(accounts AccountMap, extra map[Category][]string) *Classifier {
	rules := make([]Rule, 0, len(DefaultRules)+len(extra))
	for _, r := range DefaultRules {
		kw := append([]string(nil), r.Keywords...)
		kw = append(kw, extra[r.Category]...)
		rules = append(rules, Rule{Category: r.Category, Keywords: kw})
	}
	if kw := extra[CategoryExpense]; len(kw) > 0 {
		rules = append(rules, Rule{Category: CategoryExpense, Keywords: kw})
	}
	return &Classifier{rules: rules, accounts: accounts}
}

// Classify picks the rule whose keywords hit the most words of the
// description; earlier rules win ties. A word counts once however many
// keywords it contains. One hit gives 0.6 confidence and each further hit
// adds 0.15, up to 0.95.
func (c *Classifier) Classify(description string) Suggestion {
	desc := strings.ToLower(description)
	words := wordSpans(desc)

	var best Suggestion
	for _, rule := range c.rules {
		var first string
		hit := make(map[int]bool)
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(kw)
			if kw == "" {
				continue
			}
			for from := 0; ; {
				i := strings.Index(desc[from:], kw)
				if i < 0 {
					break
				}
				pos := from + i
				hit[wordAt(words, pos)] = true
				if first == "" {
					first = kw
				}
				from = pos + len(kw)
			}
		}
		if len(hit) > best.hits {
			best = Suggestion{Category: rule.Category, Keyword: first, hits: len(hit)}
		}
	}

	if best.hits == 0 {
		return Suggestion{Category: CategoryExpense, AccountCode: c.accountFor(CategoryExpense)}
	}

	best.AccountCode = c.accountFor(best.Category)
	best.Confidence = min(0.95, 0.6+0.15*float64(best.hits-1))
	best.hits = 0
	return best
}

type span struct{ start, end int }

// wordSpans returns the byte ranges of the letter and digit runs of s.
func wordSpans(s string) []span {
	var spans []span
	start := -1
	for i, r := range s {
		inWord := unicode.IsLetter(r) || unicode.IsDigit(r)
		switch {
		case inWord && start < 0:
			start = i
		case !inWord && start >= 0:
			spans = append(spans, span{start, i})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, span{start, len(s)})
	}
	return spans
}

// wordAt returns the index of the word containing byte pos. A match that
// starts outside any word is keyed by its position.
func wordAt(words []span, pos int) int {
	for i, w := range words {
		if pos >= w.start && pos < w.end {
			return i
		}
	}
	return -pos - 1
}

// ResolveItemAccount returns explicit when set, otherwise the suggestion for
// description.
func (c *Classifier) ResolveItemAccount(explicit, description string) (string, Suggestion) {
	if explicit != "" {
		return explicit, Suggestion{AccountCode: explicit, Confidence: 1}
	}
	s := c.Classify(description)
	return s.AccountCode, s
}

func (c *Classifier) accountFor(category Category) string {
	switch category {
	case CategoryMaterials:
		return c.accounts.Materials
	case CategoryServices:
		return c.accounts.Services
	case CategoryEquipment:
		return c.accounts.Equipment
	default:
		return c.accounts.GeneralExpense
	}
}
