package mining

import (
	"regexp"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Attribute keys
// ---------------------------------------------------------------------------

// Attribute keys emitted by the extractor. Numeric attributes carry
// float64 values, all others carry strings.
const (
	AttrVolumeML        = "attr_volume_ml"
	AttrGrit            = "attr_grit"
	AttrShadeCode       = "attr_shade_code"
	AttrFinish          = "attr_finish"
	AttrCuringType      = "attr_curing_type"
	AttrLiquidType      = "attr_liquid_type"
	AttrScent           = "attr_scent"
	AttrStrengthPercent = "attr_strength_percent"
	AttrLengthMM        = "attr_length_mm"
	AttrMaterial        = "attr_material"
	AttrShape           = "attr_shape"
	AttrColorName       = "attr_color_name"
	AttrCollection      = "attr_collection"
)

// ---------------------------------------------------------------------------
// Compiled patterns
// ---------------------------------------------------------------------------

var (
	reVolumeML  = regexp.MustCompile(`(?i)(\d{1,3})\s?ml\b`)
	reLengthMM  = regexp.MustCompile(`(?i)(\d{2,4})\s?mm\b`)
	reGrit      = regexp.MustCompile(`\b(\d{2,3}/\d{2,3})\b`)
	reShadeCode = regexp.MustCompile(`(#[0-9a-fA-F]{2,4}|[A-Z]{1,2}\d{2,3})\b`)
	reStrength  = regexp.MustCompile(`(\d{2,3})\s?%`)

	// Collection names follow a "colectia <name>" marker, with or without
	// the diacritic, and stop at the next digit or at end of text.
	reCollection = regexp.MustCompile(`(?i)colec[tț](?:ia|iei)\s+([\w\p{L}-]{3,30}?)(?:\s+\d|\s*$)`)
)

// ---------------------------------------------------------------------------
// Keyword tables
// ---------------------------------------------------------------------------

// Keyword tables are ordered: earlier entries win. Matching is plain
// substring containment on the case-folded haystack, and the matched
// list entry (not the text span) becomes the attribute value, so
// diacritic variants must be listed separately.
var (
	finishKeywords = []string{
		"mat", "matte", "gloss", "lucios", "glitter", "shimmer", "reflectiv",
	}
	curingKeywords = []string{
		"uv/led", "uv led", "uv", "led",
	}
	liquidKeywords = []string{
		"cleaner", "remover", "aceton", "slip solution", "degresant", "primer",
	}
	scentKeywords = []string{
		"lavanda", "lavandă", "capsuni", "căpșuni", "vanilie", "cocos", "trandafir",
	}
	materialKeywords = []string{
		"inox", "otel", "oțel", "carbon", "abs", "plastic",
	}
	shapeKeywords = []string{
		"oval", "banană", "banana", "drept", "straight", "half-moon", "semilună",
	}
	colorKeywords = []string{
		"alb", "negru", "rosu", "roșu", "roz", "nude", "albastru", "verde",
		"mov", "galben", "portocaliu", "auriu", "argintiu",
	}
)

// ---------------------------------------------------------------------------
// Rules
// ---------------------------------------------------------------------------

// rule is a single extraction step. Each rule targets exactly one
// attribute and either produces a value or stays silent.
type rule interface {
	attribute() string
	apply(h haystack) (any, bool)
}

// haystack carries the searchable text in both raw and case-folded
// form. Pattern rules run on the raw text, keyword rules on the folded
// copy.
type haystack struct {
	raw    string
	folded string
}

func newHaystack(name, description string) haystack {
	parts := make([]string, 0, 2)
	if name != "" {
		parts = append(parts, name)
	}
	if description != "" {
		parts = append(parts, description)
	}
	raw := strings.Join(parts, " ")
	return haystack{raw: raw, folded: strings.ToLower(raw)}
}

// floatRule extracts a numeric capture group and parses it as float64.
type floatRule struct {
	attr  string
	re    *regexp.Regexp
	group int
}

func (r floatRule) attribute() string { return r.attr }

func (r floatRule) apply(h haystack) (any, bool) {
	m := r.re.FindStringSubmatch(h.raw)
	if m == nil {
		return nil, false
	}
	v, err := strconv.ParseFloat(m[r.group], 64)
	if err != nil {
		return nil, false
	}
	return v, true
}

// codeRule extracts a string capture group, optionally cleaned. Group 0
// selects the whole match.
type codeRule struct {
	attr  string
	re    *regexp.Regexp
	group int
	clean func(string) string
}

func (r codeRule) attribute() string { return r.attr }

func (r codeRule) apply(h haystack) (any, bool) {
	m := r.re.FindStringSubmatch(h.raw)
	if m == nil {
		return nil, false
	}
	v := m[r.group]
	if r.clean != nil {
		v = r.clean(v)
	}
	if v == "" {
		return nil, false
	}
	return v, true
}

// keywordRule scans an ordered keyword list against the folded haystack
// and returns the first entry found, optionally canonicalized.
type keywordRule struct {
	attr     string
	keywords []string
	canon    func(string) string
}

func (r keywordRule) attribute() string { return r.attr }

func (r keywordRule) apply(h haystack) (any, bool) {
	for _, kw := range r.keywords {
		if strings.Contains(h.folded, kw) {
			if r.canon != nil {
				return r.canon(kw), true
			}
			return kw, true
		}
	}
	return nil, false
}

// compactUpper canonicalizes curing keywords: "uv/led" -> "UV/LED",
// "uv led" -> "UVLED".
func compactUpper(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}

// defaultRules returns the full rule table in evaluation order. The
// order is part of the contract: every product indexed with one rule
// set must re-derive identically under the same set.
func defaultRules() []rule {
	return []rule{
		floatRule{attr: AttrVolumeML, re: reVolumeML, group: 1},
		codeRule{attr: AttrGrit, re: reGrit, group: 1},
		codeRule{attr: AttrShadeCode, re: reShadeCode, group: 0, clean: strings.ToUpper},
		keywordRule{attr: AttrFinish, keywords: finishKeywords},
		keywordRule{attr: AttrCuringType, keywords: curingKeywords, canon: compactUpper},
		keywordRule{attr: AttrLiquidType, keywords: liquidKeywords},
		keywordRule{attr: AttrScent, keywords: scentKeywords},
		floatRule{attr: AttrStrengthPercent, re: reStrength, group: 1},
		floatRule{attr: AttrLengthMM, re: reLengthMM, group: 1},
		keywordRule{attr: AttrMaterial, keywords: materialKeywords},
		keywordRule{attr: AttrShape, keywords: shapeKeywords},
		keywordRule{attr: AttrColorName, keywords: colorKeywords},
		codeRule{attr: AttrCollection, re: reCollection, group: 1, clean: strings.TrimSpace},
	}
}
