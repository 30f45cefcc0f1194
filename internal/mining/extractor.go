// Package mining derives structured product attributes from
// unstructured Romanian catalog text. Extraction is deterministic: a
// fixed, ordered rule table of compiled patterns and keyword lists runs
// over the product name and description, and the first hit per
// attribute wins. There is no scoring, no model and no language
// detection; products whose text matches nothing simply stay without
// derived attributes.
package mining

// ---------------------------------------------------------------------------
// Extractor
// ---------------------------------------------------------------------------

// Extractor runs the attribute rule table over product text. The zero
// value is not usable; construct with NewExtractor. An Extractor is
// immutable and safe for concurrent use.
type Extractor struct {
	rules []rule
}

// NewExtractor returns an Extractor with the default rule table.
func NewExtractor() *Extractor {
	return &Extractor{rules: defaultRules()}
}

// Extract derives attributes from a product name and description.
// Either input may be empty; non-empty inputs are joined with a single
// space before matching. The result is sparse: attributes without a
// match are absent, never empty or nil. The returned map is never nil
// and is owned by the caller.
//
// Extract is pure. It does not normalize, persist, or merge anything;
// callers that accept explicit attribute overrides must merge them over
// this result themselves.
func (e *Extractor) Extract(name, description string) map[string]any {
	attrs := make(map[string]any)
	h := newHaystack(name, description)
	if h.raw == "" {
		return attrs
	}
	for _, r := range e.rules {
		if v, ok := r.apply(h); ok {
			attrs[r.attribute()] = v
		}
	}
	return attrs
}

// ---------------------------------------------------------------------------
// Attribute registry
// ---------------------------------------------------------------------------

var (
	attributeOrder []string
	attributeSet   map[string]bool
)

func init() {
	rules := defaultRules()
	attributeOrder = make([]string, 0, len(rules))
	attributeSet = make(map[string]bool, len(rules))
	for _, r := range rules {
		attributeOrder = append(attributeOrder, r.attribute())
		attributeSet[r.attribute()] = true
	}
}

// KnownAttributes returns every attribute key the extractor can emit,
// in evaluation order. The returned slice is a copy.
func KnownAttributes() []string {
	out := make([]string, len(attributeOrder))
	copy(out, attributeOrder)
	return out
}

// IsKnownAttribute reports whether name is an attribute key the
// extractor can emit.
func IsKnownAttribute(name string) bool {
	return attributeSet[name]
}
