package scanner

// Stats aggregates scan level counters. Links counts every non-filtered
// check performed, including repeated mentions of an already-resolved
// target; Unique is the number of distinct targets in the resolution
// cache.
type Stats struct {
	Links    int
	Failures int
	Unique   int
}

// FailureMap records broken targets per source document. Documents appear
// in discovery order; targets within a document in encounter order. Only
// documents with at least one broken target are present.
type FailureMap struct {
	order []string
	byDoc map[string][]string
}

// NewFailureMap creates an empty failure map.
func NewFailureMap() *FailureMap {
	return &FailureMap{byDoc: make(map[string][]string)}
}

// Add records a broken target under its source document.
func (m *FailureMap) Add(doc, target string) {
	if _, ok := m.byDoc[doc]; !ok {
		m.order = append(m.order, doc)
	}
	m.byDoc[doc] = append(m.byDoc[doc], target)
}

// Documents returns the failing document identities in discovery order.
func (m *FailureMap) Documents() []string {
	return m.order
}

// Targets returns the broken targets recorded for doc, in encounter order.
func (m *FailureMap) Targets(doc string) []string {
	return m.byDoc[doc]
}

// Len returns the number of failing documents.
func (m *FailureMap) Len() int {
	return len(m.order)
}
