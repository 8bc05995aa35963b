package domain

// KnowledgeEntry maps a set of trigger keywords to a canned answer.
// Entries are read-only after load; their declaration order is the
// tie-break order for fuzzy matching.
type KnowledgeEntry struct {
	Keywords []string `json:"keywords"`
	Answer   string   `json:"answer"`
}
