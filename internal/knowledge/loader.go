// Package knowledge loads the static keyword-to-answer table that
// drives the automated responder and matches free text against it.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aditpras/lapakchat/internal/domain"
)

// Load reads the knowledge base from a JSON file. The base is read-only
// after load; any problem with the resource is a startup failure, not a
// runtime-recoverable one.
func Load(path string) ([]domain.KnowledgeEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge base %s: %w", path, err)
	}

	var entries []domain.KnowledgeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse knowledge base %s: %w", path, err)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("knowledge base %s contains no entries", path)
	}
	for i, e := range entries {
		if len(e.Keywords) == 0 {
			return nil, fmt.Errorf("knowledge base %s: entry %d has no keywords", path, i)
		}
		if e.Answer == "" {
			return nil, fmt.Errorf("knowledge base %s: entry %d has an empty answer", path, i)
		}
	}

	return entries, nil
}
