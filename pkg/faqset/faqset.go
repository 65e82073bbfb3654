// pkg/faqset/faqset.go
package faqset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func Load(path string) (*FAQSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set FAQSet
	err = json.Unmarshal(data, &set)
	return &set, err
}

// Save writes the set as indented JSON, creating the directory if needed.
func Save(set *FAQSet, path string) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal faq set: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write faq set: %w", err)
	}
	return nil
}

// Add appends doc and stamps LastUpdated. IDs are unique within a set.
func (s *FAQSet) Add(doc Document) error {
	for _, existing := range s.Documents {
		if existing.ID == doc.ID {
			return fmt.Errorf("document with ID %s already exists", doc.ID)
		}
	}
	s.Documents = append(s.Documents, doc)
	s.LastUpdated = time.Now().Format(time.RFC3339)
	return nil
}

func (s *FAQSet) Validate() error {
	if len(s.Documents) == 0 {
		return fmt.Errorf("faq set contains no documents")
	}

	ids := make(map[string]bool)
	for _, doc := range s.Documents {
		if doc.ID == "" {
			return fmt.Errorf("document missing required field: ID")
		}
		if ids[doc.ID] {
			return fmt.Errorf("duplicate document ID: %s", doc.ID)
		}
		ids[doc.ID] = true

		if doc.Content == "" && (doc.Question == "" || doc.Answer == "") {
			return fmt.Errorf("document %s needs content or a question and answer", doc.ID)
		}
	}
	return nil
}
