// pkg/faqset/schema.go
package faqset

type FAQSet struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Documents   []Document `json:"documents"`
}

type Document struct {
	ID       string `json:"id"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Content  string `json:"content,omitempty"`
	Source   string `json:"source,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}
