// internal/knowledge/answerer.go
package knowledge

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"careescapes-workers/internal/common/errors"
	"careescapes-workers/internal/common/logger"
	"careescapes-workers/internal/common/metrics"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/redis/go-redis/v9"
)

const cachePrefix = "faq:answer:"

// Generator produces free text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Document is one FAQ passage in the search index.
type Document struct {
	ID       string `json:"id,omitempty"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Content  string `json:"content,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Text renders the passage as prompt context.
func (d Document) Text() string {
	var parts []string
	if d.Question != "" {
		parts = append(parts, "Q: "+d.Question)
	}
	if d.Answer != "" {
		parts = append(parts, "A: "+d.Answer)
	}
	if d.Content != "" {
		parts = append(parts, d.Content)
	}
	return strings.Join(parts, "\n")
}

type Config struct {
	Index    string
	TopK     int
	CacheTTL time.Duration
}

// Answerer retrieves the top-k FAQ passages and asks the generator to answer
// from them. Answers are cached by normalized question when a cache is set.
type Answerer struct {
	config    Config
	es        *elasticsearch.Client
	generator Generator
	cache     redis.Cmdable
	logger    logger.Logger
}

func NewAnswerer(cfg Config, es *elasticsearch.Client, generator Generator, cache redis.Cmdable, log logger.Logger) *Answerer {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.Index == "" {
		cfg.Index = "faq_documents"
	}
	return &Answerer{
		config:    cfg,
		es:        es,
		generator: generator,
		cache:     cache,
		logger:    log.With(map[string]interface{}{"component": "knowledge"}),
	}
}

func CacheKey(question string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(question)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return cachePrefix + hex.EncodeToString(sum[:])
}

func (a *Answerer) AnswerFAQ(ctx context.Context, question string) (string, error) {
	cacheKey := CacheKey(question)
	if a.cache != nil {
		if val, err := a.cache.Get(ctx, cacheKey).Result(); err == nil {
			metrics.FAQCacheLookups.WithLabelValues("hit").Inc()
			return val, nil
		} else if err != redis.Nil {
			a.logger.Warn("faq cache read failed", map[string]interface{}{"error": err})
		}
		metrics.FAQCacheLookups.WithLabelValues("miss").Inc()
	}

	docs, err := a.Search(ctx, question)
	if err != nil {
		return "", err
	}

	answer, err := a.generator.Generate(ctx, buildPrompt(question, docs))
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)

	if a.cache != nil && answer != "" {
		if err := a.cache.Set(ctx, cacheKey, answer, a.config.CacheTTL).Err(); err != nil {
			a.logger.Warn("faq cache write failed", map[string]interface{}{"error": err})
		}
	}

	a.logger.Info("faq answered", map[string]interface{}{
		"passages": len(docs),
	})
	return answer, nil
}

// Search returns up to TopK passages for the question.
func (a *Answerer) Search(ctx context.Context, question string) ([]Document, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  question,
				"fields": []string{"question^2", "answer", "content"},
			},
		},
		"size": a.config.TopK,
	}
	body, _ := json.Marshal(query)

	req := esapi.SearchRequest{
		Index: []string{a.config.Index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, a.es)
	if err != nil {
		return nil, errors.NewSearchQueryFailedError(a.config.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError(a.config.Index, fmt.Errorf("search failed: %s", res.String()))
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID     string   `json:"_id"`
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.NewSearchQueryFailedError(a.config.Index, err)
	}

	docs := make([]Document, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		d := hit.Source
		if d.ID == "" {
			d.ID = hit.ID
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// IndexDocuments writes the passages to the index and refreshes it.
func (a *Answerer) IndexDocuments(ctx context.Context, docs []Document) error {
	for _, d := range docs {
		body, err := json.Marshal(d)
		if err != nil {
			return err
		}
		req := esapi.IndexRequest{
			Index:      a.config.Index,
			DocumentID: d.ID,
			Body:       bytes.NewReader(body),
		}
		res, err := req.Do(ctx, a.es)
		if err != nil {
			return errors.NewSearchQueryFailedError(a.config.Index, err)
		}
		res.Body.Close()
		if res.IsError() {
			return errors.NewSearchQueryFailedError(a.config.Index, fmt.Errorf("index failed: %s", res.Status()))
		}
	}

	res, err := esapi.IndicesRefreshRequest{Index: []string{a.config.Index}}.Do(ctx, a.es)
	if err != nil {
		return errors.NewSearchQueryFailedError(a.config.Index, err)
	}
	defer res.Body.Close()
	return nil
}
