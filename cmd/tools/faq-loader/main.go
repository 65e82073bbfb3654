// cmd/tools/faq-loader/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"careescapes-workers/internal/common/config"
	"careescapes-workers/internal/common/database"
	"careescapes-workers/internal/common/logger"
	"careescapes-workers/internal/knowledge"
	"careescapes-workers/pkg/faqset"
)

var faqPath string

func main() {
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	loadCmd := flag.NewFlagSet("load", flag.ExitOnError)

	// Add command flags
	addCmd.StringVar(&faqPath, "path", "configs/faq-documents.json", "Path to FAQ document set")
	id := addCmd.String("id", "", "Document ID (e.g., faq-visa-letter)")
	question := addCmd.String("question", "", "Question the document answers")
	answer := addCmd.String("answer", "", "Answer text")
	content := addCmd.String("content", "", "Free-form passage, used instead of question/answer")
	source := addCmd.String("source", "", "Where the passage came from")
	tags := addCmd.String("tags", "", "Comma separated tags")

	// Validate command flags
	validateCmd.StringVar(&faqPath, "path", "configs/faq-documents.json", "Path to FAQ document set")

	// Load command flags
	loadCmd.StringVar(&faqPath, "path", "configs/faq-documents.json", "Path to FAQ document set")
	esURL := loadCmd.String("es", "", "Elasticsearch URL (defaults to the configured addresses)")
	index := loadCmd.String("index", "", "Target index (defaults to assistant.faq.index)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		addCmd.Parse(os.Args[2:])
		if *id == "" || (*content == "" && (*question == "" || *answer == "")) {
			fmt.Println("Error: id and either content or question and answer are required for add.")
			addCmd.Usage()
			os.Exit(1)
		}
		doc := faqset.Document{
			ID:       *id,
			Question: *question,
			Answer:   *answer,
			Content:  *content,
			Source:   *source,
			Tags:     splitTags(*tags),
		}
		if err := addDocument(doc); err != nil {
			fmt.Printf("Error adding document: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added document: %s\n", *id)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		set, err := loadSet()
		if err != nil {
			fmt.Printf("FAQ set validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("FAQ set validation passed (%d documents).\n", len(set.Documents))

	case "load":
		loadCmd.Parse(os.Args[2:])
		count, err := indexDocuments(*esURL, *index)
		if err != nil {
			fmt.Printf("Error loading documents: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Indexed %d documents.\n", count)

	case "help":
		fallthrough
	default:
		help()
	}
}

func addDocument(doc faqset.Document) error {
	set, err := faqset.Load(faqPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load faq set: %w", err)
		}
		set = &faqset.FAQSet{Version: "1.0.0"}
	}
	if err := set.Add(doc); err != nil {
		return err
	}
	return faqset.Save(set, faqPath)
}

func loadSet() (*faqset.FAQSet, error) {
	set, err := faqset.Load(faqPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load faq set: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

func indexDocuments(esURL, index string) (int, error) {
	set, err := loadSet()
	if err != nil {
		return 0, err
	}

	esCfg := config.ElasticsearchConfig{URL: esURL}
	if esURL == "" || index == "" {
		cfg, err := config.Load()
		if err != nil {
			return 0, fmt.Errorf("failed to load config: %w", err)
		}
		if esURL == "" {
			esCfg = cfg.Database.Elasticsearch
		}
		if index == "" {
			index = cfg.Assistant.FAQ.Index
		}
	}

	es, err := database.NewElasticsearch(esCfg)
	if err != nil {
		return 0, err
	}

	docs := make([]knowledge.Document, 0, len(set.Documents))
	for _, d := range set.Documents {
		docs = append(docs, knowledge.Document{
			ID:       d.ID,
			Question: d.Question,
			Answer:   d.Answer,
			Content:  d.Content,
			Source:   d.Source,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	answerer := knowledge.NewAnswerer(knowledge.Config{Index: index}, es.Client, nil, nil, logger.NewStructured("info", "console"))
	if err := answerer.IndexDocuments(ctx, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func help() {
	fmt.Println(`Usage: faq-loader <command> [options]

Commands:
  add       Add a document to the FAQ set
  validate  Validate the FAQ set file
  load      Index the FAQ set into Elasticsearch
  help      Show this help message

Examples:
  faq-loader add -id faq-visa -question "Do I need a visa?" -answer "Most visitors can stay 30 days visa-free."
  faq-loader validate -path configs/faq-documents.json
  faq-loader load -path configs/faq-documents.json -es http://localhost:9200`)
}
