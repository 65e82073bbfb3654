// internal/conversation/classifier/classifier.go
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"careescapes-workers/internal/common/errors"
	"careescapes-workers/internal/common/logger"
	"careescapes-workers/internal/common/metrics"
	"careescapes-workers/internal/common/validation"
	"careescapes-workers/internal/models"
)

// Completer is the text-completion capability. Its reply has no guaranteed shape.
type Completer interface {
	ClassifyText(ctx context.Context, prompt, utterance string) (string, error)
}

// Classification is the classifier's verdict. Fallback is set when the model
// call or its output failed and a safe default intent was chosen instead.
type Classification struct {
	Intent   models.Intent
	Entities models.EntityBag
	Fallback bool
}

type Classifier struct {
	completer Completer
	timeout   time.Duration
	logger    logger.Logger
}

func New(completer Completer, timeout time.Duration, log logger.Logger) *Classifier {
	return &Classifier{
		completer: completer,
		timeout:   timeout,
		logger:    log.With(map[string]interface{}{"component": "classifier"}),
	}
}

var replySchema = validation.JSONSchema{
	Type: "object",
	Properties: map[string]validation.Property{
		"intent":   {Description: "one of the known intents"},
		"entities": {Type: []string{"object", "null"}},
	},
}

// Classify asks the model for (intent, entities). It never returns an error:
// every failure resolves to provide_name with the extracted names when there
// are any, otherwise faq_query with an empty bag.
func (c *Classifier) Classify(ctx context.Context, text string, extracted models.EntityBag) Classification {
	raw, err := c.complete(ctx, text)
	if err != nil {
		outcome := "failed"
		if errors.HasCode(err, errors.ErrCodeClassifierTimeout) {
			outcome = "timeout"
		}
		metrics.ClassifierCalls.WithLabelValues(outcome).Inc()
		c.logger.Warn("classifier call failed, using fallback intent", map[string]interface{}{"error": err})
		return fallback(extracted)
	}

	intent, entities, err := parseReply(raw)
	if err != nil {
		metrics.ClassifierCalls.WithLabelValues("malformed").Inc()
		c.logger.Warn("classifier reply unusable, using fallback intent", map[string]interface{}{
			"error": err,
			"reply": truncate(raw, 200),
		})
		return fallback(extracted)
	}

	metrics.ClassifierCalls.WithLabelValues("ok").Inc()
	c.logger.Info("utterance classified", map[string]interface{}{
		"intent":   intent.String(),
		"entities": entities.Keys(),
	})
	return Classification{Intent: intent, Entities: entities}
}

// complete makes exactly one bounded call and converts panics and timeouts into errors.
func (c *Classifier) complete(ctx context.Context, text string) (string, error) {
	if c.completer == nil {
		return "", errors.NewClassifierFailedError(fmt.Errorf("no completer configured"))
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- reply{err: errors.NewClassifierFailedError(fmt.Errorf("completer panicked: %v", r))}
			}
		}()
		out, err := c.completer.ClassifyText(ctx, IntentPrompt, text)
		done <- reply{text: out, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if ctx.Err() != nil || errors.HasCode(r.err, errors.ErrCodeGenAITimeout) {
				return "", errors.NewClassifierTimeoutError()
			}
			if _, ok := errors.AsStandardError(r.err); ok {
				return "", r.err
			}
			return "", errors.NewClassifierFailedError(r.err)
		}
		return r.text, nil
	case <-ctx.Done():
		return "", errors.NewClassifierTimeoutError()
	}
}

// parseReply extracts the outermost JSON object from free text and validates it.
func parseReply(raw string) (models.Intent, models.EntityBag, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", nil, errors.NewClassifierMalformedOutputError("no JSON object in reply")
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &doc); err != nil {
		return "", nil, errors.NewClassifierMalformedOutputError(err.Error())
	}

	if result := validation.ValidateInput(doc, replySchema); !result.Valid {
		return "", nil, errors.NewClassifierMalformedOutputError(strings.Join(result.GetErrorMessages(), "; "))
	}

	obj := doc.(map[string]interface{})

	intent := models.IntentUnknown
	if s, ok := obj["intent"].(string); ok {
		intent = models.ParseIntent(s)
	}

	entities := models.EntityBag{}
	if rawEntities, ok := obj["entities"].(map[string]interface{}); ok {
		for key, value := range rawEntities {
			if !models.KnownEntityKeys[key] {
				continue
			}
			switch v := value.(type) {
			case string:
				entities.Set(key, v)
			case float64:
				entities.Set(key, strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
	}

	return intent, entities, nil
}

func fallback(extracted models.EntityBag) Classification {
	names := models.EntityBag{}
	names.FillMissing(extracted, models.EntityFirstName, models.EntityLastName)
	if !names.IsEmpty() {
		return Classification{Intent: models.IntentProvideName, Entities: names, Fallback: true}
	}
	return Classification{Intent: models.IntentFAQQuery, Entities: models.EntityBag{}, Fallback: true}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// back off to a rune boundary so the log field stays valid UTF-8
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
