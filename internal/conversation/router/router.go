// internal/conversation/router/router.go
package router

import (
	"context"
	"time"

	"careescapes-workers/internal/common/logger"
	"careescapes-workers/internal/common/metrics"
	"careescapes-workers/internal/common/observability"
	"careescapes-workers/internal/conversation/classifier"
	"careescapes-workers/internal/conversation/extractor"
	"careescapes-workers/internal/conversation/handlers"
	"careescapes-workers/internal/conversation/matcher"
	"careescapes-workers/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

const (
	SourceHeuristic  = "heuristic"
	SourceClassifier = "classifier"
	SourceFallback   = "fallback"
)

type IntentMatcher interface {
	Match(text string) matcher.Result
}

type IntentClassifier interface {
	Classify(ctx context.Context, text string, extracted models.EntityBag) classifier.Classification
}

type Dispatcher interface {
	Handle(ctx context.Context, intent models.Intent, in handlers.Input) handlers.Result
}

// Request is one user turn. Known holds values remembered from earlier turns;
// they only fill entities nothing else provided.
type Request struct {
	Utterance string
	History   models.ConversationHistory
	Known     models.EntityBag
}

type Reply struct {
	Text     string                     `json:"reply"`
	Intent   models.Intent              `json:"intent"`
	Source   string                     `json:"source"`
	Status   handlers.Status            `json:"status"`
	Entities models.EntityBag           `json:"entities"`
	Learned  models.EntityBag           `json:"-"`
	History  models.ConversationHistory `json:"-"`
}

type Router struct {
	matcher    IntentMatcher
	classifier IntentClassifier
	dispatcher Dispatcher
	obs        *observability.Observability
	now        func() time.Time
	logger     logger.Logger
}

func New(m IntentMatcher, c IntentClassifier, d Dispatcher, obs *observability.Observability, log logger.Logger) *Router {
	return &Router{
		matcher:    m,
		classifier: c,
		dispatcher: d,
		obs:        obs,
		now:        time.Now,
		logger:     log.With(map[string]interface{}{"component": "router"}),
	}
}

// nameOverlayIntents are the intents whose names come from the pattern
// extractor whenever it found any. Model-supplied names only fill the gaps.
var nameOverlayIntents = map[models.Intent]bool{
	models.IntentProvideName:     true,
	models.IntentBookAppointment: true,
}

// Route resolves the utterance to an intent, dispatches it and appends both
// turns to the history. It always yields exactly one reply.
func (r *Router) Route(ctx context.Context, req Request) (reply Reply) {
	start := time.Now()
	ctx, span := r.obs.StartSpan(ctx, "router.route")
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("router panicked", map[string]interface{}{"panic": rec})
			reply = Reply{
				Text:     handlers.MsgInternalError,
				Intent:   models.IntentUnknown,
				Source:   SourceFallback,
				Status:   handlers.StatusInternalError,
				Entities: models.EntityBag{},
			}
		}
		reply.History = r.appendTurns(req.History, req.Utterance, reply.Text)

		metrics.Turns.WithLabelValues(reply.Intent.String(), reply.Source).Inc()
		r.obs.RecordTurn(ctx, reply.Intent.String(), reply.Source, time.Since(start))
		span.SetAttributes(
			attribute.String("intent", reply.Intent.String()),
			attribute.String("source", reply.Source),
		)
	}()

	extracted := extractor.ExtractNames(req.Utterance)

	intent, entities, source := r.resolve(ctx, req.Utterance, extracted)

	if nameOverlayIntents[intent] {
		entities.Overlay(extracted, models.EntityFirstName, models.EntityLastName)
	}
	entities.FillMissing(req.Known)

	r.logger.Info("intent resolved", map[string]interface{}{
		"intent":   intent.String(),
		"source":   source,
		"entities": entities.Keys(),
	})

	res := r.dispatcher.Handle(ctx, intent, handlers.Input{
		Utterance: req.Utterance,
		Entities:  entities,
	})

	return Reply{
		Text:     res.Text,
		Intent:   intent,
		Source:   source,
		Status:   res.Status,
		Entities: entities,
		Learned:  res.Learned,
	}
}

// resolve runs the heuristic matcher and escalates to the model classifier
// only when the matcher is inconclusive.
func (r *Router) resolve(ctx context.Context, utterance string, extracted models.EntityBag) (models.Intent, models.EntityBag, string) {
	m := r.matcher.Match(utterance)
	if m.Matched {
		return m.Intent, entitiesOrEmpty(m.Entities).Clone(), SourceHeuristic
	}

	cctx, span := r.obs.StartSpan(ctx, "router.classify")
	c := r.classifier.Classify(cctx, utterance, extracted)
	span.End()

	source := SourceClassifier
	if c.Fallback {
		source = SourceFallback
	}
	intent := c.Intent
	if !intent.IsValid() {
		intent = models.IntentUnknown
	}
	return intent, entitiesOrEmpty(c.Entities).Clone(), source
}

func (r *Router) appendTurns(history models.ConversationHistory, utterance, reply string) models.ConversationHistory {
	now := r.now().UTC()
	out := make(models.ConversationHistory, 0, len(history)+2)
	out = append(out, history...)
	return out.Append(
		models.Turn{Role: models.RoleUser, Content: utterance, CreatedAt: now},
		models.Turn{Role: models.RoleAssistant, Content: reply, CreatedAt: now},
	)
}

func entitiesOrEmpty(b models.EntityBag) models.EntityBag {
	if b == nil {
		return models.EntityBag{}
	}
	return b
}
