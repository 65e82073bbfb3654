// internal/conversation/assistant/service.go
package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"

	"careescapes-workers/internal/common/errors"
	"careescapes-workers/internal/common/logger"
	"careescapes-workers/internal/common/metrics"
	"careescapes-workers/internal/conversation/router"
	"careescapes-workers/internal/models"
)

// DefaultSessionID is the session every anonymous legacy caller shares.
// Its history is kept, but no entities are remembered in it, so one caller's
// user_id or booking_id never reaches another caller.
const DefaultSessionID = "default_user"

// SessionStore is the externally owned keyed store of conversations.
// Get returns (nil, nil) for an unknown session.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	Put(ctx context.Context, session *models.Session) error
}

type Router interface {
	Route(ctx context.Context, req router.Request) router.Reply
}

// Service runs one turn per call, loading and saving the session around the
// router. Turns for the same session never overlap.
type Service struct {
	router Router
	store  SessionStore
	locks  *keyedMutex
	now    func() time.Time
	logger logger.Logger
}

func NewService(r Router, store SessionStore, log logger.Logger) *Service {
	return &Service{
		router: r,
		store:  store,
		locks:  newKeyedMutex(),
		now:    time.Now,
		logger: log.With(map[string]interface{}{"component": "assistant"}),
	}
}

// HandleMessage routes message within sessionID. Session store failures are
// logged and never drop the reply.
func (s *Service) HandleMessage(ctx context.Context, sessionID, message string) (router.Reply, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return router.Reply{}, errors.NewInputParsingFailedError(fmt.Errorf("session id is required"))
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	log := s.logger.With(map[string]interface{}{"sessionId": sessionID})

	sess, loaded := s.load(ctx, sessionID, log)
	shared := sessionID == DefaultSessionID

	known := sess.Known
	if shared {
		known = models.EntityBag{}
	}

	reply := s.router.Route(ctx, router.Request{
		Utterance: message,
		History:   sess.History,
		Known:     known,
	})

	sess.History = reply.History
	if sess.Known == nil || shared {
		sess.Known = models.EntityBag{}
	}
	if !shared {
		for _, key := range reply.Learned.Keys() {
			sess.Known.Set(key, reply.Learned.Get(key))
		}
	}
	sess.UpdatedAt = s.now().UTC()

	if !loaded {
		log.Warn("session was not loaded, skipping save to keep stored history intact", nil)
		return reply, nil
	}

	if err := s.store.Put(ctx, sess); err != nil {
		metrics.SessionStoreErrors.WithLabelValues("put").Inc()
		log.Error("failed to save session", map[string]interface{}{
			"error": errors.NewSessionStoreFailedError("put", err),
		})
	}

	return reply, nil
}

// History returns the stored conversation for sessionID.
func (s *Service) History(ctx context.Context, sessionID string) (models.ConversationHistory, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, errors.NewSessionStoreFailedError("get", err)
	}
	if sess == nil {
		return nil, errors.NewResourceNotFoundError("Session", sessionID)
	}
	return sess.History, nil
}

// load reports false when the store failed, in which case a fresh session is
// used for this turn only.
func (s *Service) load(ctx context.Context, sessionID string, log logger.Logger) (*models.Session, bool) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		metrics.SessionStoreErrors.WithLabelValues("get").Inc()
		log.Error("failed to load session, starting fresh", map[string]interface{}{
			"error": errors.NewSessionStoreFailedError("get", err),
		})
		return models.NewSession(sessionID, s.now().UTC()), false
	}
	if sess == nil {
		return models.NewSession(sessionID, s.now().UTC()), true
	}
	return sess, true
}
