package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"
	"agentdesk/internal/core/state"
	apperrors "agentdesk/pkg/errors"
	"agentdesk/pkg/tracing"
	"agentdesk/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// releaseTimeout bounds the last-resort attempt to clear a stuck busy gate.
const releaseTimeout = 5 * time.Second

// Console owns console sessions. Every state change goes through dispatch:
// lock, load, reduce, save, unlock. Effects run afterwards, outside the lock,
// and feed their outcome back as new events.
type Console struct {
	sessions     ports.SessionRepository
	locker       ports.SessionLocker
	conversation *ConversationService
	documents    *DocumentViewModel
	permissions  *PermissionAggregator
	identities   *IdentitySelector
	notifier     ports.Notifier
	metrics      ports.MetricsRecorder
	logger       *zap.SugaredLogger

	defaultIdentity string
	now             func() time.Time
	newID           func() domain.SessionID
}

func NewConsole(
	sessions ports.SessionRepository,
	locker ports.SessionLocker,
	gateway ports.Gateway,
	notifier ports.Notifier,
	metrics ports.MetricsRecorder,
	defaultIdentity string,
	logger *zap.SugaredLogger,
) *Console {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &Console{
		sessions:        sessions,
		locker:          locker,
		conversation:    NewConversationService(gateway, metrics, logger),
		documents:       NewDocumentViewModel(gateway, metrics, logger),
		permissions:     NewPermissionAggregator(gateway, metrics, logger),
		identities:      NewIdentitySelector(gateway, logger),
		notifier:        notifier,
		metrics:         metrics,
		logger:          logger,
		defaultIdentity: defaultIdentity,
		now:             time.Now,
		newID:           func() domain.SessionID { return domain.SessionID(uuid.NewString()) },
	}
}

var _ ports.ConsoleService = (*Console)(nil)

// Open creates a session acting as identity (the configured default when
// empty) and loads users and documents in parallel.
func (c *Console) Open(ctx context.Context, identity string) (domain.Session, error) {
	if identity == "" {
		identity = c.defaultIdentity
	}
	if err := validation.ValidateUsername(identity); err != nil {
		return domain.Session{}, apperrors.NewInvalidInputError(err.Error())
	}

	s := state.NewSession(c.newID(), identity, c.now())
	if err := c.sessions.Create(ctx, s); err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	c.metrics.SessionOpened()
	c.logger.Infow("session opened", "session_id", s.ID, "identity", identity)

	var usersEv, docsEv state.Event
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		usersEv = c.identities.Load(ctx)
	}()
	go func() {
		defer wg.Done()
		docsEv = c.documents.Fetch(ctx, false)
	}()
	wg.Wait()

	for _, ev := range []state.Event{usersEv, docsEv} {
		next, err := c.apply(ctx, s.ID, ev)
		if err != nil {
			return s, err
		}
		s = next
	}
	return s, nil
}

func (c *Console) Get(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	return c.sessions.Get(ctx, id)
}

// Close discards the session and its transcript.
func (c *Console) Close(ctx context.Context, id domain.SessionID) error {
	if err := c.sessions.Delete(ctx, id); err != nil {
		return err
	}
	c.metrics.SessionClosed()
	c.logger.Infow("session closed", "session_id", id)
	return nil
}

// Submit sends text to the agent as the session's identity and waits for the
// resolution turn. Blank text or a busy session is not an error: the returned
// submission is simply not accepted. The agent call survives cancellation of
// ctx so that its resolution always lands in the transcript.
func (c *Console) Submit(ctx context.Context, id domain.SessionID, text string) (ports.Submission, error) {
	if err := validation.ValidateQueryText(text); err != nil {
		return ports.Submission{}, apperrors.NewInvalidInputError(err.Error())
	}

	s, effects, err := c.dispatch(ctx, id, state.SubmitRequested{Text: text})
	if err != nil {
		return ports.Submission{}, err
	}
	if len(effects) == 0 {
		reason := "blank"
		if strings.TrimSpace(text) != "" {
			reason = "busy"
		}
		c.metrics.SubmissionRejected(reason)
		return ports.Submission{Accepted: false, Session: s}, nil
	}

	c.metrics.SubmissionAccepted()
	s = c.run(context.WithoutCancel(ctx), s, effects)
	return ports.Submission{Accepted: true, Session: s}, nil
}

// RefreshDocuments refetches the document set on demand and announces the
// outcome.
func (c *Console) RefreshDocuments(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	if _, err := c.sessions.Get(ctx, id); err != nil {
		return domain.Session{}, err
	}
	return c.apply(ctx, id, c.documents.Fetch(ctx, true))
}

// RefreshUsers refetches the known users. A changed user set re-aggregates
// the capability table.
func (c *Console) RefreshUsers(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	if _, err := c.sessions.Get(ctx, id); err != nil {
		return domain.Session{}, err
	}
	return c.apply(ctx, id, c.identities.Load(ctx))
}

// SelectIdentity switches the acting user. The transcript and any pending
// submission are left untouched.
func (c *Console) SelectIdentity(ctx context.Context, id domain.SessionID, username string) (domain.Session, error) {
	s, err := c.sessions.Get(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	if _, err := c.identities.Check(s.Users, username); err != nil {
		return s, err
	}
	return c.apply(ctx, id, state.IdentitySelected{Username: username})
}

func (c *Console) SelectView(ctx context.Context, id domain.SessionID, view domain.View) (domain.Session, error) {
	if !view.Valid() {
		return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrUnknownView, view)
	}
	return c.apply(ctx, id, state.ViewSelected{View: view})
}

func (c *Console) Matrix(ctx context.Context, id domain.SessionID) (domain.PermissionMatrix, error) {
	s, err := c.sessions.Get(ctx, id)
	if err != nil {
		return domain.PermissionMatrix{}, err
	}
	return domain.BuildMatrix(s.Users, s.Capabilities), nil
}

func (c *Console) dispatch(ctx context.Context, id domain.SessionID, ev state.Event) (domain.Session, []state.Effect, error) {
	ctx, span := tracing.TraceSessionEvent(ctx, ev.Name(), string(id))
	defer span.End()

	unlock, err := c.locker.Lock(ctx, id)
	if err != nil {
		tracing.RecordError(ctx, err)
		return domain.Session{}, nil, err
	}
	defer unlock()

	current, err := c.sessions.Get(ctx, id)
	if err != nil {
		return domain.Session{}, nil, err
	}

	next, effects := state.Reduce(current, ev)
	next.UpdatedAt = c.now()
	if err := c.sessions.Save(ctx, next); err != nil {
		tracing.RecordError(ctx, err)
		return current, nil, fmt.Errorf("save session: %w", err)
	}
	return next, effects, nil
}

func (c *Console) apply(ctx context.Context, id domain.SessionID, ev state.Event) (domain.Session, error) {
	s, effects, err := c.dispatch(ctx, id, ev)
	if err != nil {
		return s, err
	}
	return c.run(ctx, s, effects), nil
}

// run executes effects in order and returns the session as it stands after
// the last of them.
func (c *Console) run(ctx context.Context, s domain.Session, effects []state.Effect) domain.Session {
	for _, eff := range effects {
		var ev state.Event
		switch e := eff.(type) {
		case state.CallAgent:
			ev = c.conversation.Resolve(ctx, e)
		case state.RefreshDocuments:
			ev = c.documents.Fetch(ctx, e.Announce)
		case state.AggregatePermissions:
			ev = state.CapabilitiesAggregated{Table: c.permissions.Load(ctx, e.Roles)}
		case state.Notify:
			c.notify(ctx, s.ID, e)
			continue
		default:
			continue
		}

		next, err := c.apply(ctx, s.ID, ev)
		if err != nil {
			c.logger.Errorw("failed to apply session event",
				"session_id", s.ID,
				"event", ev.Name(),
				"error", err,
			)
			if _, ok := eff.(state.CallAgent); ok {
				c.releaseBusy(s.ID)
			}
			continue
		}
		s = next
	}
	return s
}

// releaseBusy records a failed resolution when the real one could not be
// stored, so the session never stays busy.
func (c *Console) releaseBusy(id domain.SessionID) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	s, effects, err := c.dispatch(ctx, id, state.AgentFailed{Err: fmt.Errorf("resolution could not be stored")})
	if err != nil {
		c.logger.Errorw("session left busy", "session_id", id, "error", err)
		return
	}
	c.run(ctx, s, effects)
}

func (c *Console) notify(ctx context.Context, id domain.SessionID, e state.Notify) {
	n := domain.Notification{
		SessionID: id,
		Level:     e.Level,
		Message:   e.Message,
		CreatedAt: c.now(),
	}
	c.metrics.NotificationSent(e.Level)
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, n); err != nil {
		c.logger.Warnw("failed to deliver notification",
			"session_id", id,
			"level", e.Level,
			"error", err,
		)
	}
}
