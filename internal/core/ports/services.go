package ports

import (
	"context"
	"time"

	"agentdesk/internal/core/domain"
)

// Submission is the outcome of one submit call. Accepted is false when the
// input was blank or the session was busy; Session is then returned as is.
type Submission struct {
	Accepted bool           `json:"accepted"`
	Session  domain.Session `json:"session"`
}

// ConsoleService drives console sessions.
type ConsoleService interface {
	Open(ctx context.Context, identity string) (domain.Session, error)
	Get(ctx context.Context, id domain.SessionID) (domain.Session, error)
	Close(ctx context.Context, id domain.SessionID) error
	Submit(ctx context.Context, id domain.SessionID, text string) (Submission, error)
	RefreshDocuments(ctx context.Context, id domain.SessionID) (domain.Session, error)
	RefreshUsers(ctx context.Context, id domain.SessionID) (domain.Session, error)
	SelectIdentity(ctx context.Context, id domain.SessionID, username string) (domain.Session, error)
	SelectView(ctx context.Context, id domain.SessionID, view domain.View) (domain.Session, error)
	Matrix(ctx context.Context, id domain.SessionID) (domain.PermissionMatrix, error)
}

// Notifier delivers transient notifications to whoever watches a session.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// MetricsRecorder receives console-level measurements.
type MetricsRecorder interface {
	SessionOpened()
	SessionClosed()
	SubmissionAccepted()
	SubmissionRejected(reason string)
	SubmissionResolved(outcome string)
	DocumentsRefreshed(outcome string)
	PermissionQuery(role domain.Role, outcome string)
	NotificationSent(level domain.NotificationLevel)
	GatewayCall(endpoint, outcome string, duration time.Duration)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) SessionOpened()                            {}
func (NopMetrics) SessionClosed()                            {}
func (NopMetrics) SubmissionAccepted()                       {}
func (NopMetrics) SubmissionRejected(string)                 {}
func (NopMetrics) SubmissionResolved(string)                 {}
func (NopMetrics) DocumentsRefreshed(string)                 {}
func (NopMetrics) PermissionQuery(domain.Role, string)       {}
func (NopMetrics) NotificationSent(domain.NotificationLevel) {}
func (NopMetrics) GatewayCall(string, string, time.Duration) {}
