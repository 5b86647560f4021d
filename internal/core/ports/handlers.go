package ports

import (
	"net/http"

	"agentdesk/internal/core/domain"
)

// NotificationStream upgrades an HTTP request into a push channel carrying
// the notifications of one session.
type NotificationStream interface {
	ServeSession(w http.ResponseWriter, r *http.Request, id domain.SessionID)
}
