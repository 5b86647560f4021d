package http

import (
	"time"

	"agentdesk/internal/core/domain"
	"agentdesk/internal/core/ports"
)

type openSessionRequest struct {
	Identity string `json:"identity"`
}

type submitRequest struct {
	Text string `json:"text"`
}

type selectIdentityRequest struct {
	Username string `json:"username"`
}

type selectViewRequest struct {
	View domain.View `json:"view"`
}

type userDTO struct {
	Username string           `json:"username"`
	Role     domain.Role      `json:"role"`
	Style    domain.RoleStyle `json:"style"`
}

type documentDTO struct {
	ID             string    `json:"id"`
	ContentPreview string    `json:"content_preview"`
	CreatedBy      string    `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Updated        bool      `json:"updated"`
}

type documentsResponse struct {
	Loaded    bool          `json:"loaded"`
	Documents []documentDTO `json:"documents"`
}

// sessionResponse is what the browser renders. Capabilities are exposed
// through the matrix endpoint instead.
type sessionResponse struct {
	ID         domain.SessionID  `json:"id"`
	Identity   string            `json:"identity"`
	ActiveUser *userDTO          `json:"active_user"`
	Users      []userDTO         `json:"users"`
	Transcript []domain.Turn     `json:"transcript"`
	Busy       bool              `json:"busy"`
	Documents  documentsResponse `json:"documents"`
	View       domain.View       `json:"view"`
	Views      []domain.View     `json:"views"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type submitResponse struct {
	Accepted bool            `json:"accepted"`
	Session  sessionResponse `json:"session"`
}

func toUserDTO(u domain.User) userDTO {
	return userDTO{Username: u.Username, Role: u.Role, Style: domain.StyleFor(u.Role)}
}

func toDocumentsResponse(s domain.Session) documentsResponse {
	docs := make([]documentDTO, 0, len(s.Documents))
	for _, d := range s.Documents {
		docs = append(docs, documentDTO{
			ID:             d.ID,
			ContentPreview: d.ContentPreview,
			CreatedBy:      d.CreatedBy,
			CreatedAt:      d.CreatedAt.Time,
			UpdatedAt:      d.UpdatedAt.Time,
			Updated:        d.WasUpdated(),
		})
	}
	return documentsResponse{Loaded: s.DocumentsLoaded, Documents: docs}
}

func toSessionResponse(s domain.Session) sessionResponse {
	users := make([]userDTO, 0, len(s.Users))
	for _, u := range s.Users {
		users = append(users, toUserDTO(u))
	}

	resp := sessionResponse{
		ID:         s.ID,
		Identity:   s.Identity,
		Users:      users,
		Transcript: append([]domain.Turn{}, s.Transcript...),
		Busy:       s.Busy,
		Documents:  toDocumentsResponse(s),
		View:       s.View,
		Views:      domain.Views,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if u, ok := s.ActiveUser(); ok {
		dto := toUserDTO(u)
		resp.ActiveUser = &dto
	}
	return resp
}

func toSubmitResponse(sub ports.Submission) submitResponse {
	return submitResponse{Accepted: sub.Accepted, Session: toSessionResponse(sub.Session)}
}
