// Package state holds the console session state machine. Reduce is pure: it
// never mutates its input and performs no I/O, it only describes follow-up
// work as effects.
package state

import (
	"strings"
	"time"

	"agentdesk/internal/core/domain"
)

// NewSession returns a fresh session whose transcript holds only the greeting
// for identity.
func NewSession(id domain.SessionID, identity string, now time.Time) domain.Session {
	return domain.Session{
		ID:         id,
		Identity:   identity,
		Transcript: []domain.Turn{domain.Greeting(identity)},
		View:       domain.ViewChat,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Reduce applies e to s. An event that does not apply leaves the session
// unchanged and yields no effects.
func Reduce(s domain.Session, e Event) (domain.Session, []Effect) {
	switch ev := e.(type) {
	case SubmitRequested:
		return submit(s, ev)
	case AgentResolved:
		return resolve(s, ev)
	case AgentFailed:
		return fail(s)
	case DocumentsFetched:
		next := s.Clone()
		next.Documents = append([]domain.Document{}, ev.Documents...)
		next.DocumentsLoaded = true
		if ev.Announce {
			return next, []Effect{Notify{Level: domain.LevelSuccess, Message: domain.DocumentsRefreshed}}
		}
		return next, nil
	case DocumentsFetchFailed:
		// The held set stays as it was.
		if ev.Announce {
			return s, []Effect{Notify{Level: domain.LevelError, Message: domain.DocumentsRefreshFailed}}
		}
		return s, nil
	case UsersFetched:
		return usersFetched(s, ev)
	case CapabilitiesAggregated:
		next := s.Clone()
		next.Capabilities = ev.Table.Clone()
		if next.Capabilities == nil {
			next.Capabilities = domain.CapabilityTable{}
		}
		return next, nil
	case IdentitySelected:
		if _, ok := domain.FindUser(s.Users, ev.Username); !ok || ev.Username == s.Identity {
			return s, nil
		}
		next := s.Clone()
		next.Identity = ev.Username
		return next, nil
	case ViewSelected:
		return selectView(s, ev)
	}
	return s, nil
}

func submit(s domain.Session, ev SubmitRequested) (domain.Session, []Effect) {
	text := strings.TrimSpace(ev.Text)
	if text == "" || s.Busy {
		return s, nil
	}

	next := s.Clone()
	next.Transcript = append(next.Transcript, domain.UserTurn(text))
	next.Busy = true
	return next, []Effect{CallAgent{User: s.Identity, Query: text}}
}

func resolve(s domain.Session, ev AgentResolved) (domain.Session, []Effect) {
	if !s.Busy {
		return s, nil
	}

	next := s.Clone()
	next.Busy = false

	resp := ev.Response
	if resp.Succeeded() {
		output := resp.Output
		if output == "" {
			output = domain.SuccessFallback
		}
		next.Transcript = append(next.Transcript, domain.AssistantTurn(output))
		return next, []Effect{RefreshDocuments{}}
	}

	text, notice := resp.Message, resp.Message
	if text == "" {
		text = domain.ErrorFallback
		notice = domain.ErrorNotificationFallback
	}
	next.Transcript = append(next.Transcript, domain.AssistantTurn("Error: "+text))
	return next, []Effect{Notify{Level: domain.LevelError, Message: notice}}
}

func fail(s domain.Session) (domain.Session, []Effect) {
	if !s.Busy {
		return s, nil
	}

	next := s.Clone()
	next.Busy = false
	next.Transcript = append(next.Transcript, domain.AssistantTurn(domain.TransportApology))
	return next, []Effect{Notify{Level: domain.LevelError, Message: domain.TransportNotification}}
}

func usersFetched(s domain.Session, ev UsersFetched) (domain.Session, []Effect) {
	changed := !domain.SameUsers(s.Users, ev.Users) || s.Capabilities == nil

	next := s.Clone()
	next.Users = append([]domain.User{}, ev.Users...)
	if !changed {
		return next, nil
	}
	return next, []Effect{AggregatePermissions{Roles: domain.DistinctRoles(ev.Users)}}
}

func selectView(s domain.Session, ev ViewSelected) (domain.Session, []Effect) {
	if !ev.View.Valid() || ev.View == s.View {
		return s, nil
	}

	next := s.Clone()
	next.View = ev.View
	switch ev.View {
	case domain.ViewDocuments:
		return next, []Effect{RefreshDocuments{}}
	case domain.ViewPermissions:
		// entering the matrix rebuilds it
		if roles := domain.DistinctRoles(next.Users); len(roles) > 0 {
			return next, []Effect{AggregatePermissions{Roles: roles}}
		}
	}
	return next, nil
}
