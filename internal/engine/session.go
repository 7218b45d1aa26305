package engine

import (
	"time"

	"github.com/roach88/docsql/internal/store"
)

// Session is the immutable execution context of one request: who runs the
// statements, in which project, and which timezone NOW() reports in.
//
// Build it once with NewSession and pass it to every Execute call.
type Session struct {
	projectID string
	actorID   string
	timezone  string
	loc       *time.Location
}

// NewSession builds a session. An empty or unknown IANA timezone leaves the
// session without a location, and NOW() then reports UTC.
func NewSession(projectID, actorID, timezone string) Session {
	s := Session{projectID: projectID, actorID: actorID, timezone: timezone}
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err == nil {
			s.loc = loc
		}
	}
	return s
}

// ProjectID returns the project the session acts on.
func (s Session) ProjectID() string { return s.projectID }

// ActorID returns the authenticated actor.
func (s Session) ActorID() string { return s.actorID }

// Timezone returns the timezone name as given.
func (s Session) Timezone() string { return s.timezone }

// Location returns the resolved timezone, or nil when none resolved.
func (s Session) Location() *time.Location { return s.loc }

// Scope returns the store scope for repository calls.
func (s Session) Scope() store.Scope {
	return store.Scope{ProjectID: s.projectID, ActorID: s.actorID}
}
