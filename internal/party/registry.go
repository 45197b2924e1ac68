package party

import (
	"log"
	"time"

	"github.com/google/uuid"

	"reveal-party-service/internal/domain"
)

// Registration is the outcome of a register call.
type Registration struct {
	GuestID        string
	Name           string
	IsReconnection bool
	TotalScore     int
}

// Register adds a guest or rebinds a returning one. A known existingID is
// a reconnection: the transport handle moves to the new connection and
// every score survives. An unknown or empty existingID creates a fresh
// guest; a caller-supplied id is honored so clients can pre-mint theirs.
func (s *Session) Register(name, existingID, handle string) Registration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g, ok := s.guests[existingID]; ok {
		if g.handle != "" {
			delete(s.handles, g.handle)
		}
		g.handle = handle
		g.Connected = true
		g.LastSeen = s.now()
		if name != "" {
			g.Name = name
		}
		if g.removal != nil {
			g.removal.Stop()
			g.removal = nil
		}
		s.handles[handle] = g.ID

		reg := Registration{GuestID: g.ID, Name: g.Name, IsReconnection: true, TotalScore: s.totalLocked(g.ID)}
		s.emitGuestLocked(g.ID, EvRegistrationSuccess, RegistrationSuccess{
			GuestID:        g.ID,
			Name:           g.Name,
			IsReconnection: true,
			TotalScore:     reg.TotalScore,
		})
		s.emitAllLocked(EvGuestUpdate, s.rosterLocked())
		log.Printf("guest reconnected: %s (%s)", g.Name, g.ID)
		return reg
	}

	id := existingID
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now()
	g := &guestState{
		Guest: domain.Guest{
			ID:        id,
			Name:      name,
			Connected: true,
			JoinedAt:  now,
			LastSeen:  now,
		},
		handle: handle,
	}
	s.guests[id] = g
	s.handles[handle] = id

	s.emitGuestLocked(id, EvRegistrationSuccess, RegistrationSuccess{GuestID: id, Name: name})
	s.emitAllLocked(EvGuestUpdate, s.rosterLocked())
	log.Printf("guest registered: %s (%s)", name, id)
	return Registration{GuestID: id, Name: name}
}

// MarkDisconnected records transport loss for whichever guest owns the
// handle and schedules hard deletion after the grace window. Reconnecting
// within the window cancels the deletion.
func (s *Session) MarkDisconnected(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.handles[handle]
	if !ok {
		return
	}
	delete(s.handles, handle)

	g, ok := s.guests[id]
	if !ok || g.handle != handle {
		return
	}
	g.handle = ""
	g.Connected = false
	g.LastSeen = s.now()
	g.removal = time.AfterFunc(s.grace, func() { s.expireGuest(id) })

	s.emitAllLocked(EvGuestUpdate, s.rosterLocked())
	log.Printf("guest disconnected: %s (%s)", g.Name, id)
}

// expireGuest fires at the end of the grace window. A guest who came back
// in the meantime is left alone.
func (s *Session) expireGuest(guestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.guests[guestID]
	if !ok || g.Connected {
		return
	}
	s.removeGuestLocked(guestID)
	s.emitAllLocked(EvGuestUpdate, s.rosterLocked())
	log.Printf("guest expired after grace window: %s (%s)", g.Name, guestID)
}

// RemoveGuest deletes a guest and all of their state immediately.
// Unknown ids are a no-op.
func (s *Session) RemoveGuest(guestID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.guests[guestID]; !ok {
		return
	}
	s.removeGuestLocked(guestID)
	s.emitAllLocked(EvGuestUpdate, s.rosterLocked())
}

func (s *Session) removeGuestLocked(guestID string) {
	g := s.guests[guestID]
	if g.removal != nil {
		g.removal.Stop()
	}
	if g.handle != "" {
		delete(s.handles, g.handle)
	}
	delete(s.guests, guestID)
	delete(s.triviaPoints, guestID)
	delete(s.drawingPoints, guestID)
	delete(s.genderPoints, guestID)
	delete(s.votes, guestID)
	if s.trivia != nil {
		delete(s.trivia.responses, guestID)
	}
	if s.drawing != nil {
		delete(s.drawing.submissions, guestID)
		delete(s.drawing.votes, guestID)
	}
}

// GuestByHandle resolves a transport handle to its guest, for the chat
// relay and answer filter.
func (s *Session) GuestByHandle(handle string) (domain.Guest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.handles[handle]
	if !ok {
		return domain.Guest{}, false
	}
	g, ok := s.guests[id]
	if !ok {
		return domain.Guest{}, false
	}
	return g.Guest, true
}
