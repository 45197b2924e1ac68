package party_test

import (
	"testing"
	"time"

	"reveal-party-service/internal/domain"
	"reveal-party-service/internal/party"
)

// newTestSession uses a fast countdown tick and a short disconnect grace
// so timer behavior is testable without real-time waits.
func newTestSession() *party.Session {
	return party.NewSessionForTest(time.Now, 10*time.Millisecond, 50*time.Millisecond)
}

func numberQuestion(id, answer string, points int) domain.Question {
	return domain.Question{
		ID:            id,
		Question:      "How many?",
		CorrectAnswer: answer,
		Points:        points,
		Type:          domain.KindNumber,
	}
}

func textQuestion(id, answer string, points int) domain.Question {
	return domain.Question{
		ID:            id,
		Question:      "What?",
		CorrectAnswer: answer,
		Points:        points,
		Type:          domain.KindText,
	}
}

// waitEvent consumes the channel until an event of the wanted type
// arrives, skipping unrelated broadcasts.
func waitEvent(t *testing.T, ch <-chan party.Event, typ string) party.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", typ)
			}
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

// expectNoEvent asserts that no event of the given type arrives within
// the window.
func expectNoEvent(t *testing.T, ch <-chan party.Event, typ string, window time.Duration) {
	t.Helper()
	deadline := time.After(window)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Type == typ {
				t.Fatalf("unexpected %s event: %+v", typ, ev.Payload)
			}
		case <-deadline:
			return
		}
	}
}
