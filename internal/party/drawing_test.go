package party_test

import (
	"testing"
	"time"

	"reveal-party-service/internal/domain"
	"reveal-party-service/internal/party"
)

func catPrompt() domain.Prompt {
	return domain.Prompt{ID: "p1", Theme: "Draw the baby as a cat"}
}

func TestDrawingCountdownAdvancesToVoting(t *testing.T) {
	s := newTestSession() // 10ms tick
	alice := s.Register("Alice", "", "h1")
	s.Register("Bob", "", "h2")

	ch, cancel := s.Subscribe(domain.RoleProjection, "")
	defer cancel()

	if ok := s.StartDrawing(catPrompt(), 2); !ok {
		t.Fatalf("expected drawing round to start")
	}
	if err := s.SubmitDrawing(alice.GuestID, "data:image/png;base64,AAA"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	started := waitEvent(t, ch, party.EvDrawingVotingStarted).Payload.(party.DrawingVotingStarted)
	if started.Theme != "Draw the baby as a cat" {
		t.Fatalf("unexpected theme: %s", started.Theme)
	}
	if len(started.Ballot) != 1 || started.Ballot[0].GuestName != "Alice" {
		t.Fatalf("expected Alice alone on the ballot, got %+v", started.Ballot)
	}
	if s.Phase() != domain.PhaseDrawingVoting {
		t.Fatalf("expected drawing-voting phase, got %s", s.Phase())
	}
}

func TestAllSubmittedAdvancesEarly(t *testing.T) {
	s := newTestSession()
	a := s.Register("Alice", "", "h1")
	b := s.Register("Bob", "", "h2")

	ch, cancel := s.Subscribe(domain.RoleAdmin, "")
	defer cancel()

	// long countdown so the timer cannot be the trigger
	s.StartDrawing(catPrompt(), 600)
	if err := s.SubmitDrawing(a.GuestID, "img-a"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.SubmitDrawing(b.GuestID, "img-b"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	started := waitEvent(t, ch, party.EvDrawingVotingStarted).Payload.(party.DrawingVotingStarted)
	if len(started.Ballot) != 2 {
		t.Fatalf("expected 2 ballot entries, got %d", len(started.Ballot))
	}
	// ballot preserves submission order
	if started.Ballot[0].GuestName != "Alice" || started.Ballot[1].GuestName != "Bob" {
		t.Fatalf("ballot out of submission order: %+v", started.Ballot)
	}
}

func TestDuplicateSubmissionIgnored(t *testing.T) {
	s := newTestSession()
	a := s.Register("Alice", "", "h1")
	s.Register("Bob", "", "h2")

	s.StartDrawing(catPrompt(), 600)
	if err := s.SubmitDrawing(a.GuestID, "first"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.SubmitDrawing(a.GuestID, "second"); err != nil {
		t.Fatalf("resubmit must be silently ignored, got %v", err)
	}

	ch, cancel := s.Subscribe(domain.RoleAdmin, "")
	defer cancel()
	s.AdvanceDrawingVoting()

	started := waitEvent(t, ch, party.EvDrawingVotingStarted).Payload.(party.DrawingVotingStarted)
	if len(started.Ballot) != 1 || started.Ballot[0].Image != "first" {
		t.Fatalf("expected the first submission to stand, got %+v", started.Ballot)
	}
}

func TestVoteToggle(t *testing.T) {
	s := newTestSession()
	a := s.Register("Alice", "", "h1")
	b := s.Register("Bob", "", "h2")

	ch, cancel := s.Subscribe(domain.RoleAdmin, "")
	defer cancel()

	s.StartDrawing(catPrompt(), 600)
	if err := s.SubmitDrawing(a.GuestID, "img-a"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	s.AdvanceDrawingVoting()
	started := waitEvent(t, ch, party.EvDrawingVotingStarted).Payload.(party.DrawingVotingStarted)
	drawingID := started.Ballot[0].DrawingID

	if err := s.VoteDrawing(b.GuestID, drawingID); err != nil {
		t.Fatalf("vote: %v", err)
	}
	update := waitEvent(t, ch, party.EvDrawingVotesUpdate).Payload.(party.DrawingVotesUpdate)
	if update.TotalVotes != 1 || update.Ballot[0].Votes != 1 {
		t.Fatalf("expected one vote, got %+v", update)
	}

	// second toggle retracts
	if err := s.VoteDrawing(b.GuestID, drawingID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	update = waitEvent(t, ch, party.EvDrawingVotesUpdate).Payload.(party.DrawingVotesUpdate)
	if update.TotalVotes != 0 || update.Ballot[0].Votes != 0 {
		t.Fatalf("expected vote retracted, got %+v", update)
	}
}

func TestVoteUnknownDrawingDropped(t *testing.T) {
	s := newTestSession()
	a := s.Register("Alice", "", "h1")

	s.StartDrawing(catPrompt(), 600)
	if err := s.SubmitDrawing(a.GuestID, "img-a"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	s.AdvanceDrawingVoting()

	ch, cancel := s.Subscribe(domain.RoleAdmin, "")
	defer cancel()
	if err := s.VoteDrawing(a.GuestID, "not-on-the-ballot"); err != nil {
		t.Fatalf("expected silent drop, got %v", err)
	}
	expectNoEvent(t, ch, party.EvDrawingVotesUpdate, 100*time.Millisecond)
}

func TestRankGroupAwardCompression(t *testing.T) {
	s := newTestSession()
	a := s.Register("Alice", "", "h1")
	b := s.Register("Bob", "", "h2")
	c := s.Register("Carol", "", "h3")

	ch, cancel := s.Subscribe(domain.RoleAdmin, "")
	defer cancel()

	s.StartDrawing(catPrompt(), 600)
	for _, sub := range []struct{ id, img string }{
		{a.GuestID, "img-a"}, {b.GuestID, "img-b"}, {c.GuestID, "img-c"},
	} {
		if err := s.SubmitDrawing(sub.id, sub.img); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	started := waitEvent(t, ch, party.EvDrawingVotingStarted).Payload.(party.DrawingVotingStarted)

	byGuest := make(map[string]string)
	for _, entry := range started.Ballot {
		byGuest[entry.GuestID] = entry.DrawingID
	}

	// Alice and Bob tie on two votes each, Carol gets one.
	for _, v := range []struct{ voter, target string }{
		{a.GuestID, byGuest[a.GuestID]},
		{a.GuestID, byGuest[b.GuestID]},
		{b.GuestID, byGuest[a.GuestID]},
		{b.GuestID, byGuest[b.GuestID]},
		{c.GuestID, byGuest[c.GuestID]},
	} {
		if err := s.VoteDrawing(v.voter, v.target); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}

	s.ShowDrawingResults()
	results := waitEvent(t, ch, party.EvDrawingResults).Payload.(party.DrawingResults)
	if len(results.Ranking) != 3 {
		t.Fatalf("expected 3 ranked drawings, got %d", len(results.Ranking))
	}

	first, second, third := results.Ranking[0], results.Ranking[1], results.Ranking[2]
	if first.Place != 1 || second.Place != 1 || third.Place != 2 {
		t.Fatalf("tied drawings must share a place: %+v", results.Ranking)
	}
	if first.Points != 5 || second.Points != 5 || third.Points != 3 {
		t.Fatalf("expected 5/5/3 award, got %d/%d/%d", first.Points, second.Points, third.Points)
	}
	if results.TotalVotes != 5 || results.Participants != 3 {
		t.Fatalf("unexpected totals: %+v", results)
	}
}

func TestZeroVoteDrawingNeverAwarded(t *testing.T) {
	s := newTestSession()
	a := s.Register("Alice", "", "h1")
	b := s.Register("Bob", "", "h2")

	ch, cancel := s.Subscribe(domain.RoleAdmin, "")
	defer cancel()

	s.StartDrawing(catPrompt(), 600)
	if err := s.SubmitDrawing(a.GuestID, "img-a"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.SubmitDrawing(b.GuestID, "img-b"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	started := waitEvent(t, ch, party.EvDrawingVotingStarted).Payload.(party.DrawingVotingStarted)

	if err := s.VoteDrawing(b.GuestID, started.Ballot[0].DrawingID); err != nil {
		t.Fatalf("vote: %v", err)
	}

	s.ShowDrawingResults()
	results := waitEvent(t, ch, party.EvDrawingResults).Payload.(party.DrawingResults)
	if len(results.Winners) != 1 {
		t.Fatalf("expected exactly one winner, got %v", results.Winners)
	}
	for _, r := range results.Ranking {
		if r.Votes == 0 && r.Points != 0 {
			t.Fatalf("zero-vote drawing must not earn points: %+v", r)
		}
	}
}

func TestEmptyBallotResults(t *testing.T) {
	s := newTestSession()
	s.Register("Alice", "", "h1")

	ch, cancel := s.Subscribe(domain.RoleAdmin, "")
	defer cancel()

	s.StartDrawing(catPrompt(), 600)
	s.AdvanceDrawingVoting()
	s.ShowDrawingResults()

	results := waitEvent(t, ch, party.EvDrawingResults).Payload.(party.DrawingResults)
	if len(results.Ranking) != 0 || len(results.Winners) != 0 {
		t.Fatalf("expected empty ranking for empty ballot, got %+v", results)
	}
}

func TestDrawingPointsFeedRunningTotal(t *testing.T) {
	s := newTestSession()
	a := s.Register("Alice", "", "h1")
	b := s.Register("Bob", "", "h2")

	aliceCh, cancel := s.Subscribe(domain.RoleGuest, a.GuestID)
	defer cancel()
	adminCh, cancelAdmin := s.Subscribe(domain.RoleAdmin, "")
	defer cancelAdmin()

	s.StartDrawing(catPrompt(), 600)
	if err := s.SubmitDrawing(a.GuestID, "img-a"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.SubmitDrawing(b.GuestID, "img-b"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	started := waitEvent(t, adminCh, party.EvDrawingVotingStarted).Payload.(party.DrawingVotingStarted)

	var aliceDrawing string
	for _, entry := range started.Ballot {
		if entry.GuestID == a.GuestID {
			aliceDrawing = entry.DrawingID
		}
	}
	if err := s.VoteDrawing(b.GuestID, aliceDrawing); err != nil {
		t.Fatalf("vote: %v", err)
	}
	s.ShowDrawingResults()

	awarded := waitEvent(t, aliceCh, party.EvPointsAwarded).Payload.(party.PointsAwarded)
	if awarded.Source != "drawing" || awarded.Points != 5 || awarded.TotalScore != 5 {
		t.Fatalf("expected first-place award of 5, got %+v", awarded)
	}
}
