package party

import "reveal-party-service/internal/domain"

// Command is an admin-triggered phase transition.
type Command string

const (
	CmdStartQuestion       Command = "start-trivia-question"
	CmdShowQuestionResults Command = "show-question-results"
	CmdEndTrivia           Command = "end-trivia"
	CmdStartVoting         Command = "start-voting"
	CmdEndVoting           Command = "end-voting"
	CmdStartCountdown      Command = "start-countdown"
	CmdRevealGender        Command = "reveal-gender"
	CmdShowWinner          Command = "show-trivia-winner"
	CmdStartDrawing        Command = "start-drawing-game"
	CmdDrawingVoting       Command = "drawing-voting"
	CmdShowDrawingResults  Command = "show-drawing-results"
	CmdReset               Command = "reset-event"
)

// transition is one row of the authorization table: the set of phases a
// command may fire from (nil means any) and the phase it moves to.
type transition struct {
	from []domain.Phase
	to   domain.Phase
}

// transitions centralizes every phase gate so individual handlers never
// re-implement the check. Commands absent from a phase's allowed set are
// silently dropped by the caller.
var transitions = map[Command]transition{
	CmdStartQuestion:       {to: domain.PhaseTriviaActive},
	CmdShowQuestionResults: {from: []domain.Phase{domain.PhaseTriviaActive}, to: domain.PhaseTriviaResults},
	CmdEndTrivia:           {to: domain.PhaseTriviaFinal},
	CmdStartVoting:         {to: domain.PhaseVotingActive},
	CmdEndVoting:           {from: []domain.Phase{domain.PhaseVotingActive}, to: domain.PhaseVotingResults},
	CmdStartCountdown:      {to: domain.PhaseCountdown},
	CmdRevealGender:        {to: domain.PhaseRevealed},
	CmdShowWinner:          {to: domain.PhaseTriviaWinner},
	CmdStartDrawing:        {to: domain.PhaseDrawingActive},
	CmdDrawingVoting:       {from: []domain.Phase{domain.PhaseDrawingActive}, to: domain.PhaseDrawingVoting},
	CmdShowDrawingResults:  {from: []domain.Phase{domain.PhaseDrawingVoting}, to: domain.PhaseDrawingResults},
	CmdReset:               {to: domain.PhaseWaiting},
}

// canApplyLocked reports whether cmd is legal in the current phase.
func (s *Session) canApplyLocked(cmd Command) bool {
	t, ok := transitions[cmd]
	if !ok {
		return false
	}
	if len(t.from) == 0 {
		return true
	}
	for _, p := range t.from {
		if s.phase == p {
			return true
		}
	}
	return false
}

// applyLocked moves to the command's target phase if the gate allows it.
func (s *Session) applyLocked(cmd Command) bool {
	if !s.canApplyLocked(cmd) {
		return false
	}
	s.phase = transitions[cmd].to
	return true
}
