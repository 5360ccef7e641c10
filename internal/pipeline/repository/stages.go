package repository

// Pipeline stages in order. Transitions only move forward; skipping stages
// is allowed, moving backward is not. The two closed stages are terminal.
const (
	StageProspecting   = "prospecting"
	StageQualification = "qualification"
	StageProposal      = "proposal"
	StageNegotiation   = "negotiation"
	StageClosedWon     = "closed_won"
	StageClosedLost    = "closed_lost"
)

var stageOrder = map[string]int{
	StageProspecting:   0,
	StageQualification: 1,
	StageProposal:      2,
	StageNegotiation:   3,
	StageClosedWon:     4,
	StageClosedLost:    4,
}

// Default win probability per stage, in percent.
var stageProbability = map[string]int{
	StageProspecting:   10,
	StageQualification: 25,
	StageProposal:      50,
	StageNegotiation:   75,
	StageClosedWon:     100,
	StageClosedLost:    0,
}

// Stages returns all pipeline stages in order.
func Stages() []string {
	return []string{
		StageProspecting, StageQualification, StageProposal,
		StageNegotiation, StageClosedWon, StageClosedLost,
	}
}

// KnownStage reports whether stage is a valid pipeline stage.
func KnownStage(stage string) bool {
	_, ok := stageOrder[stage]
	return ok
}

// IsClosed reports whether stage is terminal.
func IsClosed(stage string) bool {
	return stage == StageClosedWon || stage == StageClosedLost
}

// CanTransition reports whether a move from one stage to another is legal:
// strictly forward, never out of a closed stage. closed_lost is reachable
// from any open stage.
func CanTransition(from, to string) bool {
	if !KnownStage(from) || !KnownStage(to) {
		return false
	}
	if IsClosed(from) {
		return false
	}
	if to == StageClosedLost {
		return true
	}
	return stageOrder[to] > stageOrder[from]
}

// DefaultProbability returns the default win probability for a stage.
func DefaultProbability(stage string) int {
	return stageProbability[stage]
}
