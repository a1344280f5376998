package core

// OutcomeStatus tags the result of an authentication or resolution attempt.
type OutcomeStatus string

const (
	OutcomeSuccess          OutcomeStatus = "SUCCESS"
	OutcomeChallengePending OutcomeStatus = "CHALLENGE_PENDING"
	OutcomeFailure          OutcomeStatus = "FAILURE"
)

// AuthOutcome is the tagged result of Connect or ResolveCheckpoint.
// Exactly one of AccountID, Checkpoint or Reason is meaningful, selected
// by Status.
type AuthOutcome struct {
	Status     OutcomeStatus
	AccountID  string
	Checkpoint *Checkpoint
	Reason     error
}

// Succeeded reports whether the attempt reached a terminal authenticated state.
func (o AuthOutcome) Succeeded() bool { return o.Status == OutcomeSuccess }

// Pending reports whether the attempt is blocked on a checkpoint.
func (o AuthOutcome) Pending() bool { return o.Status == OutcomeChallengePending }
