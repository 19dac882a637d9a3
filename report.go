package main

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Process exit codes. Distinct codes let the scheduler tell "needs a human to
// log in" apart from ordinary partial failures without parsing the report.
const (
	ExitSuccess        = 0
	ExitPartialFailure = 1
	ExitAuthRequired   = 2
	ExitStorageFailure = 3
)

// CheckinResult is one game's check-in row in the run report.
type CheckinResult struct {
	Game    Game
	Outcome CheckinOutcome
	Message string
}

// RedemptionResult is one (game, code) redemption row in the run report.
type RedemptionResult struct {
	Game    Game
	Code    string
	Outcome RedeemOutcome
	Message string
}

// RunReport aggregates every outcome produced by one invocation. It lives
// only for the duration of the run and is rendered to the caller at the end.
type RunReport struct {
	RunID     string
	StartedAt time.Time

	Checkins    []CheckinResult
	Redemptions []RedemptionResult
	Failures    []string

	AuthRequired bool
	StorageFatal bool
}

func NewRunReport() *RunReport {
	return &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
}

func (r *RunReport) AddCheckin(game Game, outcome CheckinOutcome, message string) {
	r.Checkins = append(r.Checkins, CheckinResult{Game: game, Outcome: outcome, Message: message})
}

func (r *RunReport) AddRedemption(game Game, code string, outcome RedeemOutcome, message string) {
	r.Redemptions = append(r.Redemptions, RedemptionResult{Game: game, Code: code, Outcome: outcome, Message: message})
}

// AddFailure records a failure that is not attached to a single game or code,
// e.g. code discovery breaking for one game.
func (r *RunReport) AddFailure(message string) {
	r.Failures = append(r.Failures, message)
}

// ExitCode derives the process exit status: hard failures dominate, then any
// per-game or per-code failure makes the run partial.
func (r *RunReport) ExitCode() int {
	if r.StorageFatal {
		return ExitStorageFailure
	}
	if r.AuthRequired {
		return ExitAuthRequired
	}
	if len(r.Failures) > 0 {
		return ExitPartialFailure
	}
	for _, c := range r.Checkins {
		if c.Outcome == OutcomeFailed {
			return ExitPartialFailure
		}
	}
	for _, rr := range r.Redemptions {
		if rr.Outcome == RedeemOutcomeFailed {
			return ExitPartialFailure
		}
	}
	return ExitSuccess
}

// Render writes the human-readable summary of the run.
func (r *RunReport) Render(w io.Writer) {
	fmt.Fprintf(w, "\nRun %s (%s)\n", r.RunID, r.StartedAt.Format(time.RFC3339))

	if len(r.Checkins) > 0 {
		fmt.Fprintln(w, "\nDaily check-in:")
		for _, c := range r.Checkins {
			fmt.Fprintf(w, "  %-5s %-16s %s\n", c.Game, c.Outcome, c.Message)
		}
	}

	if len(r.Redemptions) > 0 {
		fmt.Fprintln(w, "\nCode redemption:")
		for _, rr := range r.Redemptions {
			fmt.Fprintf(w, "  %-5s %-16s %-16s %s\n", rr.Game, rr.Code, rr.Outcome, rr.Message)
		}
	}

	for _, f := range r.Failures {
		fmt.Fprintf(w, "\nfailure: %s\n", f)
	}

	switch code := r.ExitCode(); code {
	case ExitSuccess:
		fmt.Fprintln(w, "\nAll operations completed successfully.")
	case ExitAuthRequired:
		fmt.Fprintln(w, "\nAuthentication could not be established; nothing was attempted.")
	case ExitStorageFailure:
		fmt.Fprintln(w, "\nRun aborted by a storage failure.")
	default:
		fmt.Fprintln(w, "\nCompleted with some failures; they will be retried on the next run.")
	}
}
