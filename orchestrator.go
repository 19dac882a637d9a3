package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Operation is one requested top-level step of a run.
type Operation string

const (
	OpAuth    Operation = "auth"
	OpCheckin Operation = "checkin"
	OpRedeem  Operation = "redeem"
)

// ParseOperations validates an ordered command sequence like
// ["checkin", "redeem"].
func ParseOperations(args []string) ([]Operation, error) {
	ops := make([]Operation, 0, len(args))
	for _, arg := range args {
		switch op := Operation(strings.ToLower(strings.TrimSpace(arg))); op {
		case OpAuth, OpCheckin, OpRedeem:
			ops = append(ops, op)
		default:
			return nil, fmt.Errorf("unknown operation %q (expected auth, checkin or redeem)", arg)
		}
	}
	if len(ops) == 0 {
		return nil, errors.New("no operations requested")
	}
	return ops, nil
}

// Orchestrator sequences the requested operations across all enabled games,
// aggregating every outcome into a run report. Per-game and per-code failures
// are isolated; only authentication and storage failures abort the run.
type Orchestrator struct {
	cfg      *Config
	sessions *SessionManager
	ledger   *Ledger
	source   CodeSource

	checkin *CheckinDriver
	redeem  *RedeemDriver
	sleep   func(time.Duration)
}

func NewOrchestrator(cfg *Config, sessions *SessionManager, ledger *Ledger, source CodeSource) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		sessions: sessions,
		ledger:   ledger,
		source:   source,
		checkin:  NewCheckinDriver(cfg),
		redeem:   NewRedeemDriver(cfg, ledger),
		sleep:    time.Sleep,
	}
}

// Run executes the requested operations strictly in the order given. The
// authenticated context is established lazily, once, and shared by every
// driver in the run.
func (o *Orchestrator) Run(ops []Operation) *RunReport {
	report := NewRunReport()
	slog.Info("run started", "run_id", report.RunID, "operations", ops)

	games, err := o.cfg.EnabledGameConfigs()
	if err != nil {
		report.AddFailure(err.Error())
		return report
	}

	var ctx *AuthContext
	defer func() {
		if ctx != nil {
			ctx.Close()
		}
	}()

	ensure := func() error {
		if ctx != nil {
			return nil
		}
		ctx, err = o.sessions.EnsureAuthenticated(o.cfg.AllowInteractiveLogin)
		return err
	}

	for _, op := range ops {
		if err := ensure(); err != nil {
			o.recordFatal(report, err)
			return report
		}

		switch op {
		case OpAuth:
			slog.Info("authenticated session established")

		case OpCheckin:
			for _, game := range games {
				outcome, message := o.checkin.CheckIn(ctx, game)
				report.AddCheckin(game.ID, outcome, message)
			}

		case OpRedeem:
			for _, game := range games {
				if fatal := o.redeemGame(ctx, report, game); fatal {
					return report
				}
			}
		}
	}

	slog.Info("run finished", "run_id", report.RunID, "exit_code", report.ExitCode())
	return report
}

// redeemGame discovers and redeems codes for one game. It reports whether a
// fatal storage failure occurred; everything else is recorded and survived.
func (o *Orchestrator) redeemGame(ctx *AuthContext, report *RunReport, game *GameConfig) bool {
	codes, err := o.source.DiscoverCodes(ctx, game.ID)
	if err != nil {
		report.AddFailure(fmt.Sprintf("code discovery failed for %s: %v", game.ID, err))
		return false
	}
	if len(codes) == 0 {
		slog.Info("no candidate codes", "game", game.ID)
		return false
	}

	for i, code := range codes {
		outcome, message, err := o.redeem.Redeem(ctx, game, code)
		if err != nil {
			if IsStorageError(err) {
				report.AddRedemption(game.ID, code, outcome, err.Error())
				o.recordFatal(report, err)
				return true
			}
			message = err.Error()
		}
		report.AddRedemption(game.ID, code, outcome, message)

		// Politeness delay between submissions; skipped entries cost nothing.
		if outcome != RedeemOutcomeSkippedKnown && i < len(codes)-1 {
			o.sleep(time.Duration(o.cfg.RedeemDelaySeconds) * time.Second)
		}
	}

	return false
}

func (o *Orchestrator) recordFatal(report *RunReport, err error) {
	switch {
	case IsStorageError(err):
		report.StorageFatal = true
	case errors.Is(err, ErrAuthenticationUnavailable), errors.Is(err, ErrLoginTimeout):
		report.AuthRequired = true
	default:
		report.AuthRequired = true
	}
	report.AddFailure(err.Error())
	slog.Error("run aborted", "error", err)
}
