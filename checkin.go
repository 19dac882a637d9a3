package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CheckinOutcome classifies one day's check-in attempt for one game. The
// portal is the source of truth for "already claimed": outcomes are never
// persisted locally, they are recomputed each run by probing portal state.
type CheckinOutcome string

const (
	OutcomeClaimedNow     CheckinOutcome = "claimed_now"
	OutcomeAlreadyClaimed CheckinOutcome = "already_claimed"
	OutcomeFailed         CheckinOutcome = "failed"
)

// CheckinDriver performs the daily claim for any game, driven entirely by the
// game's configuration record. One algorithm, N navigation targets.
type CheckinDriver struct {
	cfg   *Config
	sleep func(time.Duration)
}

func NewCheckinDriver(cfg *Config) *CheckinDriver {
	return &CheckinDriver{cfg: cfg, sleep: time.Sleep}
}

// CheckIn claims today's reward for the game. Portal state is inspected
// before acting: when the page already reports the day as claimed, no
// mutating action is performed. After a claim the new state is re-verified;
// a claim whose post-condition never shows up is reported as failed, not
// retried (the daily cadence makes next-day retry acceptable).
func (d *CheckinDriver) CheckIn(ctx *AuthContext, game *GameConfig) (CheckinOutcome, string) {
	page, err := ctx.OpenPage(game.CheckinURL)
	if err != nil {
		return OutcomeFailed, fmt.Sprintf("failed to open check-in page: %v", err)
	}
	defer page.Close()

	d.closePopups(page, game)
	d.sleep(time.Duration(d.cfg.MediumWaitMs) * time.Millisecond)

	claimable, err := evalCount(page, game.ClaimableSelector, game.ClaimableImageURL)
	if err != nil {
		return OutcomeFailed, fmt.Sprintf("failed to inspect check-in state: %v", err)
	}
	if claimable == 0 {
		slog.Info("already checked in today", "game", game.ID)
		return OutcomeAlreadyClaimed, "portal reports today's reward as claimed"
	}

	slog.Info("claimable reward found", "game", game.ID, "items", claimable)

	clicked, err := evalClick(page, game.ClaimableSelector, "", game.ClaimableImageURL)
	if err != nil {
		return OutcomeFailed, fmt.Sprintf("claim click failed: %v", err)
	}
	if !clicked {
		return OutcomeFailed, "claimable item disappeared before it could be clicked"
	}

	if d.verifyClaimed(page, game) {
		slog.Info("check-in completed", "game", game.ID)
		return OutcomeClaimedNow, "reward claimed"
	}

	return OutcomeFailed, "claim was clicked but the portal never confirmed it"
}

// closePopups dismisses the guide/announcement dialogs these pages open over
// the sign-in grid. Absence of a popup is not an error.
func (d *CheckinDriver) closePopups(page Page, game *GameConfig) {
	clicked, err := evalClick(page, game.PopupCloseSelector, "", "")
	if err != nil {
		slog.Debug("popup dismissal failed", "game", game.ID, "error", err)
		return
	}
	if clicked {
		slog.Debug("closed popup dialog", "game", game.ID)
		d.sleep(time.Duration(d.cfg.ShortWaitMs) * time.Millisecond)
	}
}

// verifyClaimed polls for the post-condition of a successful claim: the
// success message (directly or inside the success dialog), or the claimable
// item count dropping to zero.
func (d *CheckinDriver) verifyClaimed(page Page, game *GameConfig) bool {
	timeout := time.Duration(d.cfg.SuccessTimeoutSeconds) * time.Second
	interval := time.Duration(d.cfg.ShortWaitMs) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}

	deadline := time.Now().Add(timeout)
	for {
		if ok, err := evalBodyContains(page, game.SuccessText); err == nil && ok {
			return true
		}
		if text, err := evalText(page, game.SuccessDialogSelector); err == nil &&
			text != "" && strings.Contains(text, game.SuccessText) {
			return true
		}
		if count, err := evalCount(page, game.ClaimableSelector, game.ClaimableImageURL); err == nil && count == 0 {
			return true
		}
		if !time.Now().Before(deadline) {
			return false
		}
		d.sleep(interval)
	}
}
