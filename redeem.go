package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RedeemOutcome classifies one redemption attempt.
type RedeemOutcome string

const (
	RedeemOutcomeRedeemed     RedeemOutcome = "redeemed"
	RedeemOutcomeInvalid      RedeemOutcome = "invalid"
	RedeemOutcomeAlreadyUsed  RedeemOutcome = "already_used"
	RedeemOutcomeSkippedKnown RedeemOutcome = "skipped_known"
	// RedeemOutcomeFailed only ever appears in the run report: transient
	// failures are never written to the ledger, so the code is retried on the
	// next run.
	RedeemOutcomeFailed RedeemOutcome = "failed"
)

// errAmbiguousResult marks attempts whose portal response could not be
// classified. It must never be promoted to a ledger write.
type errAmbiguousResult struct{ message string }

func (e *errAmbiguousResult) Error() string {
	return fmt.Sprintf("redemption result is ambiguous: %s", e.message)
}

// RedeemDriver submits codes through a game's redemption page, consulting and
// updating the ledger.
type RedeemDriver struct {
	cfg    *Config
	ledger *Ledger
	sleep  func(time.Duration)
}

func NewRedeemDriver(cfg *Config, ledger *Ledger) *RedeemDriver {
	return &RedeemDriver{cfg: cfg, ledger: ledger, sleep: time.Sleep}
}

// Redeem applies one code to one game account. A code the ledger already
// shows as redeemed or already-used-remotely is skipped without contacting
// the portal. Definitive portal classifications are written to the ledger;
// transient failures are returned as errors and leave the ledger untouched.
// A returned StorageError is fatal for the run.
func (d *RedeemDriver) Redeem(ctx *AuthContext, game *GameConfig, code string) (RedeemOutcome, string, error) {
	if d.ledger.SkipWorthy(game.ID, code) {
		entry, _ := d.ledger.Lookup(game.ID, code)
		slog.Info("skipping known code", "game", game.ID, "code", code, "status", entry.Status)
		return RedeemOutcomeSkippedKnown, string(entry.Status), nil
	}

	message, err := d.submit(ctx, game, code)
	if err != nil {
		return RedeemOutcomeFailed, "", err
	}

	outcome, status := classifyRedemption(message)
	if outcome == RedeemOutcomeFailed {
		// The portal answered, but with text we cannot classify. Recording a
		// guess would either burn the code or resubmit a redeemed one.
		return RedeemOutcomeFailed, message, &errAmbiguousResult{message: message}
	}

	if err := d.ledger.Record(game.ID, code, status, message); err != nil {
		return RedeemOutcomeFailed, message, err
	}

	slog.Info("redemption resolved", "game", game.ID, "code", code, "outcome", outcome)
	return outcome, message, nil
}

// submit drives the redemption page: navigate with the code pre-filled,
// execute the scripted clicks (region selection then submit), then poll for
// the result message.
func (d *RedeemDriver) submit(ctx *AuthContext, game *GameConfig, code string) (string, error) {
	page, err := ctx.OpenPage(game.RedeemURL(code))
	if err != nil {
		return "", fmt.Errorf("failed to open redemption page: %w", err)
	}
	defer page.Close()

	for _, step := range game.RedeemSteps {
		clicked, err := evalClick(page, step.Selector, step.Text, "")
		if err != nil {
			return "", fmt.Errorf("failed to click %s: %w", step.Description, err)
		}
		if !clicked {
			return "", fmt.Errorf("%s not found on redemption page", step.Description)
		}
		slog.Debug("clicked redemption step", "game", game.ID, "step", step.Description)
		d.sleep(time.Duration(step.WaitMs) * time.Millisecond)
	}

	attempts := d.cfg.MessagePollAttempts
	if attempts <= 0 {
		attempts = 5
	}
	for i := 0; i < attempts; i++ {
		text, err := evalText(page, game.MessageSelector)
		if err != nil {
			return "", fmt.Errorf("failed to read redemption result: %w", err)
		}
		if text != "" {
			return text, nil
		}
		d.sleep(time.Duration(d.cfg.MessagePollMs) * time.Millisecond)
	}

	return "", fmt.Errorf("redemption result message never appeared")
}

// classifyRedemption maps the portal's result text onto a terminal outcome.
// Already-used phrasings are checked before invalid ones because several of
// them also contain words like "redeemed". An unrecognized message maps to
// RedeemOutcomeFailed and is treated as ambiguous by the caller.
func classifyRedemption(message string) (RedeemOutcome, LedgerStatus) {
	text := strings.ToLower(message)

	alreadyUsed := []string{
		"already in use",
		"already been used",
		"already redeemed",
		"redeemed before",
		"already claimed",
	}
	for _, phrase := range alreadyUsed {
		if strings.Contains(text, phrase) {
			return RedeemOutcomeAlreadyUsed, StatusAlreadyUsed
		}
	}

	invalid := []string{
		"invalid",
		"expired",
		"not found",
		"incorrect",
		"doesn't exist",
		"does not exist",
	}
	for _, phrase := range invalid {
		if strings.Contains(text, phrase) {
			return RedeemOutcomeInvalid, StatusInvalid
		}
	}

	if strings.Contains(text, "success") || strings.Contains(text, "congratulations") {
		return RedeemOutcomeRedeemed, StatusRedeemed
	}

	return RedeemOutcomeFailed, ""
}
