package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCodeDerivation(t *testing.T) {
	clean := NewRunReport()
	clean.AddCheckin(GameGenshin, OutcomeAlreadyClaimed, "")
	clean.AddRedemption(GameGenshin, "GENSHINGIFT", RedeemOutcomeRedeemed, "Redeemed successfully")
	assert.Equal(t, ExitSuccess, clean.ExitCode())

	partial := NewRunReport()
	partial.AddCheckin(GameGenshin, OutcomeClaimedNow, "")
	partial.AddCheckin(GameStarRail, OutcomeFailed, "claim was never confirmed")
	assert.Equal(t, ExitPartialFailure, partial.ExitCode())

	redemptionFailed := NewRunReport()
	redemptionFailed.AddRedemption(GameZenless, "MYSTERY01", RedeemOutcomeFailed, "ambiguous")
	assert.Equal(t, ExitPartialFailure, redemptionFailed.ExitCode())

	discovery := NewRunReport()
	discovery.AddFailure("code discovery failed for gi")
	assert.Equal(t, ExitPartialFailure, discovery.ExitCode())

	auth := NewRunReport()
	auth.AuthRequired = true
	auth.AddFailure(ErrAuthenticationUnavailable.Error())
	assert.Equal(t, ExitAuthRequired, auth.ExitCode())

	storage := NewRunReport()
	storage.StorageFatal = true
	storage.AuthRequired = true
	assert.Equal(t, ExitStorageFailure, storage.ExitCode(), "storage failures dominate")
}

func TestRenderListsEveryOutcome(t *testing.T) {
	report := NewRunReport()
	report.AddCheckin(GameGenshin, OutcomeAlreadyClaimed, "reward already claimed today")
	report.AddRedemption(GameStarRail, "SR8H2026XB", RedeemOutcomeRedeemed, "Redeemed successfully")
	report.AddFailure("code discovery failed for zzz: feed unavailable")

	var buf strings.Builder
	report.Render(&buf)
	out := buf.String()

	assert.Contains(t, out, report.RunID)
	assert.Contains(t, out, "gi")
	assert.Contains(t, out, "SR8H2026XB")
	assert.Contains(t, out, "feed unavailable")
	assert.Contains(t, out, "retried on the next run")
}

func TestRenderAuthRequired(t *testing.T) {
	report := NewRunReport()
	report.AuthRequired = true

	var buf strings.Builder
	report.Render(&buf)

	require.Contains(t, buf.String(), "Authentication could not be established")
}
