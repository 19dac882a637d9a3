package main

import (
	"fmt"
	"strings"
)

// Game identifies one of the supported HoYoverse titles. The set is closed:
// every persisted key and every configuration entry uses these values.
type Game string

const (
	GameGenshin  Game = "gi"
	GameStarRail Game = "hsr"
	GameZenless  Game = "zzz"
)

// RedeemStep is one scripted click on a redemption page. Text, when set,
// narrows the selector to the element whose visible text contains it.
type RedeemStep struct {
	Selector    string
	Text        string
	Description string
	WaitMs      int
}

// GameConfig carries everything the generic drivers need for one game:
// navigation targets and the state-detection selectors of its portal surfaces.
type GameConfig struct {
	ID   Game
	Name string

	// Check-in surface. ClaimableSelector matches the prize cells; on grids
	// where it matches every day's cell, ClaimableImageURL narrows it to the
	// cell whose inline style carries today's highlight image. Empty when the
	// selector alone identifies the claimable item.
	CheckinURL            string
	ClaimableSelector     string
	ClaimableImageURL     string
	PopupCloseSelector    string
	SuccessText           string
	SuccessDialogSelector string

	// Redemption surface. RedemptionURL contains a single %s for the code.
	RedemptionURL   string
	RedeemSteps     []RedeemStep
	MessageSelector string

	// Names the HoYoLab article feed uses for this game, lowercased.
	Aliases []string
}

// RedeemURL returns the redemption page URL for the given code.
func (g *GameConfig) RedeemURL(code string) string {
	return fmt.Sprintf(g.RedemptionURL, code)
}

var gameConfigs = map[Game]*GameConfig{
	GameGenshin: {
		ID:                    GameGenshin,
		Name:                  "Genshin Impact",
		CheckinURL:            "https://act.hoyolab.com/ys/event/signin-sea-v3/index.html?act_id=e202102251931481&hyl_auth_required=true&hyl_presentation_style=fullscreen&utm_source=hoyolab&utm_medium=tools&lang=en-us&bbs_theme=light&bbs_theme_device=1",
		ClaimableSelector:     ".components-home-assets-__sign-content-test_---sign-item---3gtMqV:has(.components-home-assets-__sign-content-test_---red-point---2jUBf9)",
		PopupCloseSelector:    ".components-home-assets-__sign-guide_---guide-close---2VvmzE",
		SuccessText:           "Congratulations, Traveler! You checked in today.",
		SuccessDialogSelector: ".components-common-common-dialog-__index_---title---xH8wpC",
		RedemptionURL:         "https://genshin.hoyoverse.com/en/gift?code=%s",
		RedeemSteps: []RedeemStep{
			{Selector: ".cdkey-select__btn", Description: "region selector toggle", WaitMs: 100},
			{Selector: ".cdkey-select__option", Text: "America", Description: "America region", WaitMs: 1000},
			{Selector: `button[type="submit"].cdkey-form__submit`, Text: "Redeem", Description: "redeem button", WaitMs: 1000},
		},
		MessageSelector: ".cdkey-result__message",
		Aliases:         []string{"genshin impact", "genshin"},
	},
	GameStarRail: {
		ID:                    GameStarRail,
		Name:                  "Honkai: Star Rail",
		CheckinURL:            "https://act.hoyolab.com/bbs/event/signin/hkrpg/e202303301540311.html?act_id=e202303301540311&hyl_auth_required=true&hyl_presentation_style=fullscreen&utm_source=hoyolab&utm_medium=tools&utm_campaign=checkin&utm_id=6&lang=en-us&bbs_theme=light&bbs_theme_device=1",
		ClaimableSelector:     ".components-pc-assets-__prize-list_---item---F852VZ",
		ClaimableImageURL:     "https://upload-static.hoyoverse.com/event/2023/04/21/5ccbbab8f5eb147df704e16f31fc5788_6285576485616685271.png",
		PopupCloseSelector:    ".components-pc-assets-__dialog_---dialog-close---3G9gO2",
		SuccessText:           "Congratulations Trailblazer! You've successfully checked in today!",
		SuccessDialogSelector: ".components-pc-assets-__dialog_---title---IfpJqm",
		RedemptionURL:         "https://hsr.hoyoverse.com/gift?code=%s",
		RedeemSteps: []RedeemStep{
			{Selector: ".web-cdkey-form__select--toggle", Description: "region selector toggle", WaitMs: 100},
			{Selector: ".web-cdkey-form__select--option", Text: "America", Description: "America region", WaitMs: 1000},
			{Selector: `button[type="submit"].web-cdkey-form__submit`, Text: "Redeem", Description: "redeem button", WaitMs: 2000},
		},
		MessageSelector: "div.tip-text",
		Aliases:         []string{"honkai: star rail", "honkai star rail", "star rail"},
	},
	GameZenless: {
		ID:                    GameZenless,
		Name:                  "Zenless Zone Zero",
		CheckinURL:            "https://act.hoyolab.com/bbs/event/signin/zzz/e202406031448091.html?act_id=e202406031448091&hyl_auth_required=true&hyl_presentation_style=fullscreen&utm_campaign=checkin&utm_id=8&utm_medium=tools&utm_source=hoyolab&lang=en-us&bbs_theme=light&bbs_theme_device=1",
		ClaimableSelector:     ".components-pc-assets-__prize-list_---item---F852VZ",
		ClaimableImageURL:     "https://act-webstatic.hoyoverse.com/event-static/2024/06/17/3b211daae47bbfac6bed5b447374a325_3353871917298254056.png",
		PopupCloseSelector:    ".components-pc-assets-__dialog_---dialog-close---3G9gO2",
		SuccessText:           "Congratulations! Check-in successful!",
		SuccessDialogSelector: ".components-pc-assets-__dialog_---dialog-body---1SieDs",
		RedemptionURL:         "https://zenless.hoyoverse.com/redemption?code=%s",
		RedeemSteps: []RedeemStep{
			{Selector: ".web-cdkey-form__select--toggle", Description: "region selector toggle", WaitMs: 100},
			{Selector: ".web-cdkey-form__select--option", Text: "America", Description: "America region", WaitMs: 1000},
			{Selector: `button[type="submit"].web-cdkey-form__submit`, Text: "Redeem", Description: "redeem button", WaitMs: 2000},
		},
		MessageSelector: "p.state-msg",
		Aliases:         []string{"zenless zone zero", "zenless"},
	},
}

// ParseGame resolves a configuration token like "gi" or "Genshin Impact" to a
// known game. Unknown tokens are an error so a typo in enabled_games is caught
// at startup rather than silently skipping a game.
func ParseGame(s string) (*GameConfig, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	if gc, ok := gameConfigs[Game(token)]; ok {
		return gc, nil
	}
	if gc := MatchGameByName(token); gc != nil {
		return gc, nil
	}
	return nil, fmt.Errorf("unknown game %q", s)
}

// MatchGameByName fuzzily matches a display name from the article feed
// (e.g. "Honkai: Star Rail") against the known alias lists. Returns nil when
// nothing matches.
func MatchGameByName(name string) *GameConfig {
	needle := normalizeGameName(name)
	if needle == "" {
		return nil
	}
	for _, id := range []Game{GameGenshin, GameStarRail, GameZenless} {
		gc := gameConfigs[id]
		for _, alias := range gc.Aliases {
			a := normalizeGameName(alias)
			if strings.Contains(needle, a) || strings.Contains(a, needle) {
				return gc
			}
		}
	}
	return nil
}

func normalizeGameName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
