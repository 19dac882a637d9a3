package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// CodeSource supplies candidate redemption codes for a game. Implementations
// may return duplicates or stale codes; the redemption driver never assumes
// pre-filtering.
type CodeSource interface {
	DiscoverCodes(ctx *AuthContext, game Game) ([]string, error)
}

type articleCard struct {
	Info    string `json:"info"`
	Content string `json:"content"`
}

// HoyolabCodeSource scrapes the official HoYoLab article feed for recently
// posted redemption codes. The feed is fetched once per run and the parsed
// results are shared across games.
type HoyolabCodeSource struct {
	cfg   *Config
	now   func() time.Time
	sleep func(time.Duration)

	fetched  bool
	fetchErr error
	codes    map[Game][]string
}

func NewHoyolabCodeSource(cfg *Config) *HoyolabCodeSource {
	return &HoyolabCodeSource{
		cfg:   cfg,
		now:   time.Now,
		sleep: time.Sleep,
	}
}

func (s *HoyolabCodeSource) DiscoverCodes(ctx *AuthContext, game Game) ([]string, error) {
	if !s.fetched {
		s.codes, s.fetchErr = s.fetch(ctx)
		s.fetched = true
	}
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.codes[game], nil
}

func (s *HoyolabCodeSource) fetch(ctx *AuthContext) (map[Game][]string, error) {
	page, err := ctx.OpenPage(s.cfg.DiscoveryFeedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open article feed: %w", err)
	}
	defer page.Close()

	// The feed is a SPA; give the cards a moment to render.
	s.sleep(time.Duration(s.cfg.MediumWaitMs) * time.Millisecond)

	res, err := page.Eval(`() => JSON.stringify(
		Array.from(document.querySelectorAll("div.mhy-article-card")).map(c => {
			const info = c.querySelector(".mhy-article-card__info");
			const content = c.querySelector(".mhy-article-card__content");
			return {
				info: info ? info.innerText.trim() : "",
				content: content ? content.innerText.trim() : "",
			};
		}))`)
	if err != nil {
		return nil, fmt.Errorf("failed to read article cards: %w", err)
	}

	var cards []articleCard
	if err := json.Unmarshal([]byte(res.Value.Str()), &cards); err != nil {
		return nil, fmt.Errorf("failed to decode article cards: %w", err)
	}

	slog.Info("fetched article feed", "cards", len(cards))
	return s.parseCards(cards), nil
}

// parseCards turns raw article cards into per-game ordered code lists,
// keeping only articles within the lookback window.
func (s *HoyolabCodeSource) parseCards(cards []articleCard) map[Game][]string {
	now := s.now()
	lookback := now.AddDate(0, 0, -s.cfg.DiscoveryLookbackDays)
	cutoff := time.Date(lookback.Year(), lookback.Month(), lookback.Day(), 0, 0, 0, 0, now.Location())

	codes := map[Game][]string{}
	for _, card := range cards {
		// Info lines look like "08/14 • Honkai: Star Rail".
		parts := strings.SplitN(card.Info, "•", 2)
		if len(parts) != 2 {
			continue
		}

		published, err := parseArticleDate(strings.TrimSpace(parts[0]), now)
		if err != nil {
			continue
		}
		if published.Before(cutoff) {
			continue
		}

		game := MatchGameByName(strings.TrimSpace(parts[1]))
		if game == nil {
			continue
		}

		found := extractCodes(card.Content)
		if len(found) > 0 {
			slog.Debug("codes found in article", "game", game.ID, "codes", found)
			codes[game.ID] = append(codes[game.ID], found...)
		}
	}

	return codes
}

// parseArticleDate parses the feed's MM/DD header relative to now. A date
// that lands in the future belongs to the previous year (December articles
// read in January).
func parseArticleDate(s string, now time.Time) (time.Time, error) {
	parsed, err := time.Parse("01/02", s)
	if err != nil {
		return time.Time{}, err
	}

	date := time.Date(now.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, now.Location())
	if date.After(now.AddDate(0, 0, 1)) {
		date = date.AddDate(-1, 0, 0)
	}
	return date, nil
}

var codePattern = regexp.MustCompile(`\b[0-9A-Za-z]{5,}\b`)

// extractCodes pulls candidate redemption codes out of article text:
// alphanumeric runs of five or more characters, dropping all-digit runs and
// short all-letter runs that are almost certainly prose.
func extractCodes(text string) []string {
	var codes []string
	for _, candidate := range codePattern.FindAllString(text, -1) {
		if isAllDigits(candidate) {
			continue
		}
		if isAllLetters(candidate) && len(candidate) < 8 {
			continue
		}
		codes = append(codes, candidate)
	}
	return codes
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isAllLetters(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
