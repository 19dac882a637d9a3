package main

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	// Account-settings view that only renders for an authenticated identity.
	loginCheckURL = "https://www.hoyolab.com/setting/privacy"
	// Marker element text present only when logged in.
	loginMarker = "Personal Information Settings"
)

// AuthContext is the authenticated browsing context shared by the drivers.
// It is a singleton resource: one driver uses it at a time.
type AuthContext struct {
	browser Browser
}

// OpenPage opens a new page in the authenticated context and waits for it to
// load.
func (c *AuthContext) OpenPage(url string) (Page, error) {
	return c.browser.OpenPage(url)
}

// Close releases the underlying browser.
func (c *AuthContext) Close() {
	if c.browser != nil {
		c.browser.Close()
	}
}

// SessionManager owns the session lifecycle: it validates stored sessions,
// drives interactive re-login when unavoidable, and persists refreshed state.
type SessionManager struct {
	cfg   *Config
	store *SessionStore

	// launch is swappable so the lifecycle logic is testable without Chrome.
	launch func(cfg *Config, headless bool) (Browser, error)
	now    func() time.Time
	sleep  func(time.Duration)
}

func NewSessionManager(cfg *Config, store *SessionStore) *SessionManager {
	return &SessionManager{
		cfg:    cfg,
		store:  store,
		launch: launchBrowser,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// EnsureAuthenticated produces an authenticated browsing context while
// minimizing interactive prompts: a stored record that still probes live is
// reused as-is. When the record is absent or stale, an interactive login is
// driven only if allowInteractive permits it; otherwise the run fails with
// ErrAuthenticationUnavailable before any driver work starts.
func (m *SessionManager) EnsureAuthenticated(allowInteractive bool) (*AuthContext, error) {
	record, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	if record != nil {
		ctx, err := m.resumeSession(record)
		if err == nil {
			slog.Info("stored session is live, reusing it", "captured_at", record.CapturedAt)
			return ctx, nil
		}
		slog.Info("stored session is no longer usable", "reason", err)
	}

	if !allowInteractive {
		return nil, ErrAuthenticationUnavailable
	}

	return m.interactiveLogin()
}

// resumeSession seeds a headless browser with the stored cookies and runs the
// cheap liveness probe. The browser is closed on any failure.
func (m *SessionManager) resumeSession(record *SessionRecord) (*AuthContext, error) {
	browser, err := m.launch(m.cfg, m.cfg.Headless)
	if err != nil {
		return nil, err
	}

	if err := browser.SetCookies(record.CookieParams()); err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to restore cookies: %w", err)
	}

	live, err := m.probeLoggedIn(browser)
	if err != nil {
		browser.Close()
		return nil, err
	}
	if !live {
		browser.Close()
		return nil, fmt.Errorf("liveness probe did not find the authenticated marker")
	}

	return &AuthContext{browser: browser}, nil
}

// interactiveLogin opens a visible browser on the login-check page and polls
// for the authenticated marker until the caller completes the external login
// or the bounded wait expires. A successful login overwrites the stored
// session record.
func (m *SessionManager) interactiveLogin() (*AuthContext, error) {
	slog.Info("opening browser for interactive login",
		"timeout_seconds", m.cfg.LoginTimeoutSeconds)

	browser, err := m.launch(m.cfg, false)
	if err != nil {
		return nil, err
	}

	page, err := browser.OpenPage(loginCheckURL)
	if err != nil {
		browser.Close()
		return nil, err
	}

	timeout := time.Duration(m.cfg.LoginTimeoutSeconds) * time.Second
	poll := time.Duration(m.cfg.LoginPollSeconds) * time.Second
	if poll <= 0 {
		poll = 2 * time.Second
	}

	deadline := m.now().Add(timeout)
	for {
		live, err := evalBodyContains(page, loginMarker)
		if err != nil {
			slog.Debug("login poll failed", "error", err)
		}
		if live {
			break
		}
		if !m.now().Before(deadline) {
			browser.Close()
			return nil, ErrLoginTimeout
		}
		m.sleep(poll)
	}

	page.Close()

	cookies, err := browser.Cookies()
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to capture cookies after login: %w", err)
	}

	record := &SessionRecord{CapturedAt: m.now().UTC(), Cookies: cookies}
	if err := m.store.Save(record); err != nil {
		browser.Close()
		return nil, err
	}

	slog.Info("interactive login completed, session saved", "cookies", len(cookies))
	return &AuthContext{browser: browser}, nil
}

// probeLoggedIn loads the account-settings view and checks for the
// authenticated-only marker.
func (m *SessionManager) probeLoggedIn(browser Browser) (bool, error) {
	page, err := browser.OpenPage(loginCheckURL)
	if err != nil {
		return false, err
	}
	defer page.Close()
	return evalBodyContains(page, loginMarker)
}
