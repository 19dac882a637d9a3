package main

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const portalUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Page is the slice of a rendered browser page the drivers need: navigation,
// JavaScript evaluation and release. *rod.Page satisfies it. Callers close
// every page they open; the browser itself outlives them.
type Page interface {
	Navigate(url string) error
	WaitLoad() error
	Eval(js string, jsArgs ...interface{}) (*proto.RuntimeRemoteObject, error)
	Close() error
}

// Browser is the browsing-automation capability the session manager owns.
// Drivers never see it directly; they receive pages from an AuthContext.
type Browser interface {
	OpenPage(url string) (Page, error)
	SetCookies(cookies []*proto.NetworkCookieParam) error
	Cookies() ([]*proto.NetworkCookie, error)
	Close() error
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration
}

// launchBrowser starts a Chrome instance bound to the configured profile
// directory. Leakless is disabled on Windows to avoid the known rod deadlock.
func launchBrowser(cfg *Config, headless bool) (Browser, error) {
	useLeakless := runtime.GOOS != "windows"

	l := launcher.New().
		Leakless(useLeakless).
		Headless(headless)

	if cfg.BrowserProfilePath != "" {
		l = l.UserDataDir(cfg.BrowserProfilePath)
	}

	if chromePath, ok := launcher.LookPath(); ok {
		l = l.Bin(chromePath)
		slog.Debug("using system chrome", "path", chromePath)
	}

	url, err := l.Launch()
	if err != nil {
		if strings.Contains(err.Error(), "ProcessSingleton") ||
			strings.Contains(err.Error(), "SingletonLock") {
			return nil, fmt.Errorf("chrome is already running with this profile, close it first: %w", err)
		}
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	timeout := time.Duration(cfg.PageLoadTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &rodBrowser{browser: browser, launcher: l, timeout: timeout}, nil
}

func (b *rodBrowser) OpenPage(url string) (Page, error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return nil, fmt.Errorf("failed to create stealth page: %w", err)
	}

	// The deadline covers navigation only. Callers poll the returned page on
	// their own schedules, so a page-wide deadline would expire under them.
	timed := page.Timeout(b.timeout)

	if err := timed.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: portalUserAgent}); err != nil {
		slog.Debug("failed to set user agent", "error", err)
	}

	if err := timed.Navigate(url); err != nil {
		timed.Close()
		return nil, fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := timed.WaitLoad(); err != nil {
		timed.Close()
		return nil, fmt.Errorf("page failed to load %s: %w", url, err)
	}

	return timed.CancelTimeout(), nil
}

func (b *rodBrowser) SetCookies(cookies []*proto.NetworkCookieParam) error {
	return b.browser.SetCookies(cookies)
}

func (b *rodBrowser) Cookies() ([]*proto.NetworkCookie, error) {
	return b.browser.GetCookies()
}

func (b *rodBrowser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Cleanup()
	}
	return err
}

// evalCount returns how many elements match the selector and carry styleMarker
// in their inline style. An empty styleMarker counts every match.
func evalCount(p Page, selector, styleMarker string) (int, error) {
	js := `(selector, marker) => Array.from(document.querySelectorAll(selector))
		.filter(el => marker === "" || (el.getAttribute("style") || "").includes(marker))
		.length`
	res, err := p.Eval(js, selector, styleMarker)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

// evalClick clicks the first element matching selector, optionally narrowed by
// styleMarker (inline-style substring) and text (visible-text substring).
// Reports whether an element was found and clicked. Dispatching the click from
// JavaScript sidesteps the overlay interception these portal pages are prone
// to.
func evalClick(p Page, selector, text, styleMarker string) (bool, error) {
	js := `(selector, text, marker) => {
		const els = Array.from(document.querySelectorAll(selector))
			.filter(el => marker === "" || (el.getAttribute("style") || "").includes(marker));
		const el = text === "" ? els[0] : els.find(e => (e.innerText || "").includes(text));
		if (!el) { return false; }
		el.click();
		return true;
	}`
	res, err := p.Eval(js, selector, text, styleMarker)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

// evalText returns the trimmed text content of the first element matching
// selector, or "" when no element matches.
func evalText(p Page, selector string) (string, error) {
	js := `(selector) => {
		const el = document.querySelector(selector);
		return el ? (el.textContent || "").trim() : "";
	}`
	res, err := p.Eval(js, selector)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

// evalBodyContains reports whether the rendered page text contains the marker.
func evalBodyContains(p Page, marker string) (bool, error) {
	js := `(marker) => document.body ? document.body.innerText.includes(marker) : false`
	res, err := p.Eval(js, marker)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}
