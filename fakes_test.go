package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// fakePage models just enough of a rendered portal page for the drivers: a
// set of selectors with match counts, per-selector element styles and text
// content, and the page's visible body text. It answers the same Eval scripts
// the production helpers in browser.go generate.
type fakePage struct {
	counts map[string]int
	// styles lists the inline style attribute of each element a selector
	// matches; when set for a selector it takes precedence over counts.
	styles map[string][]string
	texts  map[string]string
	body   string

	// Raw JSON the article-feed extraction script would return.
	articlesJSON string

	clicks    []string
	clickHook func(selector, text string)

	navErr  error
	evalErr error
	closed  bool
}

func newFakePage() *fakePage {
	return &fakePage{
		counts: map[string]int{},
		styles: map[string][]string{},
		texts:  map[string]string{},
	}
}

func (p *fakePage) Navigate(url string) error { return p.navErr }

func (p *fakePage) WaitLoad() error { return nil }

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

// styledMatches counts the elements a selector matches whose inline style
// contains marker, mirroring the filter in the generated count/click scripts.
func (p *fakePage) styledMatches(selector, marker string) int {
	if styles, ok := p.styles[selector]; ok {
		n := 0
		for _, s := range styles {
			if marker == "" || strings.Contains(s, marker) {
				n++
			}
		}
		return n
	}
	if marker == "" {
		return p.counts[selector]
	}
	return 0
}

func (p *fakePage) Eval(js string, jsArgs ...interface{}) (*proto.RuntimeRemoteObject, error) {
	if p.evalErr != nil {
		return nil, p.evalErr
	}

	args := make([]string, len(jsArgs))
	for i, a := range jsArgs {
		args[i], _ = a.(string)
	}

	switch {
	case strings.Contains(js, "JSON.stringify"):
		return evalResult(p.articlesJSON), nil

	case strings.Contains(js, ".length"):
		return evalResult(p.styledMatches(args[0], args[1])), nil

	case strings.Contains(js, "el.click()"):
		selector, text, marker := args[0], args[1], args[2]
		if p.styledMatches(selector, marker) == 0 {
			return evalResult(false), nil
		}
		p.clicks = append(p.clicks, selector)
		if p.clickHook != nil {
			p.clickHook(selector, text)
		}
		return evalResult(true), nil

	case strings.Contains(js, "innerText.includes"):
		return evalResult(strings.Contains(p.body, args[0])), nil

	case strings.Contains(js, ".textContent"):
		return evalResult(p.texts[args[0]]), nil
	}

	return nil, fmt.Errorf("fakePage: unrecognized script: %s", js)
}

func evalResult(v interface{}) *proto.RuntimeRemoteObject {
	return &proto.RuntimeRemoteObject{Value: gson.New(v)}
}

// fakeBrowser hands out fakePages by URL and records cookie traffic.
type fakeBrowser struct {
	pages   map[string]*fakePage
	openErr map[string]error
	opened  []string

	cookies    []*proto.NetworkCookie
	cookiesErr error
	setCookies [][]*proto.NetworkCookieParam

	closed bool
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		pages:   map[string]*fakePage{},
		openErr: map[string]error{},
	}
}

func (b *fakeBrowser) page(url string) *fakePage {
	p := newFakePage()
	b.pages[url] = p
	return p
}

func (b *fakeBrowser) OpenPage(url string) (Page, error) {
	b.opened = append(b.opened, url)
	if err := b.openErr[url]; err != nil {
		return nil, err
	}
	if p, ok := b.pages[url]; ok {
		return p, nil
	}
	return newFakePage(), nil
}

func (b *fakeBrowser) SetCookies(cookies []*proto.NetworkCookieParam) error {
	b.setCookies = append(b.setCookies, cookies)
	return nil
}

func (b *fakeBrowser) Cookies() ([]*proto.NetworkCookie, error) {
	return b.cookies, b.cookiesErr
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

func noSleep(d time.Duration) {}

// testConfig returns a config pointed at a temp directory with all waits
// collapsed so driver polling terminates immediately.
func testConfig(t *testing.T) *Config {
	t.Helper()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.SessionPath = filepath.Join(dir, "session.json")
	cfg.LedgerPath = filepath.Join(dir, "redeemed_codes.toml")
	cfg.BrowserProfilePath = ""
	cfg.ShortWaitMs = 0
	cfg.MediumWaitMs = 0
	cfg.SuccessTimeoutSeconds = 0
	cfg.MessagePollAttempts = 2
	cfg.MessagePollMs = 0
	cfg.RedeemDelaySeconds = 0
	cfg.LoginTimeoutSeconds = 60
	cfg.LoginPollSeconds = 1
	return cfg
}
