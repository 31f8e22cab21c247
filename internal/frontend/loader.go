// Package frontend decides which page the window shows and when.
package frontend

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Navigator moves the window to a path on its own origin.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

// Navigate implements Navigator.
func (f NavigatorFunc) Navigate(path string) { f(path) }

// Options configures a Loader.
type Options struct {
	// URL is the page to show, e.g. http://127.0.0.1:3456/chat/.
	URL string
	// Delay is waited before navigating unless Immediate is set.
	Delay time.Duration
	// Immediate skips the delay; the dev server is already up.
	Immediate bool
	Logger    zerolog.Logger
}

// Loader navigates the window to the frontend once per Load.
type Loader struct {
	opts   Options
	target *url.URL
	log    zerolog.Logger
}

// NewLoader parses the frontend URL.
func NewLoader(opts Options) (*Loader, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid frontend url %q: %w", opts.URL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid frontend url %q: scheme and host are required", opts.URL)
	}
	return &Loader{opts: opts, target: u, log: opts.Logger}, nil
}

// Origin is the scheme and host the asset server proxies to.
func (l *Loader) Origin() string {
	return l.target.Scheme + "://" + l.target.Host
}

// Path is the target URL without its origin.
func (l *Loader) Path() string {
	p := l.target.EscapedPath()
	if p == "" {
		p = "/"
	}
	if l.target.RawQuery != "" {
		p += "?" + l.target.RawQuery
	}
	if l.target.Fragment != "" {
		p += "#" + l.target.EscapedFragment()
	}
	return p
}

// Load waits the configured delay, then navigates. It does not check that the
// backend is up. A cancelled ctx aborts the wait and nothing is loaded.
func (l *Loader) Load(ctx context.Context, nav Navigator) error {
	if !l.opts.Immediate && l.opts.Delay > 0 {
		l.log.Debug().Dur("delay", l.opts.Delay).Msg("Waiting before loading frontend")
		timer := time.NewTimer(l.opts.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			l.log.Debug().Msg("Frontend load cancelled")
			return ctx.Err()
		}
	}
	l.log.Info().Str("url", l.target.String()).Msg("Loading frontend")
	nav.Navigate(l.Path())
	return nil
}
