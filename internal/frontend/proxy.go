package frontend

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/rs/zerolog"
)

// NewProxy forwards asset-server requests that are not embedded to origin, so
// pages served by the backend or dev server load under the window's origin.
// HTML pages get the bridge scripts injected.
func NewProxy(origin string, log zerolog.Logger) (http.Handler, error) {
	target, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy origin %q: %w", origin, err)
	}
	rp := httputil.NewSingleHostReverseProxy(target)
	director := rp.Director
	rp.Director = func(r *http.Request) {
		director(r)
		r.Host = target.Host
	}
	rp.ModifyResponse = injectBridge
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Frontend request failed")
		http.Error(w, "backend unavailable", http.StatusBadGateway)
	}
	return rp, nil
}
