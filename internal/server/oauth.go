package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"
)

// OAuthResult is the terminal outcome of the authorization-code flow:
// either an exchanged token or the reason the flow failed.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o OAuthResult) Error() error {
	return o.err
}

// OAuthHandler receives the single Trakt OAuth redirect during
// 'auth login', validates it, and exchanges the code for a token.
//
// The handler is strictly one-shot: the first callback claims it and
// any replay is rejected with a 400.
type OAuthHandler struct {
	config     *oauth2.Config
	state      string
	claimed    atomic.Bool
	deliver    sync.Once
	resultChan chan OAuthResult
}

// NewOAuthHandler creates a handler bound to the given OAuth2 config and
// CSRF state token. The state should come from shared.GenerateID.
func NewOAuthHandler(config *oauth2.Config, state string) *OAuthHandler {
	return &OAuthHandler{
		config:     config,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the redirect from Trakt's consent page.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.claimed.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	if query.Get("state") != h.state {
		h.fail(w, http.StatusBadRequest, "Invalid state parameter",
			fmt.Errorf("invalid state parameter"))
		return
	}

	code := query.Get("code")
	if code == "" {
		h.fail(w, http.StatusBadRequest, "Authorization failed",
			fmt.Errorf("authorization failed: %s - %s", query.Get("error"), query.Get("error_description")))
		return
	}

	token, err := h.config.Exchange(context.Background(), code)
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Token exchange failed",
			fmt.Errorf("token exchange failed: %w", err))
		return
	}

	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// fail reports the error both to the browser and to the waiting CLI.
func (h *OAuthHandler) fail(w http.ResponseWriter, status int, page string, err error) {
	h.Send(OAuthResult{err: err})
	http.Error(w, page, status)
}

// Send delivers the flow result exactly once and closes the channel.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.deliver.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the channel the CLI selects on while waiting for the
// user to approve the application. It receives exactly one result.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

const successPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Trakt Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #ED1C24; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Trakt Authorized</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
