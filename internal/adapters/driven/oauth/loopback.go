package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
	"github.com/custodia-labs/gitscope/internal/logger"
)

// DefaultAuthorizeTimeout is how long Authorize waits for the redirect.
const DefaultAuthorizeTimeout = 5 * time.Minute

// CallbackPath is the path the authority redirects to.
const CallbackPath = "/callback"

// ErrAuthorizeTimeout is returned when no redirect arrives in time.
var ErrAuthorizeTimeout = errors.New("timed out waiting for authorization callback")

// Verify interface compliance.
var _ driven.UserAgent = (*LoopbackAgent)(nil)

// LoopbackAgent shows the authorization page in the system browser and
// receives the redirect on a local HTTP server. The server only runs
// while Authorize is waiting.
type LoopbackAgent struct {
	port    int
	open    func(string) error
	out     io.Writer
	timeout time.Duration
}

// AgentOption customises a LoopbackAgent.
type AgentOption func(*LoopbackAgent)

// WithBrowser replaces the function that opens the authorization URL.
// A nil function leaves the user to open the printed URL.
func WithBrowser(open func(string) error) AgentOption {
	return func(a *LoopbackAgent) { a.open = open }
}

// WithOutput sets where the authorization URL is printed.
func WithOutput(w io.Writer) AgentOption {
	return func(a *LoopbackAgent) { a.out = w }
}

// WithAuthorizeTimeout bounds how long Authorize waits.
func WithAuthorizeTimeout(d time.Duration) AgentOption {
	return func(a *LoopbackAgent) { a.timeout = d }
}

// NewLoopbackAgent creates an agent listening on port. Port 0 picks a
// free port from the default range.
func NewLoopbackAgent(port int, opts ...AgentOption) (*LoopbackAgent, error) {
	if port == 0 {
		p, err := FindAvailablePort(DefaultPortStart, DefaultPortEnd)
		if err != nil {
			return nil, err
		}
		port = p
	}
	a := &LoopbackAgent{
		port:    port,
		open:    OpenBrowser,
		out:     io.Discard,
		timeout: DefaultAuthorizeTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// RedirectURI returns the callback address.
func (a *LoopbackAgent) RedirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", a.port, CallbackPath)
}

// Authorize opens authURL and waits for the first request to the
// callback path. The returned URL carries the callback's query unchanged;
// validating it is the caller's job.
func (a *LoopbackAgent) Authorize(ctx context.Context, authURL string) (*url.URL, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", a.port))
	if err != nil {
		return nil, fmt.Errorf("listen for callback: %w", err)
	}

	callbacks := make(chan *url.URL, 1)
	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, func(w http.ResponseWriter, r *http.Request) {
		u := &url.URL{
			Scheme:   "http",
			Host:     listener.Addr().String(),
			Path:     r.URL.Path,
			RawQuery: r.URL.RawQuery,
		}
		q := r.URL.Query()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if desc := q.Get("error_description"); desc != "" || q.Get("error") != "" {
			if desc == "" {
				desc = q.Get("error")
			}
			fmt.Fprint(w, callbackPage("Authorization failed", desc))
		} else {
			fmt.Fprint(w, callbackPage("Authorization received", "You can close this window and return to gitscope."))
		}
		select {
		case callbacks <- u:
		default:
		}
	})

	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer shutdown(server)

	fmt.Fprintf(a.out, "Open this URL to authorize gitscope:\n\n  %s\n\n", authURL)
	if a.open != nil {
		if err := a.open(authURL); err != nil {
			logger.Warn("oauth: could not open browser: %v", err)
		}
	}

	timer := time.NewTimer(a.timeout)
	defer timer.Stop()

	select {
	case u := <-callbacks:
		logger.Debug("oauth: callback received on %s", u.Path)
		return u, nil
	case err := <-serveErr:
		return nil, fmt.Errorf("callback server: %w", err)
	case <-timer.C:
		return nil, ErrAuthorizeTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func shutdown(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Debug("oauth: callback server shutdown: %v", err)
	}
}

//nolint:misspell // CSS properties use American spelling
func callbackPage(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>gitscope</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #0d1117;
        }
        .card {
            text-align: center;
            background: #161b22;
            padding: 40px 56px;
            border-radius: 12px;
            border: 1px solid #30363d;
        }
        h1 { color: #e6edf3; margin: 0 0 8px 0; font-size: 22px; }
        p { color: #8b949e; margin: 0; }
    </style>
</head>
<body>
    <div class="card">
        <h1>%s</h1>
        <p>%s</p>
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(message))
}
