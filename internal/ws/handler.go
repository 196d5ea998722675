package ws

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)

	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			// Non-browser clients (the Go ChatClient among them) send no
			// Origin header.
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}

		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		normalized := strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))
		_, ok := allowed[normalized]
		return ok
	}
}

// handshakeParams reads the connection handshake from the upgrade request:
// the client's last durably seen record id and whether the transport resumed
// an earlier session.
func handshakeParams(r *http.Request) (serverOffset int64, recovered bool) {
	if v := r.URL.Query().Get("serverOffset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			serverOffset = n
		}
	}
	if v := r.URL.Query().Get("recovered"); v != "" {
		recovered, _ = strconv.ParseBool(v)
	}
	return serverOffset, recovered
}

// MakeHandler returns the HTTP handler for the /ws endpoint. Each upgraded
// connection is handed to the orchestrator, which runs its protocol until
// disconnect.
func MakeHandler(orch *Orchestrator, allowedOrigins []string) http.HandlerFunc {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !checkOrigin(r) {
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}

		serverOffset, recovered := handshakeParams(r)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := NewSession(conn, serverOffset, recovered)

		// The request context carries whatever per-request deadline the
		// router applies, but the connection outlives the upgrade request.
		// Detach so directory and store calls keep working for the whole
		// session; request-scoped values survive the detach.
		orch.HandleConnection(context.WithoutCancel(r.Context()), sess)
	}
}
