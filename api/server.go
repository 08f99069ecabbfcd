package api

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	ghandlers "github.com/gorilla/handlers"
	nats "github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	config "github.com/huddle-live/huddle-core/config"
	"github.com/huddle-live/huddle-core/db"
)

// HuddleAPI is the HTTP front door for session state. It serves the
// endpoints the browser client polls, and is the only component allowed to
// mutate session state on behalf of users.
type HuddleAPI struct {
	BuildInfo map[string]string
	Db        db.DataManager
	NC        *nats.Conn
	Config    config.HuddleConfig
}

// Start runs the API server. Meant to be executed in a goroutine, as it
// will block indefinitely
func (s *HuddleAPI) Start() error {

	mux := http.NewServeMux()
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/session", s.handleSession)
	mux.HandleFunc("/api/session/join", s.handleJoin)
	mux.HandleFunc("/api/session/controller", s.handleController)
	mux.HandleFunc("/api/info", s.handleInfo)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Config.HTTPPort),
		Handler: s.handler(mux),
	}

	log.WithFields(log.Fields{
		"HTTP Port": s.Config.HTTPPort,
	}).Info("Huddle API started.")

	return srv.ListenAndServe()
}

// handler wraps the mux with gorilla's logging handler for standards-based
// access logging, plus CORS headers for the browser front-end.
func (s *HuddleAPI) handler(mux http.Handler) http.Handler {
	return ghandlers.LoggingHandler(os.Stdout, allowCORS(mux))
}

// allowCORS allows Cross Origin Resource Sharing from any origin.
// Don't do this without consideration in production systems.
func allowCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if r.Method == "OPTIONS" && r.Header.Get("Access-Control-Request-Method") != "" {
				preflightHandler(w, r)
				return
			}
		}
		h.ServeHTTP(w, r)
	})
}

// preflightHandler adds the necessary headers in order to serve
// CORS from any origin using the methods "GET", "HEAD", "POST", "PUT", "DELETE"
// We insist, don't do this without consideration in production systems.
func preflightHandler(w http.ResponseWriter, r *http.Request) {
	headers := []string{"Content-Type", "Accept"}
	w.Header().Set("Access-Control-Allow-Headers", strings.Join(headers, ","))
	methods := []string{"GET", "HEAD", "POST", "PUT", "DELETE"}
	w.Header().Set("Access-Control-Allow-Methods", strings.Join(methods, ","))
}
