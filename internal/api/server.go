// Package api exposes the file service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ide-go/internal/auth"
	"ide-go/internal/ide"
)

// Realm is the basic-auth realm announced to clients.
const Realm = "ide"

// Dispatcher runs typed file service requests.
type Dispatcher interface {
	Dispatch(ctx context.Context, req ide.Request) (any, error)
}

type Server struct {
	router  chi.Router
	service Dispatcher
	authn   auth.Authenticator
	logger  ide.Logger
}

// NewServer builds the router. Every project route requires basic auth.
func NewServer(service Dispatcher, authn auth.Authenticator, logger ide.Logger) *Server {
	if logger == nil {
		logger = ide.NewNopLogger()
	}
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		authn:   authn,
		logger:  logger,
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			s.logger.Debug("request", "id", middleware.GetReqID(r.Context()), "method", r.Method,
				"path", r.URL.Path, "status", ww.Status(), "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Route("/api/teams/{team}/projects/{project}", func(r chi.Router) {
		r.Use(auth.BasicAuth(Realm, s.authn))

		r.Post("/", s.handle(createRequest))
		r.Get("/tree", s.handle(treeRequest))
		r.Get("/list", s.handle(listRequest))
		r.Get("/file", s.handle(getRequest))
		r.Put("/file", s.handle(putRequest))
		r.Post("/delete", s.handle(deleteRequest))
		r.Post("/copy", s.handle(copyRequest))
		r.Post("/move", s.handle(moveRequest))
		r.Post("/mkdir", s.handle(mkdirRequest))
		r.Post("/checkout", s.handle(checkoutRequest))
		r.Get("/log", s.handle(logRequest))
		r.Post("/diff", s.handle(diffRequest))
		r.Post("/lint", s.handle(lintRequest))
		r.Post("/commit", s.handle(commitRequest))
		r.Post("/revert", s.handle(revertRequest))
		r.Post("/reset", s.handle(resetRequest))
	})
}

// requestBuilder turns an HTTP request into a typed service request.
type requestBuilder func(r *http.Request, t ide.Target) (ide.Request, error)

func (s *Server) handle(build requestBuilder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t := ide.Target{Team: chi.URLParam(r, "team"), Project: chi.URLParam(r, "project")}
		req, err := build(r, t)
		if err != nil {
			s.writeError(w, err)
			return
		}
		result, err := s.service.Dispatch(r.Context(), req)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ide.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ide.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ide.ErrInvalidPath), errors.Is(err, ide.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ide.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ide.ErrTimeout), ide.IsVcsError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	} else {
		s.logger.Warn("request failed", "status", status, "error", err)
	}

	msg := err.Error()
	if status == http.StatusForbidden {
		msg = ide.ErrPermission.Error()
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
