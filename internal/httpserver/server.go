// Package httpserver hosts a demonstration HTTP server that terminates
// Digest Access Authentication at the edge: it parses the Authorization
// header, resolves credentials, and delegates the cryptographic decision
// to the digest package before proxying to a protected handler.
package httpserver

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zurustar/digestd/internal/digest"
	"github.com/zurustar/digestd/internal/logging"
	"github.com/zurustar/digestd/internal/metrics"
)

// CredentialStore resolves a username to the credential the Verifier
// should check submissions against. The second return is false if the
// username is unknown; the host treats that the same as a verification
// failure without leaking which case occurred.
type CredentialStore interface {
	Lookup(username string) (digest.Credentials, bool)
}

// Server wires the digest nonce-nc table, Verifier, and Challenger behind
// a chi router protecting a caller-supplied handler.
type Server struct {
	verifier    *digest.Verifier
	challenger  *digest.Challenger
	credentials CredentialStore
	logger      logging.Logger
	protected   http.Handler
	server      *http.Server
	router      chi.Router
}

// Options configures a new Server.
type Options struct {
	Table          *digest.Table
	Realm          string
	Algorithm      digest.Algorithm
	RandomSeed     string
	NonceTimeoutMS uint64
	Credentials    CredentialStore
	Logger         logging.Logger
	Protected      http.Handler
}

// NewServer builds a Server from Options, mounting /healthz, /metrics, and
// a Digest-protected catch-all route in front of Protected.
func NewServer(opts Options) *Server {
	s := &Server{
		verifier: &digest.Verifier{
			Table:          opts.Table,
			RandomSeed:     opts.RandomSeed,
			Realm:          opts.Realm,
			Algorithm:      opts.Algorithm,
			NonceTimeoutMS: opts.NonceTimeoutMS,
		},
		challenger: &digest.Challenger{
			Table:      opts.Table,
			RandomSeed: opts.RandomSeed,
			Realm:      opts.Realm,
			Algorithm:  opts.Algorithm,
		},
		credentials: opts.Credentials,
		logger:      opts.Logger,
		protected:   opts.Protected,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metricsHandler())
	r.Handle("/*", http.HandlerFunc(s.authenticate))

	s.router = r
	return s
}

// Start begins serving on addr in the background, mirroring the teacher's
// start-then-report-async style.
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting digest auth server", logging.AddressField("addr", addr))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", logging.ErrorField(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("stopping digest auth server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	params, present := ParseAuthorizationHeader(r.Header.Get("Authorization"))
	if !present {
		params = digest.ParamView{Present: false}
	}

	username := params.Username.Value
	creds, ok := s.credentials.Lookup(username)
	if !ok {
		// Keep an (invalid) credential on hand so the verifier still runs
		// its full pipeline; no early-return that would leak account
		// existence through timing.
		creds = digest.Credentials{Password: ""}
	}

	req := digest.VerifyRequest{
		Params:           params,
		Method:           r.Method,
		Path:             r.URL.Path,
		RawQuery:         r.URL.RawQuery,
		ExpectedUsername: username,
		Credentials:      creds,
		UnescapeURI:      unescapePath,
		NowMS:            uint64(time.Now().UnixMilli()),
	}

	verdict := s.verifier.Verify(req)
	if verdict == digest.OK && !ok {
		// An unknown username never authenticates; report it the same way
		// as a wrong password.
		verdict = digest.ResponseWrong
	}
	metrics.Auth().ObserveVerdict(verdict.String(), time.Since(start))

	if verdict != digest.OK {
		s.logger.Debug("digest verification failed",
			logging.UsernameField(username),
			logging.VerdictField(verdict))
		s.challenge(w, r, verdict.Stale())
		return
	}

	s.logger.Debug("digest verification succeeded", logging.UsernameField(username))
	s.protected.ServeHTTP(w, r)
}

func (s *Server) challenge(w http.ResponseWriter, r *http.Request, stale bool) {
	ch, err := s.challenger.Issue(digest.ChallengeRequest{
		Method:    r.Method,
		URI:       r.URL.Path,
		RemoteKey: r.RemoteAddr,
		NowMS:     uint64(time.Now().UnixMilli()),
		Stale:     stale,
	})
	if err != nil {
		s.logger.Error("failed to issue challenge", logging.ErrorField(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	metrics.Auth().RecordChallengeIssued()
	if ch.Retried {
		outcome := "resolved"
		if ch.Degraded {
			outcome = "exhausted"
			s.logger.Debug("nonce issued untracked after retry exhaustion", logging.AddressField("remote", r.RemoteAddr))
		}
		metrics.Auth().RecordChallengeRetry(outcome)
	}

	w.Header().Set("WWW-Authenticate", ch.Header())
	http.Error(w, "authentication required", http.StatusUnauthorized)
}

func unescapePath(s string) (string, error) {
	return url.PathUnescape(s)
}
