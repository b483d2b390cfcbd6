package twofactor

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/twofactor/handler"
	"github.com/dmitrymomot/twofactor/pkg/clientip"
	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/ratelimiter"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

// Context is the handler context of this module. Session is filled in before the
// handler runs.
type Context struct {
	handler.Context
	Session twofactor.SessionContext
}

type Service struct {
	lc       *twofactor.Lifecycle
	gate     *twofactor.Gate
	sessions Sessions
	views    Views
	log      *slog.Logger

	verifyLimiter   ratelimiter.RateLimiter
	defaultRedirect string

	errorHandler handler.ErrorHandler[handler.Context]
}

// Option configures a Service.
type Option func(*Service)

// WithViews replaces the built-in HTML views. Nil fields keep their defaults.
func WithViews(v Views) Option {
	return func(s *Service) {
		if v.Setup != nil {
			s.views.Setup = v.Setup
		}
		if v.Verify != nil {
			s.views.Verify = v.Verify
		}
		if v.Error != nil {
			s.views.Error = v.Error
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithVerifyLimiter limits POST /verify per client IP, on top of the per-account throttle.
func WithVerifyLimiter(l ratelimiter.RateLimiter) Option {
	return func(s *Service) { s.verifyLimiter = l }
}

// WithDefaultRedirect sets where a successful HTML login challenge goes when the form
// carries no redirect_url.
func WithDefaultRedirect(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.defaultRedirect = path
		}
	}
}

func NewService(lc *twofactor.Lifecycle, sessions Sessions, opts ...Option) *Service {
	s := &Service{
		lc:              lc,
		gate:            twofactor.NewGate(lc),
		sessions:        sessions,
		views:           defaultViews(),
		log:             slog.Default(),
		defaultRedirect: "/",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.errorHandler = handler.NewErrorHandler(s.log.With(logger.Component("2fa")), handler.ErrorHandlerConfig{
		Classify: Classify,
		Page:     s.views.Error,
	})
	return s
}

// Handle returns the router to mount under /2fa.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/setup", route[struct{}](s, s.showSetup, settingsAccess, handler.WithoutBinding[*Context, struct{}]()))
	r.Post("/setup", route[struct{}](s, s.startSetup, settingsAccess, handler.WithoutBinding[*Context, struct{}]()))
	r.Post("/enable", route[CodeRequest](s, s.enable, settingsAccess))
	r.Post("/disable", route[CodeRequest](s, s.disable, settingsAccess))
	r.Post("/reset", route[CodeRequest](s, s.reset, settingsAccess))

	r.Get("/verify", route[struct{}](s, s.showChallenge, challengeAccess, handler.WithoutBinding[*Context, struct{}]()))
	r.Group(func(r chi.Router) {
		if s.verifyLimiter != nil {
			r.Use(ratelimiter.Middleware(s.verifyLimiter, verifyKey, ratelimiter.WithErrorResponder(s.limitResponder)))
		}
		r.Post("/verify", route[VerifyRequest](s, s.submitChallenge, challengeAccess))
	})

	return r
}

type access int

const (
	// settingsAccess needs a fully signed-in session.
	settingsAccess access = iota
	// challengeAccess needs the first factor only.
	challengeAccess
)

func route[R any](s *Service, h handler.HandlerFunc[*Context, R], a access, opts ...handler.WrapOption[*Context, R]) http.HandlerFunc {
	base := []handler.WrapOption[*Context, R]{
		handler.WithContextFactory[*Context, R](func(w http.ResponseWriter, r *http.Request) *Context {
			return &Context{Context: handler.NewContext(w, r)}
		}),
		handler.WithErrorHandler[*Context, R](func(ctx *Context, err error) { s.errorHandler(ctx, err) }),
		handler.WithDecorators(requireSession[R](s, a)),
	}
	return handler.Wrap(h, append(base, opts...)...)
}

// requireSession loads the session into the context and enforces a.
func requireSession[R any](s *Service, a access) handler.Decorator[*Context, R] {
	return func(next handler.HandlerFunc[*Context, R]) handler.HandlerFunc[*Context, R] {
		return func(ctx *Context, req R) handler.Response {
			sess, err := s.sessions.Load(ctx.Request())
			if err != nil {
				return handler.Error(err)
			}
			if !sess.Authenticated {
				return handler.Error(handler.ErrUnauthorized)
			}
			if a == settingsAccess && sess.PendingSecondFactor {
				return handler.Error(handler.ErrUnauthorized.WithMessage("complete two-factor verification first"))
			}
			ctx.Session = sess
			return next(ctx, req)
		}
	}
}

func verifyKey(r *http.Request) string {
	ip := clientip.FromRequest(r)
	if ip == "" {
		return ""
	}
	return "2fa-verify:" + ip
}

func (s *Service) limitResponder(w http.ResponseWriter, r *http.Request, res *ratelimiter.Result, err error) {
	ctx := handler.NewContext(w, r)
	if err != nil {
		s.errorHandler(ctx, err)
		return
	}
	he := handler.ErrTooManyRequests.WithMessage("too many attempts, try again later")
	he.RetryAfter = res.RetryAfter()
	s.errorHandler(ctx, he)
}
