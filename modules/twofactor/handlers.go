package twofactor

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/twofactor/handler"
	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/svc/twofactor"
)

// CodeRequest carries a one-time code from a form or JSON body.
type CodeRequest struct {
	Code string `json:"code" form:"code"`
}

// VerifyRequest answers the login challenge.
type VerifyRequest struct {
	Code        string `json:"code" form:"code"`
	RedirectURL string `json:"redirect_url" form:"redirect_url"`
}

// SetupPayload is what an authenticator app needs. It is only present while a
// setup is pending.
type SetupPayload struct {
	URI       string    `json:"otpauth_uri"`
	Secret    string    `json:"secret"`
	QRCode    string    `json:"qr_code,omitempty"` // data URI
	ExpiresAt time.Time `json:"expires_at"`
}

// StatusResponse describes the caller's two-factor state.
type StatusResponse struct {
	State     string        `json:"state"`
	Enabled   bool          `json:"enabled"`
	EnabledAt *time.Time    `json:"enabled_at,omitempty"`
	Setup     *SetupPayload `json:"setup,omitempty"`
}

// VerifyResponse describes the login challenge.
type VerifyResponse struct {
	Pending     bool   `json:"pending"`
	Accepted    bool   `json:"accepted"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// account builds the setup principal. Without a label the authenticator app shows
// the account id.
func (s *Service) account(ctx *Context, token string) twofactor.Account {
	label := ctx.Session.Label
	if label == "" {
		label = ctx.Session.AccountID.String()
	}
	return twofactor.Account{ID: ctx.Session.AccountID, Label: label, PendingToken: token}
}

func (s *Service) showSetup(ctx *Context, _ struct{}) handler.Response {
	r := ctx.Request()
	token, err := s.sessions.PendingSetup(r)
	if err != nil {
		return handler.Error(err)
	}

	rec, state, err := s.lc.Status(ctx, ctx.Session.AccountID, token)
	if err != nil {
		return handler.Error(err)
	}
	if state != twofactor.StatePendingEnable {
		if token != "" {
			s.clearPendingSetup(ctx)
		}
		return s.status(ctx, statusOf(rec, state, nil))
	}

	setup, err := s.lc.ResumeSetup(ctx, s.account(ctx, token))
	if err != nil {
		return handler.Error(err)
	}
	return s.status(ctx, statusOf(rec, state, setup))
}

func (s *Service) startSetup(ctx *Context, _ struct{}) handler.Response {
	r := ctx.Request()
	token, err := s.sessions.PendingSetup(r)
	if err != nil {
		return handler.Error(err)
	}

	setup, err := s.lc.StartSetup(ctx, s.account(ctx, token))
	if err != nil {
		return handler.Error(err)
	}
	if err := s.sessions.SetPendingSetup(r, setup.Token); err != nil {
		return handler.Error(err)
	}
	return s.status(ctx, statusOf(twofactor.Record{}, twofactor.StatePendingEnable, setup))
}

func (s *Service) enable(ctx *Context, req CodeRequest) handler.Response {
	r := ctx.Request()
	token, err := s.sessions.PendingSetup(r)
	if err != nil {
		return handler.Error(err)
	}

	rec, err := s.lc.Confirm(ctx, ctx.Session.AccountID, token, req.Code)
	if err != nil {
		// A dead token will never confirm; drop it so the next GET shows a clean state.
		if errors.Is(err, twofactor.ErrSetupExpired) || errors.Is(err, twofactor.ErrInvalidSetupToken) {
			s.clearPendingSetup(ctx)
		}
		return handler.Error(err)
	}
	s.clearPendingSetup(ctx)
	return s.status(ctx, statusOf(rec, rec.State(), nil))
}

func (s *Service) disable(ctx *Context, req CodeRequest) handler.Response {
	rec, err := s.lc.Disable(ctx, ctx.Session.AccountID, req.Code)
	if err != nil {
		return handler.Error(err)
	}
	return s.status(ctx, statusOf(rec, rec.State(), nil))
}

func (s *Service) reset(ctx *Context, req CodeRequest) handler.Response {
	setup, err := s.lc.Reset(ctx, s.account(ctx, ""), req.Code)
	if err != nil {
		return handler.Error(err)
	}
	if err := s.sessions.SetPendingSetup(ctx.Request(), setup.Token); err != nil {
		return handler.Error(err)
	}
	return s.status(ctx, statusOf(twofactor.Record{}, twofactor.StatePendingEnable, setup))
}

func (s *Service) showChallenge(ctx *Context, _ struct{}) handler.Response {
	sess, _, err := s.gate.Challenge(ctx, ctx.Session)
	if err != nil {
		return handler.Error(err)
	}
	if err := s.sessions.Store(ctx.Request(), sess); err != nil {
		return handler.Error(err)
	}

	resp := VerifyResponse{Pending: sess.PendingSecondFactor}
	if handler.WantsJSON(ctx.Request()) {
		return handler.JSON(resp)
	}
	return handler.Templ(s.views.Verify(VerifyPageParams{Pending: resp.Pending}))
}

func (s *Service) submitChallenge(ctx *Context, req VerifyRequest) handler.Response {
	sess, _, err := s.gate.Submit(ctx, ctx.Session, req.Code)
	if err != nil {
		return handler.Error(err)
	}
	if err := s.sessions.Store(ctx.Request(), sess); err != nil {
		return handler.Error(err)
	}

	redirect := req.RedirectURL
	if redirect == "" {
		redirect = s.defaultRedirect
	}
	if handler.WantsJSON(ctx.Request()) {
		return handler.JSON(VerifyResponse{Accepted: true, RedirectURL: redirect})
	}
	return handler.RedirectWithCode(redirect, http.StatusSeeOther)
}

func (s *Service) status(ctx *Context, resp StatusResponse) handler.Response {
	if handler.WantsJSON(ctx.Request()) {
		return handler.JSON(resp)
	}
	return handler.Templ(s.views.Setup(resp))
}

// clearPendingSetup is best effort; a stale token is harmless because it fails to open.
func (s *Service) clearPendingSetup(ctx *Context) {
	if err := s.sessions.SetPendingSetup(ctx.Request(), ""); err != nil {
		s.log.WarnContext(ctx, "failed to clear pending setup",
			logger.AccountID(ctx.Session.AccountID),
			logger.Error(err),
		)
	}
}

func statusOf(rec twofactor.Record, state twofactor.State, setup *twofactor.Setup) StatusResponse {
	resp := StatusResponse{
		State:     state.String(),
		Enabled:   rec.Enabled,
		EnabledAt: rec.EnabledAt,
	}
	if setup != nil {
		resp.Setup = &SetupPayload{
			URI:       setup.Payload.URI,
			Secret:    setup.Payload.Secret,
			ExpiresAt: setup.ExpiresAt,
		}
		if setup.Payload.HasImage() {
			resp.Setup.QRCode = setup.Payload.Image.DataURI()
		}
	}
	return resp
}
