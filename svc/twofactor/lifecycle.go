package twofactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/twofactor/pkg/logger"
	"github.com/dmitrymomot/twofactor/pkg/provisioning"
	"github.com/dmitrymomot/twofactor/pkg/ratelimiter"
	"github.com/dmitrymomot/twofactor/pkg/replay"
	"github.com/dmitrymomot/twofactor/pkg/secrets"
	"github.com/dmitrymomot/twofactor/pkg/statemachine"
	"github.com/dmitrymomot/twofactor/pkg/totp"
)

// Setup is the result of StartSetup and Reset. It holds the provisional secret, which
// is shown to the user once and is not persisted until Confirm succeeds.
type Setup struct {
	AccountID uuid.UUID
	Secret    totp.Secret
	Payload   provisioning.Payload
	// Token is the sealed provisional secret. The caller keeps it server side and
	// passes it back to Confirm.
	Token     string
	ExpiresAt time.Time
}

// Lifecycle enables, disables and resets TOTP for accounts.
type Lifecycle struct {
	repo     Repository
	sealer   *secrets.Sealer
	issuer   string
	builder  *provisioning.Builder
	generate func() (totp.Secret, error)

	now      func() time.Time
	setupTTL time.Duration
	window   int
	throttle Throttle
	replay   replay.Guard
	owned    *ratelimiter.MemoryStore // default throttle store, stopped by Close

	notifier Notifier
	metrics  *Metrics
	log      *slog.Logger

	machine *statemachine.Machine[State, Event, *operation]
}

// operation carries one request through the transition table.
type operation struct {
	account Account
	record  Record
	code    string
	secret  totp.Secret // secret the code is checked against
	setup   *Setup
	saved   Record
}

// NewLifecycle creates a Lifecycle. Without WithThrottle and WithReplayGuard, attempts
// are limited and replays rejected in process memory.
func NewLifecycle(repo Repository, sealer *secrets.Sealer, issuer string, opts ...Option) (*Lifecycle, error) {
	if repo == nil {
		return nil, fmt.Errorf("%w: repository is required", ErrInvalidConfig)
	}
	if sealer == nil {
		return nil, fmt.Errorf("%w: sealer is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(issuer) == "" {
		return nil, fmt.Errorf("%w: issuer is required", ErrInvalidConfig)
	}

	l := &Lifecycle{
		repo:     repo,
		sealer:   sealer,
		issuer:   issuer,
		generate: totp.GenerateSecret,
		now:      time.Now,
		setupTTL: DefaultSetupTTL,
		window:   totp.DefaultWindow,
		notifier: nopNotifier{},
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(l)
	}

	if l.builder == nil {
		l.builder = provisioning.NewBuilder(provisioning.WithLogger(l.log))
	}
	if l.replay == nil {
		l.replay = replay.NewMemoryGuard(time.Minute)
	}
	if l.throttle == nil {
		store := ratelimiter.NewMemoryStore(ratelimiter.WithMemoryClock(l.now))
		bucket, err := ratelimiter.NewBucket(store, DefaultThrottle)
		if err != nil {
			store.Close()
			return nil, err
		}
		l.throttle = bucket
		l.owned = store
	}
	l.machine = newMachine(l)
	return l, nil
}

// Close releases the default in-memory throttle store. A throttle passed with
// WithThrottle is left to its owner. Safe to call more than once.
func (l *Lifecycle) Close() {
	if l.owned != nil {
		l.owned.Close()
	}
}

// Issuer returns the issuer shown in authenticator apps.
func (l *Lifecycle) Issuer() string { return l.issuer }

// SetupTTL returns how long a setup token remains confirmable.
func (l *Lifecycle) SetupTTL() time.Duration { return l.setupTTL }

// Status returns the durable record and the effective state. The state is
// PendingEnable when the record is disabled and pendingToken is a live setup token.
func (l *Lifecycle) Status(ctx context.Context, id uuid.UUID, pendingToken string) (Record, State, error) {
	rec, err := l.repo.Load(ctx, id)
	if err != nil {
		return Record{}, "", err
	}
	return rec, l.stateOf(rec, pendingToken), nil
}

func (l *Lifecycle) stateOf(rec Record, pendingToken string) State {
	if rec.Enabled || pendingToken == "" {
		return rec.State()
	}
	if _, _, err := l.openSetup(rec.AccountID, pendingToken); err == nil {
		return StatePendingEnable
	}
	return StateDisabled
}

// StartSetup issues a provisional secret and its provisioning payload. Nothing is
// persisted. Calling it again while a setup is pending replaces that setup.
func (l *Lifecycle) StartSetup(ctx context.Context, acct Account) (*Setup, error) {
	rec, err := l.repo.Load(ctx, acct.ID)
	if err != nil {
		return nil, err
	}

	op := &operation{account: acct, record: rec}
	if err := l.fire(ctx, l.stateOf(rec, acct.PendingToken), EventStartSetup, op); err != nil {
		return nil, err
	}
	return op.setup, nil
}

// ResumeSetup rebuilds the payload of a pending setup from acct.PendingToken, so the
// user can see the QR code again. It does not issue a new secret.
func (l *Lifecycle) ResumeSetup(ctx context.Context, acct Account) (*Setup, error) {
	rec, err := l.repo.Load(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	if rec.Enabled {
		return nil, fmt.Errorf("%w: already enabled", ErrInvalidStateTransition)
	}

	secret, issued, err := l.openSetup(acct.ID, acct.PendingToken)
	if err != nil {
		return nil, err
	}
	payload, err := l.builder.Build(ctx, acct.Label, l.issuer, secret)
	if err != nil {
		return nil, err
	}
	return &Setup{
		AccountID: acct.ID,
		Secret:    secret,
		Payload:   payload,
		Token:     acct.PendingToken,
		ExpiresAt: issued.Add(l.setupTTL),
	}, nil
}

// Confirm enables two-factor with the secret sealed in token once code verifies
// against it at the current time.
func (l *Lifecycle) Confirm(ctx context.Context, id uuid.UUID, token, code string) (Record, error) {
	rec, err := l.repo.Load(ctx, id)
	if err != nil {
		return Record{}, err
	}

	op := &operation{account: Account{ID: id}, record: rec, code: code}
	from := rec.State()
	if !rec.Enabled && token != "" {
		secret, _, err := l.openSetup(id, token)
		if err != nil {
			l.metrics.ObserveTransition(EventConfirm, transitionResult(err))
			return Record{}, err
		}
		op.secret = secret
		from = StatePendingEnable
	}

	if err := l.fire(ctx, from, EventConfirm, op); err != nil {
		return Record{}, err
	}
	return op.saved, nil
}

// Disable turns two-factor off after code verifies against the stored secret.
func (l *Lifecycle) Disable(ctx context.Context, id uuid.UUID, code string) (Record, error) {
	rec, err := l.repo.Load(ctx, id)
	if err != nil {
		return Record{}, err
	}

	op := &operation{account: Account{ID: id}, record: rec, secret: rec.Secret, code: code}
	if err := l.fire(ctx, rec.State(), EventDisable, op); err != nil {
		return Record{}, err
	}
	return op.saved, nil
}

// Reset proves possession of the current secret, clears the durable record and
// returns a new pending setup that must be confirmed to re-enable two-factor.
func (l *Lifecycle) Reset(ctx context.Context, acct Account, code string) (*Setup, error) {
	rec, err := l.repo.Load(ctx, acct.ID)
	if err != nil {
		return nil, err
	}

	op := &operation{account: acct, record: rec, secret: rec.Secret, code: code}
	if err := l.fire(ctx, rec.State(), EventReset, op); err != nil {
		return nil, err
	}
	return op.setup, nil
}

func (l *Lifecycle) fire(ctx context.Context, from State, event Event, op *operation) error {
	start := l.now()
	to, err := l.machine.Fire(ctx, from, event, op)
	if errors.Is(err, statemachine.ErrNoTransition) {
		err = fmt.Errorf("%w: %s from %s", ErrInvalidStateTransition, event, from)
	}
	l.metrics.ObserveTransition(event, transitionResult(err))

	attrs := []slog.Attr{
		logger.AccountID(op.account.ID),
		logger.Event(event.String()),
		slog.String("from", from.String()),
	}
	switch {
	case err == nil:
		l.log.LogAttrs(ctx, slog.LevelInfo, "two-factor transition",
			append(attrs, slog.String("to", to.String()), logger.Duration(l.now().Sub(start)))...)
	case errors.Is(err, ErrEntropyUnavailable):
		l.log.LogAttrs(ctx, slog.LevelError, "secure random source unavailable, setup aborted",
			append(attrs, logger.Operation(event.String()), logger.Error(err))...)
	case isUserError(err):
		l.log.LogAttrs(ctx, slog.LevelInfo, "two-factor transition refused", append(attrs, logger.Error(err))...)
	default:
		l.log.LogAttrs(ctx, slog.LevelError, "two-factor transition failed", append(attrs, logger.Error(err))...)
	}
	return err
}

func isUserError(err error) bool {
	for _, target := range []error{
		ErrInvalidCodeFormat, ErrCodeRejected, ErrThrottled, ErrSetupExpired,
		ErrInvalidSetupToken, ErrInvalidStateTransition, ErrVersionConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func transitionResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidStateTransition):
		return "invalid_transition"
	case errors.Is(err, ErrInvalidCodeFormat):
		return ResultInvalidFormat
	case errors.Is(err, ErrThrottled):
		return ResultThrottled
	case errors.Is(err, ErrCodeRejected):
		return ResultRejected
	case errors.Is(err, ErrSetupExpired):
		return "expired"
	case errors.Is(err, ErrInvalidSetupToken):
		return "invalid_token"
	case errors.Is(err, ErrVersionConflict):
		return "conflict"
	default:
		return ResultError
	}
}

// Guards and actions referenced from the transition table.

func (l *Lifecycle) requireCode(ctx context.Context, _ State, event Event, op *operation) error {
	return l.checkCode(ctx, event.String(), op.account.ID, op.secret, op.code)
}

func (l *Lifecycle) issueSetup(ctx context.Context, _, _ State, _ Event, op *operation) error {
	secret, err := l.generate()
	if err != nil {
		return err
	}

	payload, err := l.builder.Build(ctx, op.account.Label, l.issuer, secret)
	if err != nil {
		return err
	}

	issued := l.now()
	token, err := l.sealSetup(op.account.ID, secret, issued)
	if err != nil {
		return err
	}

	op.setup = &Setup{
		AccountID: op.account.ID,
		Secret:    secret,
		Payload:   payload,
		Token:     token,
		ExpiresAt: issued.Truncate(time.Second).Add(l.setupTTL),
	}
	return nil
}

func (l *Lifecycle) commitEnabled(ctx context.Context, _, _ State, _ Event, op *operation) error {
	now := l.now().UTC()
	next := Record{
		AccountID: op.account.ID,
		Secret:    op.secret,
		Enabled:   true,
		EnabledAt: &now,
		UpdatedAt: now,
	}
	saved, err := l.repo.Save(ctx, next, op.record.Version)
	if err != nil {
		return err
	}
	op.saved = saved
	return nil
}

func (l *Lifecycle) commitCleared(ctx context.Context, _, _ State, _ Event, op *operation) error {
	next := Record{AccountID: op.account.ID, UpdatedAt: l.now().UTC()}
	saved, err := l.repo.Save(ctx, next, op.record.Version)
	if err != nil {
		return err
	}
	op.saved = saved
	return nil
}

func (l *Lifecycle) notify(ctx context.Context, _, _ State, event Event, op *operation) error {
	notice := Notice{AccountID: op.account.ID, Event: event, At: l.now().UTC()}
	if err := l.notifier.Notify(ctx, notice); err != nil {
		l.log.WarnContext(ctx, "security notice not delivered",
			logger.AccountID(op.account.ID),
			logger.Event(event.String()),
			logger.Error(err),
		)
	}
	return nil
}
