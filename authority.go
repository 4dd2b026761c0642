package tokenauth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MrEthical07/tokenauth/jwt"
)

// Signer is the signing/verification primitive an Authority delegates to.
//
// Verify returns the decoded payload: a map[string]any for JSON object
// payloads or a string for raw payloads.
type Signer interface {
	Sign(claims map[string]any, secret []byte, opts jwt.SignOptions) (string, error)
	Verify(token string, secret []byte) (any, error)
}

// SignOptions are the per-call options of Create. A zero ExpiresIn selects
// DefaultExpiresIn.
type SignOptions = jwt.SignOptions

// Option customizes an Authority.
type Option func(*Authority)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Authority) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithSigner replaces the default HMAC signer.
func WithSigner(s Signer) Option {
	return func(a *Authority) {
		a.signer = s
		a.customSigner = true
	}
}

// WithClock overrides the clock used by Renew and by the default signer.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		if now != nil {
			a.now = now
		}
	}
}

// WithAuditSink sets the destination of audit events. It has no effect
// unless Config.Audit.Enabled is set.
func WithAuditSink(sink AuditSink) Option {
	return func(a *Authority) {
		a.auditSink = sink
	}
}

// WithEnv supplies the environment defaults instead of reading the process
// environment.
func WithEnv(e EnvConfig) Option {
	return func(a *Authority) {
		a.env = &e
	}
}

// Authority issues, renews and validates bearer tokens for one call-site
// configuration. It holds no mutable state after New and is safe for
// concurrent use. Close releases the audit goroutine when audit is enabled.
type Authority struct {
	bearer   string
	secret   []byte
	issueIDs bool
	cfg      Config
	insecure bool

	signer       Signer
	customSigner bool
	logger       *zap.Logger
	metrics      *Metrics
	now          func() time.Time
	env          *EnvConfig
	auditSink    AuditSink
	audit        *auditDispatcher
}

// New resolves cfg against the environment defaults and returns an Authority.
//
// New fails with ErrSecretNotConfigured when no secret is configured, rather
// than silently signing with a guessable value.
func New(cfg Config, opts ...Option) (*Authority, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &Authority{
		bearer:   cfg.bearer(),
		issueIDs: cfg.IssueTokenIDs,
		cfg:      cfg,
		logger:   zap.NewNop(),
		metrics:  NewMetrics(cfg.Metrics),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	e := a.env
	if e == nil && cfg.Secret == "" {
		loaded, err := processEnv()
		if err != nil {
			return nil, err
		}
		e = &loaded
	}
	if e == nil {
		e = &EnvConfig{}
	}

	secret, insecure, err := resolveSecret(cfg, *e)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Lint() {
		a.logger.Info("config lint", zap.String("code", w.Code), zap.String("severity", w.Severity.String()), zap.String("message", w.Message))
	}
	if insecure {
		a.logger.Warn("signing with insecure fallback secret derived from username and HOSTNAME; set JWT_SECRET")
	}
	a.secret = []byte(secret)
	a.insecure = insecure

	if a.customSigner {
		if a.signer == nil {
			return nil, ErrNilSigner
		}
	} else {
		signer, err := jwt.NewHMAC(jwt.Config{
			Algorithm: cfg.Algorithm,
			Leeway:    cfg.Leeway,
			Now:       a.now,
		})
		if err != nil {
			return nil, err
		}
		a.signer = signer
	}

	a.audit = newAuditDispatcher(cfg.Audit, a.auditSink)
	return a, nil
}

// Close flushes queued audit events and stops the dispatcher. It is safe to
// call more than once; audit events emitted afterwards are discarded.
func (a *Authority) Close() {
	a.audit.Close()
}

// AuditDropped reports how many audit events were discarded because the
// buffer was full.
func (a *Authority) AuditDropped() uint64 { return a.audit.Dropped() }

// Secret returns the resolved signing secret.
func (a *Authority) Secret() string { return string(a.secret) }

// Bearer returns the resolved scheme keyword.
func (a *Authority) Bearer() string { return a.bearer }

// Authorization returns the header name validated credentials are read from.
func (a *Authority) Authorization() string { return HeaderAuthorization }

// MetricsSnapshot returns a copy of the Authority's counters.
func (a *Authority) MetricsSnapshot() MetricsSnapshot { return a.metrics.Snapshot() }

// Create issues a new token for payload.
//
// The payload is copied, then stp defaults to the ExpiresIn window in seconds
// and cnt to 0. The caller's map is never modified.
func (a *Authority) Create(payload Payload, opts SignOptions) (string, error) {
	if opts.ExpiresIn == 0 {
		opts.ExpiresIn = DefaultExpiresIn
	}

	claims := payload.Clone()
	if !claims.Has(ClaimStep) {
		claims[ClaimStep] = int64(opts.ExpiresIn / time.Second)
	}
	if !claims.Has(ClaimCount) {
		claims[ClaimCount] = int64(0)
	}
	if a.issueIDs && opts.JWTID == "" && !claims.Has("jti") {
		opts.JWTID = uuid.NewString()
	}

	token, err := a.sign(claims, opts)
	if err != nil {
		a.emitAudit(context.Background(), AuditSignFailed, claims, err)
		return "", fmt.Errorf("create token: %w", err)
	}
	a.metrics.Inc(MetricTokenCreated)
	if a.audit != nil && opts.JWTID != "" && !claims.Has("jti") {
		claims["jti"] = opts.JWTID
	}
	a.emitAudit(context.Background(), AuditTokenCreated, claims, nil)
	return token, nil
}

// Renew re-issues payload with exp moved to now+stp and cnt incremented.
//
// The new expiry is measured from the current time, not from the old exp.
// No sign options are passed, so the explicit exp claim governs validity.
// Renew returns the renewed payload alongside the token and leaves the
// argument untouched.
func (a *Authority) Renew(payload Payload) (string, Payload, error) {
	renewed := payload.Clone()
	renewed[ClaimExpiry] = a.now().Unix() + renewed.Step()
	renewed[ClaimCount] = renewed.Count() + 1

	token, err := a.sign(renewed, SignOptions{})
	if err != nil {
		a.emitAudit(context.Background(), AuditSignFailed, renewed, err)
		return "", nil, fmt.Errorf("renew token: %w", err)
	}
	a.metrics.Inc(MetricTokenRenewed)
	a.emitAudit(context.Background(), AuditTokenRenewed, renewed, nil)
	return token, renewed, nil
}

// Validate checks an Authorization header value.
//
// With required unset, a missing, malformed or unverifiable credential
// yields (nil, nil). With required set, the same cases return an
// *UnauthorizedError; verification failures carry the verifier's message as
// Detail. A raw string payload is returned as Payload{"payload": s}.
func (a *Authority) Validate(ctx context.Context, authorization string, required bool) (Payload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { a.metrics.Observe(MetricValidateLatency, time.Since(start)) }()
	}

	scheme, token := splitAuthorization(authorization)
	if scheme == "" || scheme != a.bearer || token == "" {
		if !required {
			a.metrics.Inc(MetricValidateAnonymous)
			return nil, nil
		}
		a.metrics.Inc(MetricValidateMissing)
		a.logger.Debug("rejected credential", zap.String("reason", "missing or malformed authorization"))
		uerr := unauthorized(nil)
		a.emitAudit(ctx, AuditTokenRejected, nil, uerr)
		return nil, uerr
	}

	decoded, err := a.signer.Verify(token, a.secret)
	if err != nil {
		if !required {
			a.metrics.Inc(MetricValidateAnonymous)
			return nil, nil
		}
		a.metrics.Inc(MetricValidateRejected)
		a.logger.Debug("rejected credential", zap.String("reason", "verification failed"), zap.Error(err))
		uerr := unauthorized(err)
		a.emitAudit(ctx, AuditTokenRejected, nil, uerr)
		return nil, uerr
	}

	a.metrics.Inc(MetricValidateSuccess)
	var payload Payload
	switch p := decoded.(type) {
	case string:
		payload = Payload{ClaimRaw: p}
	case map[string]any:
		payload = Payload(p)
	case Payload:
		payload = p
	default:
		payload = Payload{ClaimRaw: decoded}
	}
	a.emitAudit(ctx, AuditTokenValidated, payload, nil)
	return payload, nil
}

func (a *Authority) sign(claims Payload, opts SignOptions) (string, error) {
	token, err := a.signer.Sign(claims, a.secret, opts)
	if err != nil {
		a.metrics.Inc(MetricSignFailure)
		return "", err
	}
	return a.bearer + " " + token, nil
}

// splitAuthorization mirrors a split on single spaces: the scheme is the
// first field and the token the second; further fields are ignored.
func splitAuthorization(value string) (scheme, token string) {
	fields := strings.SplitN(value, " ", 3)
	scheme = fields[0]
	if len(fields) > 1 {
		token = fields[1]
	}
	return scheme, token
}
