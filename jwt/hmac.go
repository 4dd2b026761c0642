package jwt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm names an HMAC signing algorithm.
type Algorithm string

const (
	// HS256 is HMAC with SHA-256. It is the default.
	HS256 Algorithm = "HS256"
	// HS384 is HMAC with SHA-384.
	HS384 Algorithm = "HS384"
	// HS512 is HMAC with SHA-512.
	HS512 Algorithm = "HS512"
)

var (
	// ErrEmptySecret is returned when signing or verifying with an empty secret.
	ErrEmptySecret = errors.New("secret must not be empty")
	// ErrUnsupportedAlgorithm is returned for algorithms outside the HMAC family.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	// ErrClaimConflict is returned when a sign option would overwrite a claim
	// already present in the payload.
	ErrClaimConflict = errors.New("sign option conflicts with payload claim")
	// ErrInvalidClaimType is returned when a registered time claim is not numeric.
	ErrInvalidClaimType = errors.New("invalid claim type")
	// ErrInvalidLeeway is returned for a negative or oversized verification leeway.
	ErrInvalidLeeway = errors.New("invalid leeway configuration")
)

var validMethods = []string{string(HS256), string(HS384), string(HS512)}

// Config configures an [HMAC] signer.
type Config struct {
	// Algorithm used when SignOptions.Algorithm is empty. Defaults to HS256.
	Algorithm Algorithm
	// Leeway is the clock tolerance applied to exp and nbf on verification.
	Leeway time.Duration
	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// SignOptions are per-call signing options.
//
// A zero ExpiresIn means "not set": the signer adds no exp claim and keeps
// any exp the payload already carries. Negative values produce tokens that
// are already expired.
type SignOptions struct {
	ExpiresIn   time.Duration
	NotBefore   time.Duration
	Algorithm   Algorithm
	Issuer      string
	Subject     string
	Audience    []string
	JWTID       string
	KeyID       string
	NoTimestamp bool
}

// HMAC signs and verifies compact JWS tokens with a shared secret.
//
// HMAC is immutable after construction and safe for concurrent use.
type HMAC struct {
	config Config
}

// NewHMAC validates cfg and returns a signer.
func NewHMAC(cfg Config) (*HMAC, error) {
	if cfg.Algorithm == "" {
		cfg.Algorithm = HS256
	}
	if _, err := method(cfg.Algorithm); err != nil {
		return nil, err
	}
	if cfg.Leeway < 0 || cfg.Leeway > 5*time.Minute {
		return nil, ErrInvalidLeeway
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &HMAC{config: cfg}, nil
}

// Sign serializes claims into a signed compact token.
//
// Claims are copied before the registered claims from opts are applied, so
// the caller's map is never modified. iat defaults to now; exp and nbf are
// computed relative to iat.
func (h *HMAC) Sign(claims map[string]any, secret []byte, opts SignOptions) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}
	alg := opts.Algorithm
	if alg == "" {
		alg = h.config.Algorithm
	}
	m, err := method(alg)
	if err != nil {
		return "", err
	}

	out := make(jwt.MapClaims, len(claims)+4)
	for k, v := range claims {
		out[k] = v
	}
	for _, name := range []string{"exp", "iat", "nbf"} {
		if v, ok := out[name]; ok {
			if _, ok := numeric(v); !ok {
				return "", fmt.Errorf("%w: %q must be a number", ErrInvalidClaimType, name)
			}
		}
	}

	timestamp := h.config.Now().Unix()
	if iat, ok := out["iat"]; ok {
		timestamp, _ = numeric(iat)
	}
	if opts.NoTimestamp {
		delete(out, "iat")
	} else {
		out["iat"] = timestamp
	}

	if opts.ExpiresIn != 0 {
		if err := setOnce(out, "exp", timestamp+int64(opts.ExpiresIn/time.Second)); err != nil {
			return "", err
		}
	}
	if opts.NotBefore != 0 {
		if err := setOnce(out, "nbf", timestamp+int64(opts.NotBefore/time.Second)); err != nil {
			return "", err
		}
	}
	if opts.Issuer != "" {
		if err := setOnce(out, "iss", opts.Issuer); err != nil {
			return "", err
		}
	}
	if opts.Subject != "" {
		if err := setOnce(out, "sub", opts.Subject); err != nil {
			return "", err
		}
	}
	if len(opts.Audience) > 0 {
		aud := any(append([]string(nil), opts.Audience...))
		if len(opts.Audience) == 1 {
			aud = opts.Audience[0]
		}
		if err := setOnce(out, "aud", aud); err != nil {
			return "", err
		}
	}
	if opts.JWTID != "" {
		if err := setOnce(out, "jti", opts.JWTID); err != nil {
			return "", err
		}
	}

	token := jwt.NewWithClaims(m, out)
	if opts.KeyID != "" {
		token.Header["kid"] = opts.KeyID
	}
	return token.SignedString(secret)
}

// SignRaw signs an opaque string payload. The payload segment carries the
// bytes of payload verbatim, without JSON encoding.
func (h *HMAC) SignRaw(payload string, secret []byte, alg Algorithm) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}
	if alg == "" {
		alg = h.config.Algorithm
	}
	m, err := method(alg)
	if err != nil {
		return "", err
	}
	token := jwt.New(m)
	header, err := json.Marshal(token.Header)
	if err != nil {
		return "", err
	}
	signingString := token.EncodeSegment(header) + "." + token.EncodeSegment([]byte(payload))
	sig, err := m.Sign(signingString, secret)
	if err != nil {
		return "", err
	}
	return signingString + "." + token.EncodeSegment(sig), nil
}

// Verify checks the signature and the exp/nbf claims of tokenStr.
//
// The result is a jwt.MapClaims-compatible map[string]any for JSON object
// payloads, or a string when the payload segment is not a JSON object.
func (h *HMAC) Verify(tokenStr string, secret []byte) (any, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods(validMethods),
		jwt.WithLeeway(h.config.Leeway),
		jwt.WithTimeFunc(h.config.Now),
	)

	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return nil, jwt.ErrTokenMalformed
	}
	body, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", jwt.ErrTokenMalformed, err)
	}
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '{' {
		return h.verifyRaw(parser, parts, body, secret)
	}

	token, err := parser.ParseWithClaims(tokenStr, jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return map[string]any(claims), nil
}

func (h *HMAC) verifyRaw(parser *jwt.Parser, parts []string, body []byte, secret []byte) (any, error) {
	rawHeader, err := parser.DecodeSegment(parts[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", jwt.ErrTokenMalformed, err)
	}
	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(rawHeader, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", jwt.ErrTokenMalformed, err)
	}
	m, err := method(Algorithm(header.Alg))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", jwt.ErrTokenSignatureInvalid, err)
	}
	sig, err := parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", jwt.ErrTokenMalformed, err)
	}
	if err := m.Verify(parts[0]+"."+parts[1], sig, secret); err != nil {
		return nil, fmt.Errorf("%w: %v", jwt.ErrTokenSignatureInvalid, err)
	}
	return string(body), nil
}

func method(alg Algorithm) (jwt.SigningMethod, error) {
	switch alg {
	case HS256:
		return jwt.SigningMethodHS256, nil
	case HS384:
		return jwt.SigningMethodHS384, nil
	case HS512:
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
}

func setOnce(claims jwt.MapClaims, name string, value any) error {
	if _, exists := claims[name]; exists {
		return fmt.Errorf("%w: payload already has %q", ErrClaimConflict, name)
	}
	claims[name] = value
	return nil
}

func numeric(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case float32:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return i, true
	default:
		return 0, false
	}
}
