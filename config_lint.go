package tokenauth

import (
	"fmt"
	"time"

	"github.com/MrEthical07/tokenauth/jwt"
)

const (
	lintLeewayLimit    = 30 * time.Second
	lintMinSecretBytes = 32
)

// LintSeverity ranks a LintWarning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "info"
	case LintWarn:
		return "warn"
	case LintHigh:
		return "high"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is a configuration that works but is probably a mistake.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of Config.Lint.
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// AtLeast returns the warnings at or above min.
func (ws LintWarnings) AtLeast(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// Lint reports risky but valid settings. It never fails; New runs it and
// logs each warning at info level.
func (c Config) Lint() LintWarnings {
	var ws LintWarnings

	if c.Leeway > lintLeewayLimit {
		ws = append(ws, LintWarning{
			Code:     "leeway_large",
			Severity: LintWarn,
			Message:  fmt.Sprintf("leeway %s accepts tokens well past exp", c.Leeway),
		})
	}
	if c.Secret != "" && len(c.Secret) < lintMinSecretBytes {
		ws = append(ws, LintWarning{
			Code:     "secret_short",
			Severity: LintHigh,
			Message:  fmt.Sprintf("secret is %d bytes; use at least %d", len(c.Secret), lintMinSecretBytes),
		})
	}
	if c.AllowInsecureSecret {
		ws = append(ws, LintWarning{
			Code:     "insecure_secret_allowed",
			Severity: LintHigh,
			Message:  "username+HOSTNAME fallback secret is permitted",
		})
	}
	if c.Algorithm == "" || c.Algorithm == jwt.HS256 {
		ws = append(ws, LintWarning{
			Code:     "hs256",
			Severity: LintInfo,
			Message:  "HS256 in use; HS512 gives a wider MAC at similar cost",
		})
	}
	return ws
}
