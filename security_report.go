package tokenauth

import (
	"time"

	"github.com/MrEthical07/tokenauth/jwt"
)

// SecurityReport summarizes the effective settings of an Authority.
type SecurityReport struct {
	Bearer                   string
	SigningAlgorithm         string
	CustomSigner             bool
	Leeway                   time.Duration
	SecretLength             int
	InsecureSecret           bool
	TokenIDsIssued           bool
	MetricsEnabled           bool
	LatencyHistogramsEnabled bool
	Warnings                 []string
}

// SecurityReport returns the resolved configuration. The secret itself is
// never included.
func (a *Authority) SecurityReport() SecurityReport {
	if a == nil {
		return SecurityReport{}
	}

	alg := string(a.cfg.Algorithm)
	if alg == "" {
		alg = string(jwt.HS256)
	}
	if a.customSigner {
		alg = "custom"
	}

	lint := a.cfg
	lint.Secret = string(a.secret)
	warnings := lint.Lint().Codes()
	if a.insecure {
		warnings = append(warnings, "insecure_secret_in_use")
	}

	return SecurityReport{
		Bearer:                   a.bearer,
		SigningAlgorithm:         alg,
		CustomSigner:             a.customSigner,
		Leeway:                   a.cfg.Leeway,
		SecretLength:             len(a.secret),
		InsecureSecret:           a.insecure,
		TokenIDsIssued:           a.issueIDs,
		MetricsEnabled:           a.cfg.Metrics.Enabled,
		LatencyHistogramsEnabled: a.cfg.Metrics.Enabled && a.cfg.Metrics.EnableLatencyHistograms,
		Warnings:                 warnings,
	}
}
