package internaldefs

import (
	"github.com/MrEthical07/tokenauth"
)

// CounterDef names one counter for exporters.
type CounterDef struct {
	ID   tokenauth.MetricID
	Name string
	Help string
}

// HistogramDef names one latency histogram for exporters.
type HistogramDef struct {
	ID   tokenauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: tokenauth.MetricTokenCreated, Name: "tokenauth_token_created_total", Help: "Tokens issued by Create."},
	{ID: tokenauth.MetricTokenRenewed, Name: "tokenauth_token_renewed_total", Help: "Tokens issued by Renew."},
	{ID: tokenauth.MetricSignFailure, Name: "tokenauth_sign_failure_total", Help: "Create or Renew calls rejected by the signer."},
	{ID: tokenauth.MetricValidateSuccess, Name: "tokenauth_validate_success_total", Help: "Credentials that verified."},
	{ID: tokenauth.MetricValidateAnonymous, Name: "tokenauth_validate_anonymous_total", Help: "Optional validations resolved without identity."},
	{ID: tokenauth.MetricValidateMissing, Name: "tokenauth_validate_missing_total", Help: "Required validations without usable credentials."},
	{ID: tokenauth.MetricValidateRejected, Name: "tokenauth_validate_rejected_total", Help: "Required validations whose token failed verification."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: tokenauth.MetricValidateLatency, Name: "tokenauth_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the latency buckets.
var HistogramBounds = []string{
	"0.00005",
	"0.0001",
	"0.00025",
	"0.0005",
	"0.001",
	"0.0025",
	"0.005",
	"+Inf",
}

// HistogramBoundSuffix renders HistogramBounds as instrument name suffixes.
var HistogramBoundSuffix = []string{
	"0_00005",
	"0_0001",
	"0_00025",
	"0_0005",
	"0_001",
	"0_0025",
	"0_005",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
