package tokenauth

import (
	"encoding/json"
	"math"
)

// Reserved payload keys maintained by Create and Renew.
const (
	ClaimStep   = "stp"
	ClaimCount  = "cnt"
	ClaimExpiry = "exp"
	// ClaimRaw wraps payloads that verified as a bare string.
	ClaimRaw = "payload"
)

// Payload is the set of signed claims carried by a token.
//
// Values decoded from a token follow encoding/json conventions, so numbers
// arrive as float64. The typed accessors accept any numeric representation.
type Payload map[string]any

// Has reports whether key is present, even with a nil value.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Clone returns a shallow copy. A nil payload clones to an empty one.
func (p Payload) Clone() Payload {
	out := make(Payload, len(p)+3)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Step returns stp in seconds, or 0 when missing or not numeric.
func (p Payload) Step() int64 {
	n, _ := number(p[ClaimStep])
	return n
}

// Count returns cnt, or 0 when missing or not numeric.
func (p Payload) Count() int64 {
	n, _ := number(p[ClaimCount])
	return n
}

// Expiry returns exp as unix seconds and whether it was present and numeric.
func (p Payload) Expiry() (int64, bool) {
	return number(p[ClaimExpiry])
}

// String returns the value of key when it is a string.
func (p Payload) String(key string) string {
	s, _ := p[key].(string)
	return s
}

func number(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case float32:
		return number(float64(n))
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return number(f)
	default:
		return 0, false
	}
}
