package tokenauth

import (
	"encoding/json"
	"math"
	"testing"
)

func TestPayloadNumericAccessors(t *testing.T) {
	cases := []struct {
		name string
		v    any
		want int64
		ok   bool
	}{
		{name: "float64", v: float64(3600), want: 3600, ok: true},
		{name: "int", v: 5, want: 5, ok: true},
		{name: "int64", v: int64(7), want: 7, ok: true},
		{name: "uint32", v: uint32(9), want: 9, ok: true},
		{name: "json.Number", v: json.Number("42"), want: 42, ok: true},
		{name: "json.Number float", v: json.Number("42.9"), want: 42, ok: true},
		{name: "string", v: "60", ok: false},
		{name: "nil", v: nil, ok: false},
		{name: "NaN", v: math.NaN(), ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := Payload{ClaimExpiry: tc.v, ClaimStep: tc.v, ClaimCount: tc.v}
			got, ok := p.Expiry()
			if ok != tc.ok || (ok && got != tc.want) {
				t.Fatalf("Expiry: expected (%d, %v), got (%d, %v)", tc.want, tc.ok, got, ok)
			}
			if !tc.ok {
				if p.Step() != 0 || p.Count() != 0 {
					t.Fatalf("expected zero step/count for %v", tc.v)
				}
				return
			}
			if p.Step() != tc.want || p.Count() != tc.want {
				t.Fatalf("expected step/count %d, got %d/%d", tc.want, p.Step(), p.Count())
			}
		})
	}
}

func TestPayloadCloneIsIndependent(t *testing.T) {
	p := Payload{"uid": "u1"}
	c := p.Clone()
	c["uid"] = "u2"
	c["cnt"] = 1

	if p["uid"] != "u1" || p.Has("cnt") {
		t.Fatalf("expected original untouched, got %v", p)
	}

	var nilPayload Payload
	if c := nilPayload.Clone(); c == nil || len(c) != 0 {
		t.Fatalf("expected empty non-nil clone, got %v", c)
	}
}

func TestPayloadHasAndString(t *testing.T) {
	p := Payload{"nil": nil, "name": "alice", "n": 1}
	if !p.Has("nil") || p.Has("missing") {
		t.Fatal("unexpected Has result")
	}
	if p.String("name") != "alice" || p.String("n") != "" {
		t.Fatal("unexpected String result")
	}
}
