package tokenauth

import (
	"context"
	"testing"
	"time"
)

func BenchmarkMetricsInc(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		m.Inc(MetricValidateSuccess)
	}
}

func BenchmarkMetricsIncParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricValidateSuccess)
		}
	})
}

func BenchmarkMetricsObserveLatencyParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	d := 120 * time.Microsecond
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Observe(MetricValidateLatency, d)
		}
	})
}

func BenchmarkValidate(b *testing.B) {
	a, err := New(Config{Secret: testSecret, Metrics: MetricsConfig{Enabled: true, EnableLatencyHistograms: true}})
	if err != nil {
		b.Fatalf("new authority: %v", err)
	}
	token, err := a.Create(Payload{"uid": "u1"}, SignOptions{})
	if err != nil {
		b.Fatalf("create: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Validate(context.Background(), token, true); err != nil {
			b.Fatalf("validate failed: %v", err)
		}
	}
}

func BenchmarkCreate(b *testing.B) {
	a, err := New(Config{Secret: testSecret})
	if err != nil {
		b.Fatalf("new authority: %v", err)
	}
	p := Payload{"uid": "u1"}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := a.Create(p, SignOptions{}); err != nil {
			b.Fatalf("create failed: %v", err)
		}
	}
}
