package config

import "testing"

func TestInitializeMetrics_Disabled(t *testing.T) {
	res := InitializeMetrics(GetDefaultConfig())
	if res.Auth != nil || res.Server != nil {
		t.Fatal("Expected no collectors or server when metrics are disabled")
	}
}

func TestInitializeMetrics_Enabled(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true
	ApplyDefaults(cfg)

	res := InitializeMetrics(cfg)
	if res.Auth == nil {
		t.Fatal("Expected auth collectors when metrics are enabled")
	}
	if res.Server == nil {
		t.Fatal("Expected a metrics server when metrics are enabled")
	}
}
