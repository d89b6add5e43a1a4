package logger

import "testing"

func TestNew_UnknownEnv(t *testing.T) {
	if _, err := New("staging"); err == nil {
		t.Error("expected error for unknown environment")
	}
}

func TestNew_LevelOverride(t *testing.T) {
	if _, err := New("prod", "debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := New("prod", "chatty"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestBaseConfig_ProdCarriesServiceField(t *testing.T) {
	cfg, err := baseConfig("prod")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.InitialFields["service"] != serviceName {
		t.Errorf("prod config missing service field: %v", cfg.InitialFields)
	}
}
