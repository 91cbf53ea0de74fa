package gateway

import "testing"

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"weather.*", "weather.get_forecast", true},
		{"weather.*", "analytics.query", false},
		{"*.get_forecast", "weather.get_forecast", true},
		{"weather.get_forecast", "weather.get_forecast", true},
		{"weather.get_forecast", "weather.current", false},
		{"weather.*.internal", "weather.debug.internal", true},
		{"weather.*.internal", "weather.internal", false},
	}

	for _, tt := range tests {
		if got := globMatch(tt.pattern, tt.name); got != tt.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", tt.pattern, tt.name, got, tt.want)
		}
	}
}

func TestAdmittedDeniedTakesPrecedence(t *testing.T) {
	cfg := admissionPolicy{
		Allowed: []string{"weather.*"},
		Denied:  []string{"weather.debug_*"},
	}

	if !admitted(cfg, "weather.get_forecast") {
		t.Error("expected weather.get_forecast to be admitted")
	}
	if admitted(cfg, "weather.debug_dump") {
		t.Error("expected weather.debug_dump to be denied despite matching an allow pattern")
	}
}

func TestAdmittedEmptyAllowListWithDenyByDefault(t *testing.T) {
	cfg := admissionPolicy{DenyByDefault: true}
	if admitted(cfg, "anything.at_all") {
		t.Error("expected denyByDefault with empty allow list to deny everything")
	}

	cfg2 := admissionPolicy{DenyByDefault: false}
	if !admitted(cfg2, "anything.at_all") {
		t.Error("expected denyByDefault=false with empty allow list to admit everything")
	}
}
