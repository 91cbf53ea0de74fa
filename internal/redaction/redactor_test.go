package redaction

import "testing"

func TestRedactValueDisabledFastPath(t *testing.T) {
	r := New(Config{Enabled: false})
	in := map[string]interface{}{"password": "hunter2"}
	out := r.RedactValue(in)
	m := out.(map[string]interface{})
	if m["password"] != "hunter2" {
		t.Errorf("expected unchanged value when disabled, got %v", m["password"])
	}
}

func TestRedactValueFieldNameCaseInsensitive(t *testing.T) {
	r := New(Config{Enabled: true})
	in := map[string]interface{}{
		"Password":  "hunter2",
		"API_KEY":   "abc123",
		"ok":        "visible",
	}
	out := r.RedactValue(in).(map[string]interface{})
	if out["Password"] != redactedValue {
		t.Errorf("Password = %v, want redacted", out["Password"])
	}
	if out["API_KEY"] != redactedValue {
		t.Errorf("API_KEY = %v, want redacted", out["API_KEY"])
	}
	if out["ok"] != "visible" {
		t.Errorf("ok = %v, want unchanged", out["ok"])
	}
}

func TestRedactValueRecursesThroughNestedStructures(t *testing.T) {
	r := New(Config{Enabled: true})
	in := map[string]interface{}{
		"users": []interface{}{
			map[string]interface{}{"name": "alice", "secret": "s1"},
			map[string]interface{}{"name": "bob", "secret": "s2"},
		},
	}
	out := r.RedactValue(in).(map[string]interface{})
	users := out["users"].([]interface{})
	for _, u := range users {
		m := u.(map[string]interface{})
		if m["secret"] != redactedValue {
			t.Errorf("secret = %v, want redacted", m["secret"])
		}
		if m["name"] == redactedValue {
			t.Error("name should not be redacted")
		}
	}
}

func TestRedactTextAppliesPatternRules(t *testing.T) {
	r := New(Config{Enabled: true, PatternRules: []string{`\d{3}-\d{2}-\d{4}`}})
	got := r.RedactText("call 555-12-3456 for details")
	if got != "call [REDACTED] for details" {
		t.Errorf("RedactText() = %q", got)
	}
}

func TestRedactTextCompilesPatternsLazilyAndOnce(t *testing.T) {
	r := New(Config{Enabled: true, PatternRules: []string{`foo`, `bar`}})
	first := r.RedactText("foo and bar")
	second := r.RedactText("foo again")
	if first != "[REDACTED] and [REDACTED]" {
		t.Errorf("first call = %q", first)
	}
	if second != "[REDACTED] again" {
		t.Errorf("second call = %q", second)
	}
	if !r.ready {
		t.Error("expected patterns to be marked ready after first use")
	}
}

func TestRedactTextSkipsInvalidPattern(t *testing.T) {
	r := New(Config{Enabled: true, PatternRules: []string{`[invalid(`, `ok`}})
	got := r.RedactText("this is ok")
	if got != "this is [REDACTED]" {
		t.Errorf("RedactText() = %q, expected invalid pattern to be skipped silently", got)
	}
}
