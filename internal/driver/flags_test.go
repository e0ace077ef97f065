package driver

import "testing"

func TestParseArgsDefaultsStd(t *testing.T) {
	cfg, err := ParseArgs([]string{"a.c"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.Std != "c11" {
		t.Fatalf("expected default -std=c11, got %q", cfg.Std)
	}
}

func TestParseArgsRejectsUnknownStd(t *testing.T) {
	if _, err := ParseArgs([]string{"-std=c42", "a.c"}); err == nil {
		t.Fatal("expected an unsupported -std value to be rejected")
	}
}

func TestParseArgsAcceptsKnownStd(t *testing.T) {
	cfg, err := ParseArgs([]string{"-std=c99", "a.c"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if cfg.Std != "c99" {
		t.Fatalf("expected -std=c99, got %q", cfg.Std)
	}
}
