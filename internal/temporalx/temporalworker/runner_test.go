package temporalworker

import (
	"testing"
	"time"
)

func TestEnvTrue(t *testing.T) {
	cases := []struct {
		val  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"TRUE", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"false", true, false},
		{"nope", true, false},
	}
	for _, c := range cases {
		if c.val == "" {
			t.Setenv("ENV_TRUE_TEST", "")
		} else {
			t.Setenv("ENV_TRUE_TEST", c.val)
		}
		if got := envTrue("ENV_TRUE_TEST", c.def); got != c.want {
			t.Errorf("envTrue(%q, %v) = %v, want %v", c.val, c.def, got, c.want)
		}
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("ENV_INT_TEST", "")
	if got := envInt("ENV_INT_TEST", 7); got != 7 {
		t.Fatalf("envInt empty = %d, want default 7", got)
	}
	t.Setenv("ENV_INT_TEST", "not-a-number")
	if got := envInt("ENV_INT_TEST", 7); got != 7 {
		t.Fatalf("envInt garbage = %d, want default 7", got)
	}
	t.Setenv("ENV_INT_TEST", "42")
	if got := envInt("ENV_INT_TEST", 7); got != 42 {
		t.Fatalf("envInt = %d, want 42", got)
	}
}

func TestDurationSecondsFromEnv(t *testing.T) {
	t.Setenv("DUR_SEC_TEST", "")
	if got := durationSecondsFromEnv("DUR_SEC_TEST", 60); got != 60*time.Second {
		t.Fatalf("default = %v, want 60s", got)
	}
	t.Setenv("DUR_SEC_TEST", "-5")
	if got := durationSecondsFromEnv("DUR_SEC_TEST", 60); got != 0 {
		t.Fatalf("negative clamps to = %v, want 0", got)
	}
	t.Setenv("DUR_SEC_TEST", "30")
	if got := durationSecondsFromEnv("DUR_SEC_TEST", 60); got != 30*time.Second {
		t.Fatalf("= %v, want 30s", got)
	}
}

func TestDurationMillisFromEnv(t *testing.T) {
	t.Setenv("DUR_MS_TEST", "")
	if got := durationMillisFromEnv("DUR_MS_TEST", 250); got != 250*time.Millisecond {
		t.Fatalf("default = %v, want 250ms", got)
	}
	t.Setenv("DUR_MS_TEST", "500")
	if got := durationMillisFromEnv("DUR_MS_TEST", 250); got != 500*time.Millisecond {
		t.Fatalf("= %v, want 500ms", got)
	}
}

func TestClampBackoff(t *testing.T) {
	base := 250 * time.Millisecond
	max := 5000 * time.Millisecond

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 250 * time.Millisecond},
		{2, 500 * time.Millisecond},
		{3, 1000 * time.Millisecond},
		{4, 2000 * time.Millisecond},
		{5, 4000 * time.Millisecond},
		{6, 5000 * time.Millisecond},
		{10, 5000 * time.Millisecond},
	}
	for _, c := range cases {
		if got := clampBackoff(base, max, c.attempt); got != c.want {
			t.Errorf("clampBackoff(attempt=%d) = %v, want %v", c.attempt, got, c.want)
		}
	}
}

func TestClampBackoff_NonPositiveBaseDefaultsTo250ms(t *testing.T) {
	if got := clampBackoff(0, 5*time.Second, 1); got != 250*time.Millisecond {
		t.Fatalf("clampBackoff(0, ..., 1) = %v, want 250ms", got)
	}
}

func TestClampBackoff_NoMaxNeverClamps(t *testing.T) {
	got := clampBackoff(250*time.Millisecond, 0, 20)
	if got <= 5*time.Second {
		t.Fatalf("clampBackoff with max=0 should grow unbounded, got %v", got)
	}
}
