package httpx

import (
	"net/http"
	"testing"
	"time"
)

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{408, true},
		{429, true},
		{500, true},
		{503, true},
		{599, true},
		{600, false},
		{404, false},
		{200, false},
	}
	for _, c := range cases {
		if got := IsRetryableHTTPStatus(c.code); got != c.want {
			t.Errorf("IsRetryableHTTPStatus(%d) = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestIsRetryableError_NilIsFalse(t *testing.T) {
	if IsRetryableError(nil) {
		t.Fatal("IsRetryableError(nil) should be false")
	}
}

func TestRetryAfterDuration_NilResponseUsesFallback(t *testing.T) {
	got := RetryAfterDuration(nil, 2*time.Second, 10*time.Second)
	if got != 2*time.Second {
		t.Fatalf("got %v, want 2s", got)
	}
}

func TestRetryAfterDuration_HeaderOverridesFallback(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"5"}}}
	got := RetryAfterDuration(resp, 2*time.Second, 10*time.Second)
	if got != 5*time.Second {
		t.Fatalf("got %v, want 5s", got)
	}
}

func TestRetryAfterDuration_ClampedToMax(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"30"}}}
	got := RetryAfterDuration(resp, 2*time.Second, 10*time.Second)
	if got != 10*time.Second {
		t.Fatalf("got %v, want 10s (clamped)", got)
	}
}

func TestRetryAfterDuration_InvalidHeaderFallsBack(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"not-a-number"}}}
	got := RetryAfterDuration(resp, 2*time.Second, 10*time.Second)
	if got != 2*time.Second {
		t.Fatalf("got %v, want fallback 2s", got)
	}
}

func TestJitterSleep_ZeroOrNegativeIsZero(t *testing.T) {
	if got := JitterSleep(0); got != 0 {
		t.Fatalf("JitterSleep(0) = %v, want 0", got)
	}
	if got := JitterSleep(-1 * time.Second); got != 0 {
		t.Fatalf("JitterSleep(negative) = %v, want 0", got)
	}
}

func TestJitterSleep_StaysWithin20PercentBand(t *testing.T) {
	base := 1 * time.Second
	low := 800 * time.Millisecond
	high := 1200 * time.Millisecond
	for i := 0; i < 50; i++ {
		got := JitterSleep(base)
		if got < low || got > high {
			t.Fatalf("JitterSleep(%v) = %v, want within [%v, %v]", base, got, low, high)
		}
	}
}
