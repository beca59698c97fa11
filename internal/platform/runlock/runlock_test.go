package runlock

import (
	"context"
	"testing"

	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
)

func TestNilLockAlwaysAcquires(t *testing.T) {
	var l *Lock

	release, ok, err := l.Acquire(context.Background(), "gazette_texts")
	if err != nil {
		t.Fatalf("Acquire on nil lock: %v", err)
	}
	if !ok {
		t.Fatal("nil lock should always report acquired=true (no distributed lock configured)")
	}
	release(context.Background())
}

func TestNilLockCloseIsNoop(t *testing.T) {
	var l *Lock
	if err := l.Close(); err != nil {
		t.Fatalf("Close on nil lock: %v", err)
	}
}

func TestNew_NoRedisAddrReturnsNilLock(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	lock, err := New(log, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if lock != nil {
		t.Fatalf("expected nil lock when REDIS_ADDR is unset, got %v", lock)
	}
}
