// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestProtection(maxAttempts int, lockout, window time.Duration) (*LoginProtection, *fakeClock) {
	lp := NewLoginProtection(LoginProtectionConfig{
		IPRateLimit:       10,
		IPBurst:           100,
		MaxFailedAttempts: maxAttempts,
		LockoutDuration:   lockout,
		AttemptWindow:     window,
	})
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	lp.now = clock.now
	return lp, clock
}

func TestNewLoginProtectionDefaultValues(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{})

	if lp.maxFailedAttempts != 5 {
		t.Errorf("maxFailedAttempts = %d, want 5 (default)", lp.maxFailedAttempts)
	}
	if lp.lockoutDuration != 15*time.Minute {
		t.Errorf("lockoutDuration = %v, want 15m (default)", lp.lockoutDuration)
	}
	if lp.attemptWindow != 15*time.Minute {
		t.Errorf("attemptWindow = %v, want 15m (default)", lp.attemptWindow)
	}
}

func TestLoginProtectionLocksAndUnlocks(t *testing.T) {
	lp, clock := newTestProtection(3, time.Minute, time.Hour)
	email := "editor@example.com"

	for i := 1; i <= 2; i++ {
		if locked, _ := lp.RecordFailedAttempt(email); locked {
			t.Fatalf("attempt %d locked the account", i)
		}
	}
	locked, d := lp.RecordFailedAttempt(email)
	if !locked || d != time.Minute {
		t.Fatalf("third attempt: locked=%v duration=%v", locked, d)
	}

	// Case and whitespace do not dodge the lock.
	if locked, remaining := lp.IsAccountLocked("  Editor@Example.com "); !locked || remaining != time.Minute {
		t.Errorf("IsAccountLocked = %v, %v", locked, remaining)
	}

	clock.advance(time.Minute + time.Second)
	if locked, _ := lp.IsAccountLocked(email); locked {
		t.Error("account still locked after lockout expired")
	}
}

func TestLoginProtectionExponentialBackoff(t *testing.T) {
	lp, clock := newTestProtection(2, time.Minute, time.Hour)
	email := "editor@example.com"

	lp.RecordFailedAttempt(email)
	_, first := lp.RecordFailedAttempt(email)
	clock.advance(first + time.Second)

	lp.RecordFailedAttempt(email)
	_, second := lp.RecordFailedAttempt(email)

	if second != 2*first {
		t.Errorf("second lockout = %v; want %v", second, 2*first)
	}
}

func TestLoginProtectionBackoffCapped(t *testing.T) {
	lp, clock := newTestProtection(1, 10*time.Hour, 100*time.Hour)
	email := "editor@example.com"

	var d time.Duration
	for range 4 {
		lp.RecordFailedAttempt(email)
		_, d = lp.RecordFailedAttempt(email)
		clock.advance(d + time.Second)
	}
	if d != 24*time.Hour {
		t.Errorf("lockout = %v; want capped at 24h", d)
	}
}

func TestLoginProtectionRemainingAttempts(t *testing.T) {
	lp, clock := newTestProtection(5, time.Minute, 10*time.Minute)
	email := "editor@example.com"

	if got := lp.RemainingAttempts(email); got != 5 {
		t.Errorf("initial RemainingAttempts = %d, want 5", got)
	}
	lp.RecordFailedAttempt(email)
	lp.RecordFailedAttempt(email)
	if got := lp.RemainingAttempts(email); got != 3 {
		t.Errorf("RemainingAttempts = %d, want 3", got)
	}

	clock.advance(11 * time.Minute)
	if got := lp.RemainingAttempts(email); got != 5 {
		t.Errorf("RemainingAttempts after window = %d, want 5", got)
	}

	lp.RecordFailedAttempt(email)
	lp.RecordSuccessfulLogin(email)
	if got := lp.RemainingAttempts(email); got != 5 {
		t.Errorf("RemainingAttempts after success = %d, want 5", got)
	}
}

func TestLoginProtectionCleanup(t *testing.T) {
	lp, clock := newTestProtection(5, time.Minute, 10*time.Minute)
	lp.RecordFailedAttempt("a@example.com")

	clock.advance(11 * time.Minute)
	lp.Cleanup()

	lp.attemptsMu.RLock()
	n := len(lp.failedAttempts)
	lp.attemptsMu.RUnlock()
	if n != 0 {
		t.Errorf("%d stale entries left after Cleanup", n)
	}
}

func TestLoginProtectionMiddleware(t *testing.T) {
	lp := NewLoginProtection(LoginProtectionConfig{IPRateLimit: 0.001, IPBurst: 2})
	handler := lp.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(method string) int {
		req := httptest.NewRequest(method, "/admin/login", nil)
		req.RemoteAddr = "192.0.2.1:4000"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	for i := 0; i < 2; i++ {
		if code := do(http.MethodPost); code != http.StatusOK {
			t.Fatalf("POST %d status = %d", i+1, code)
		}
	}
	if code := do(http.MethodPost); code != http.StatusTooManyRequests {
		t.Errorf("POST over burst status = %d; want 429", code)
	}
	if code := do(http.MethodGet); code != http.StatusOK {
		t.Errorf("GET status = %d; GET must not be limited", code)
	}
}
