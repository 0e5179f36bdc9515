// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginProtection provides combined IP rate limiting and account lockout
// protection for the login endpoint.
type LoginProtection struct {
	ipLimiters   map[string]*rate.Limiter
	ipMu         sync.Mutex
	ipRateLimit  rate.Limit
	ipBurst      int

	failedAttempts map[string]*loginAttempt
	attemptsMu     sync.Mutex

	maxFailedAttempts int           // Lock account after this many failures
	lockoutDuration   time.Duration // Base lockout duration (doubles with each lockout)
	attemptWindow     time.Duration // Window to count failed attempts

	stopCh chan struct{}
}

// loginAttempt tracks failed login attempts for an account.
type loginAttempt struct {
	count       int
	firstFailed time.Time
	lockedUntil time.Time
	lockouts    int // Number of times the account has been locked (exponential backoff)
}

// LoginProtectionConfig holds configuration for login protection.
type LoginProtectionConfig struct {
	// IPRateLimit is requests per second per IP (default: 0.5 = 1 request per 2 seconds)
	IPRateLimit float64
	// IPBurst is the maximum burst size for IP rate limiting (default: 5)
	IPBurst int
	// MaxFailedAttempts before account lockout (default: 5)
	MaxFailedAttempts int
	// LockoutDuration is base lockout time, doubles with each lockout (default: 15 minutes)
	LockoutDuration time.Duration
	// AttemptWindow is the time window for counting failed attempts (default: 15 minutes)
	AttemptWindow time.Duration
}

// DefaultLoginProtectionConfig returns sensible defaults.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:       0.5,
		IPBurst:           5,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	}
}

// NewLoginProtection creates a new login protection instance.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	if cfg.IPRateLimit <= 0 {
		cfg.IPRateLimit = 0.5
	}
	if cfg.IPBurst <= 0 {
		cfg.IPBurst = 5
	}
	if cfg.MaxFailedAttempts <= 0 {
		cfg.MaxFailedAttempts = 5
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 15 * time.Minute
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = 15 * time.Minute
	}

	lp := &LoginProtection{
		ipLimiters:        make(map[string]*rate.Limiter),
		ipRateLimit:       rate.Limit(cfg.IPRateLimit),
		ipBurst:           cfg.IPBurst,
		failedAttempts:    make(map[string]*loginAttempt),
		maxFailedAttempts: cfg.MaxFailedAttempts,
		lockoutDuration:   cfg.LockoutDuration,
		attemptWindow:     cfg.AttemptWindow,
		stopCh:            make(chan struct{}),
	}

	go lp.cleanupLoop()

	return lp
}

// CheckIPRateLimit checks if the IP is rate limited.
// Returns true if the request should be allowed.
func (lp *LoginProtection) CheckIPRateLimit(ip string) bool {
	lp.ipMu.Lock()
	limiter, ok := lp.ipLimiters[ip]
	if !ok {
		limiter = rate.NewLimiter(lp.ipRateLimit, lp.ipBurst)
		lp.ipLimiters[ip] = limiter
	}
	lp.ipMu.Unlock()

	return limiter.Allow()
}

// IsAccountLocked checks if an account is currently locked.
func (lp *LoginProtection) IsAccountLocked(email string) bool {
	lp.attemptsMu.Lock()
	defer lp.attemptsMu.Unlock()

	attempt, ok := lp.failedAttempts[email]
	if !ok {
		return false
	}
	return time.Now().Before(attempt.lockedUntil)
}

// RecordFailedAttempt records a failed login. When the failure count
// inside the attempt window reaches the maximum, the account is locked
// with exponential backoff.
func (lp *LoginProtection) RecordFailedAttempt(email string) {
	lp.attemptsMu.Lock()
	defer lp.attemptsMu.Unlock()

	now := time.Now()
	attempt, ok := lp.failedAttempts[email]
	if !ok || now.Sub(attempt.firstFailed) > lp.attemptWindow {
		lp.failedAttempts[email] = &loginAttempt{count: 1, firstFailed: now}
		return
	}

	attempt.count++
	if attempt.count >= lp.maxFailedAttempts {
		lockout := lp.lockoutDuration << attempt.lockouts
		attempt.lockedUntil = now.Add(lockout)
		attempt.lockouts++
		attempt.count = 0
		attempt.firstFailed = now
	}
}

// RecordSuccess clears failure tracking for an account after a
// successful login.
func (lp *LoginProtection) RecordSuccess(email string) {
	lp.attemptsMu.Lock()
	defer lp.attemptsMu.Unlock()
	delete(lp.failedAttempts, email)
}

// Stop terminates the cleanup goroutine.
func (lp *LoginProtection) Stop() {
	close(lp.stopCh)
}

func (lp *LoginProtection) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-lp.stopCh:
			return
		case <-ticker.C:
			now := time.Now()

			lp.attemptsMu.Lock()
			for email, attempt := range lp.failedAttempts {
				if now.Sub(attempt.firstFailed) > lp.attemptWindow && now.After(attempt.lockedUntil) {
					delete(lp.failedAttempts, email)
				}
			}
			lp.attemptsMu.Unlock()

			// IP limiters are cheap; drop them all and rebuild on demand.
			lp.ipMu.Lock()
			lp.ipLimiters = make(map[string]*rate.Limiter)
			lp.ipMu.Unlock()
		}
	}
}
