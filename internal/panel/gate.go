// Copyright (c) 2025-2026 ChainQuest Labs
// SPDX-License-Identifier: GPL-3.0-or-later

package panel

import (
	"sync"

	"chainquest-cms/internal/model"
	"chainquest-cms/internal/rbac"
)

// Mode selects how a gate combines multiple required permissions.
type Mode int

const (
	// RequireAll grants only when every required permission is held.
	RequireAll Mode = iota
	// RequireAny grants when at least one required permission is held.
	RequireAny
)

// Decision is the outcome of one gate evaluation.
type Decision int

const (
	// Pending means the initial session load has not finished; render
	// nothing rather than flash unauthorized content.
	Pending Decision = iota
	// RedirectLogin means the session is unauthenticated.
	RedirectLogin
	// RedirectUnauthorized means the user holds no panel access at all.
	RedirectUnauthorized
	// RedirectForbidden means the user is a panel user but lacks the
	// gate's specific permissions.
	RedirectForbidden
	// Granted means the protected content may render.
	Granted
)

// String returns the decision name for logging.
func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	case RedirectForbidden:
		return "redirect_forbidden"
	case Granted:
		return "granted"
	default:
		return "unknown"
	}
}

// Default redirect destinations.
const (
	LoginTarget        = "/login"
	UnauthorizedTarget = "/unauthorized"
	ForbiddenTarget    = "/forbidden"
)

// sessionSource is the slice of the Syncer a gate depends on.
type sessionSource interface {
	Current() *model.AuthUser
	Loaded() bool
}

// Gate guards one protected view with a required permission set. The
// baseline panel.access check always precedes the gate's own
// permissions, so "not a panel user at all" and "panel user missing this
// permission" redirect to distinct destinations.
//
// A redirect fires at most once per mount; the latch re-arms only when
// a permissions broadcast arrives, at which point the whole decision
// sequence re-runs so a revocation takes effect without a reload.
type Gate struct {
	session     sessionSource
	permissions []string
	mode        Mode
	forbiddenTo string

	mu          sync.Mutex
	fired       bool
	unsubscribe func()
}

// GateConfig configures a Gate.
type GateConfig struct {
	Permissions []string
	Mode        Mode
	// ForbiddenTarget overrides the destination for RedirectForbidden.
	ForbiddenTarget string
}

// NewGate creates a Gate reading the session from src and re-arming its
// redirect latch on every permissions broadcast from bus.
func NewGate(src sessionSource, bus *Bus, cfg GateConfig) *Gate {
	if cfg.ForbiddenTarget == "" {
		cfg.ForbiddenTarget = ForbiddenTarget
	}
	g := &Gate{
		session:     src,
		permissions: cfg.Permissions,
		mode:        cfg.Mode,
		forbiddenTo: cfg.ForbiddenTarget,
	}
	if bus != nil {
		g.unsubscribe = bus.Subscribe(EventPermissionsUpdated, g.rearm)
	}
	return g
}

// Close detaches the gate from the broadcast bus on unmount.
func (g *Gate) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
}

// Evaluate runs the decision sequence against the current session.
// Precedence: pending load, then authentication, then baseline panel
// access, then the gate's own permissions.
func (g *Gate) Evaluate() Decision {
	if !g.session.Loaded() {
		return Pending
	}

	user := g.session.Current()
	if user == nil {
		return RedirectLogin
	}
	if !rbac.Has(user, rbac.PermPanelAccess) {
		return RedirectUnauthorized
	}

	if len(g.permissions) > 0 {
		var ok bool
		if g.mode == RequireAny {
			ok = rbac.HasAny(user, g.permissions)
		} else {
			ok = rbac.HasAll(user, g.permissions)
		}
		if !ok {
			return RedirectForbidden
		}
	}

	return Granted
}

// Redirect consumes the one-shot latch: for a redirect decision it
// returns the destination exactly once until the latch is re-armed by a
// broadcast. Non-redirect decisions never fire.
func (g *Gate) Redirect(d Decision) (target string, fire bool) {
	switch d {
	case RedirectLogin:
		target = LoginTarget
	case RedirectUnauthorized:
		target = UnauthorizedTarget
	case RedirectForbidden:
		target = g.forbiddenTo
	default:
		return "", false
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fired {
		return "", false
	}
	g.fired = true
	return target, true
}

func (g *Gate) rearm() {
	g.mu.Lock()
	g.fired = false
	g.mu.Unlock()
}
