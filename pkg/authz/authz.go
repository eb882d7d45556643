package authz

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

type Mode string

const (
	ModeEnforce  Mode = "enforce"
	ModeShadow   Mode = "shadow"
	ModeDisabled Mode = "disabled"
)

func ModeFromEnv() (Mode, error) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv("AUTHZ_MODE")))
	if raw == "" {
		return ModeEnforce, nil
	}
	switch Mode(raw) {
	case ModeEnforce, ModeShadow:
		return Mode(raw), nil
	case ModeDisabled:
		if os.Getenv("AUTHZ_UNSAFE_ALLOW_DISABLED") != "1" {
			return "", errors.New("authz: AUTHZ_MODE=disabled requires AUTHZ_UNSAFE_ALLOW_DISABLED=1")
		}
		return ModeDisabled, nil
	default:
		return "", errors.New("authz: invalid AUTHZ_MODE (expected enforce|shadow|disabled)")
	}
}

// Authorizer resolves capability grants through a casbin enforcer loaded
// from a model file and a CSV policy file. It satisfies the gate's
// CapabilityResolver interface.
type Authorizer struct {
	enforcer *casbin.Enforcer
	mode     Mode
}

func NewAuthorizer(modelPath string, policyPath string, mode Mode) (*Authorizer, error) {
	adapter := fileadapter.NewAdapter(policyPath)
	enforcer, err := casbin.NewEnforcer(modelPath)
	if err != nil {
		return nil, err
	}
	enforcer.SetAdapter(adapter)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return &Authorizer{enforcer: enforcer, mode: mode}, nil
}

func SubjectFromPrincipalID(principalID string) string {
	principalID = strings.TrimSpace(principalID)
	if principalID == "" {
		principalID = "anonymous"
	}
	return "user:" + principalID
}

// Authorize evaluates (subject, capability, action) against the policy.
// In shadow mode the decision is computed but not enforced.
func (a *Authorizer) Authorize(subject string, capability string, action string) (allowed bool, enforced bool, err error) {
	switch a.mode {
	case ModeDisabled:
		return true, false, nil
	case ModeShadow:
		ok, err := a.enforcer.Enforce(subject, capability, action)
		if err != nil {
			return false, false, err
		}
		return ok, false, nil
	case ModeEnforce:
		ok, err := a.enforcer.Enforce(subject, capability, action)
		if err != nil {
			return false, true, err
		}
		return ok, true, nil
	default:
		return false, false, errors.New("authz: unknown mode")
	}
}

// HasCapability implements gate.CapabilityResolver. Decisions from
// non-enforcing modes (shadow, disabled) resolve permissively.
func (a *Authorizer) HasCapability(_ context.Context, principalID string, capability string) (bool, error) {
	allowed, enforced, err := a.Authorize(SubjectFromPrincipalID(principalID), capability, ActionHold)
	if err != nil {
		return false, err
	}
	if !enforced {
		return true, nil
	}
	return allowed, nil
}

// ListCapabilities returns the known capabilities the principal holds,
// sorted. The catalog bounds the enumeration; see KnownCapabilities.
func (a *Authorizer) ListCapabilities(ctx context.Context, principalID string) ([]string, error) {
	out := make([]string, 0, len(KnownCapabilities))
	for _, capability := range KnownCapabilities {
		held, err := a.HasCapability(ctx, principalID, capability)
		if err != nil {
			return nil, err
		}
		if held {
			out = append(out, capability)
		}
	}
	return out, nil
}
