package gate

import "context"

// CapabilityResolver answers whether a principal holds a named capability.
// Implementations may query a database or a policy engine; errors propagate
// unmodified to the caller of the gate.
type CapabilityResolver interface {
	HasCapability(ctx context.Context, principalID string, capability string) (bool, error)
}

// Principal is the authenticated actor a request acts on behalf of.
type Principal struct {
	ID        string
	Email     string
	Superuser bool
}

// Request carries the per-request inputs a rule may consult. The gate itself
// holds no state; two requests never share anything through it.
type Request struct {
	Principal    Principal
	Capabilities CapabilityResolver
	TraceID      string
}

// HasCapability reports whether the acting principal holds the capability.
// Superusers implicitly hold every capability. A request without a resolver
// holds none.
func (r Request) HasCapability(ctx context.Context, capability string) (bool, error) {
	if r.Principal.Superuser {
		return true, nil
	}
	if r.Capabilities == nil {
		return false, nil
	}
	return r.Capabilities.HasCapability(ctx, r.Principal.ID, capability)
}

// FieldRule decides whether the acting principal may change the named field
// on obj. A nil obj marks a creation flow where no record exists yet.
type FieldRule func(ctx context.Context, req Request, obj any, fieldName string) (bool, error)

// InlineRule decides whether the acting principal may change the named
// inline section on obj.
type InlineRule func(ctx context.Context, req Request, obj any, inlineName string) (bool, error)

// Gate filters which fields and inline sections an edit form exposes.
// Either rule may be nil, in which case that side of the gate is permissive.
type Gate struct {
	FieldRule  FieldRule
	InlineRule InlineRule
}

// CanChangeField reports whether fieldName should be rendered as editable
// for this request. A false result excludes the field from the form
// entirely; it is not merely disabled client-side.
func (g Gate) CanChangeField(ctx context.Context, req Request, obj any, fieldName string) (bool, error) {
	if g.FieldRule == nil {
		return true, nil
	}
	return g.FieldRule(ctx, req, obj, fieldName)
}

// CanChangeInline reports whether the named inline editor should be attached
// to the form for this request.
func (g Gate) CanChangeInline(ctx context.Context, req Request, obj any, inlineName string) (bool, error) {
	if g.InlineRule == nil {
		return true, nil
	}
	return g.InlineRule(ctx, req, obj, inlineName)
}
