package gate

import "context"

// SuperuserOnly restricts the listed field names to superuser principals.
// Names not in the list fall through permissively.
func SuperuserOnly(fieldNames ...string) FieldRule {
	restricted := make(map[string]struct{}, len(fieldNames))
	for _, name := range fieldNames {
		restricted[name] = struct{}{}
	}
	return func(ctx context.Context, req Request, obj any, fieldName string) (bool, error) {
		if _, ok := restricted[fieldName]; !ok {
			return true, nil
		}
		return req.Principal.Superuser, nil
	}
}

// RequireCapability restricts one field to principals holding the named
// capability. Other field names fall through permissively.
func RequireCapability(fieldName string, capability string) FieldRule {
	return func(ctx context.Context, req Request, obj any, name string) (bool, error) {
		if name != fieldName {
			return true, nil
		}
		return req.HasCapability(ctx, capability)
	}
}

// RequireCapabilityOnObject is RequireCapability with the additional
// constraint that a target object must exist: the field is denied during
// creation flows even for principals holding the capability.
func RequireCapabilityOnObject(fieldName string, capability string) FieldRule {
	return func(ctx context.Context, req Request, obj any, name string) (bool, error) {
		if name != fieldName {
			return true, nil
		}
		if obj == nil {
			return false, nil
		}
		return req.HasCapability(ctx, capability)
	}
}

// InlineRequireCapability restricts one inline section to principals holding
// the named capability.
func InlineRequireCapability(inlineName string, capability string) InlineRule {
	return func(ctx context.Context, req Request, obj any, name string) (bool, error) {
		if name != inlineName {
			return true, nil
		}
		return req.HasCapability(ctx, capability)
	}
}

// AllFieldRules combines rules; evaluation stops at the first deny or error.
// With no rules the result is permissive.
func AllFieldRules(rules ...FieldRule) FieldRule {
	return func(ctx context.Context, req Request, obj any, fieldName string) (bool, error) {
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			ok, err := rule(ctx, req, obj, fieldName)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
}

// AllInlineRules combines inline rules; first deny or error wins.
func AllInlineRules(rules ...InlineRule) InlineRule {
	return func(ctx context.Context, req Request, obj any, inlineName string) (bool, error) {
		for _, rule := range rules {
			if rule == nil {
				continue
			}
			ok, err := rule(ctx, req, obj, inlineName)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}
}
