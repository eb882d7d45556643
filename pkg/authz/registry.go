package authz

const (
	ActionHold = "hold"
)

const (
	CapabilityApprove   = "can_approve"
	CapabilityEditMeta  = "can_edit_meta"
	CapabilityPublish   = "can_publish"
	CapabilityEditSlugs = "can_edit_slugs"
)

// KnownCapabilities is the catalog ListCapabilities enumerates; casbin has
// no native "list objects for subject" query for arbitrary matchers.
var KnownCapabilities = []string{
	CapabilityApprove,
	CapabilityEditMeta,
	CapabilityEditSlugs,
	CapabilityPublish,
}
