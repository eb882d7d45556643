package ports

import (
	"context"

	"github.com/cpharmston/fieldlevel/modules/iam/domain/types"
)

type PrincipalStore interface {
	GetPrincipal(ctx context.Context, principalID string) (types.PrincipalRecord, error)
}

type CapabilityStore interface {
	HasCapability(ctx context.Context, principalID string, capability string) (bool, error)
	ListCapabilities(ctx context.Context, principalID string) ([]string, error)
}
