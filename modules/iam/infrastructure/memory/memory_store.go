package memory

import (
	"context"
	"sort"

	"github.com/cpharmston/fieldlevel/modules/iam/domain/ports"
	"github.com/cpharmston/fieldlevel/modules/iam/domain/types"
	"github.com/cpharmston/fieldlevel/pkg/httperr"
)

// Store is an in-memory principal and capability store for tests and the
// demo server. Populate it before serving; reads take no lock.
type Store struct {
	principals   map[string]types.PrincipalRecord
	capabilities map[string]map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		principals:   map[string]types.PrincipalRecord{},
		capabilities: map[string]map[string]struct{}{},
	}
}

var _ ports.PrincipalStore = (*Store)(nil)
var _ ports.CapabilityStore = (*Store)(nil)

func (s *Store) AddPrincipal(rec types.PrincipalRecord, capabilities ...string) {
	if rec.Status == "" {
		rec.Status = types.PrincipalStatusActive
	}
	s.principals[rec.ID] = rec
	grants := make(map[string]struct{}, len(capabilities))
	for _, c := range capabilities {
		grants[c] = struct{}{}
	}
	s.capabilities[rec.ID] = grants
}

func (s *Store) GetPrincipal(_ context.Context, principalID string) (types.PrincipalRecord, error) {
	rec, ok := s.principals[principalID]
	if !ok {
		return types.PrincipalRecord{}, httperr.NewNotFound("principal not found")
	}
	return rec, nil
}

func (s *Store) HasCapability(_ context.Context, principalID string, capability string) (bool, error) {
	_, held := s.capabilities[principalID][capability]
	return held, nil
}

func (s *Store) ListCapabilities(_ context.Context, principalID string) ([]string, error) {
	grants := s.capabilities[principalID]
	out := make([]string, 0, len(grants))
	for c := range grants {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}
