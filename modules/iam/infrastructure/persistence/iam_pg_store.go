package persistence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/cpharmston/fieldlevel/modules/iam/domain/ports"
	"github.com/cpharmston/fieldlevel/modules/iam/domain/types"
	"github.com/cpharmston/fieldlevel/pkg/httperr"
)

type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// IAMPGStore resolves principals and capability grants from the
// iam.principals and iam.principal_capabilities tables.
type IAMPGStore struct {
	pool pgQuerier
}

func NewIAMPGStore(pool pgQuerier) *IAMPGStore {
	return &IAMPGStore{pool: pool}
}

var _ ports.PrincipalStore = (*IAMPGStore)(nil)
var _ ports.CapabilityStore = (*IAMPGStore)(nil)

func (s *IAMPGStore) GetPrincipal(ctx context.Context, principalID string) (types.PrincipalRecord, error) {
	row := s.pool.QueryRow(ctx, `
	SELECT principal_id::text, email, is_superuser, status
	FROM iam.principals
	WHERE principal_id = $1
	`, principalID)

	var rec types.PrincipalRecord
	if err := row.Scan(&rec.ID, &rec.Email, &rec.Superuser, &rec.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.PrincipalRecord{}, httperr.NewNotFound("principal not found")
		}
		return types.PrincipalRecord{}, err
	}
	return rec, nil
}

func (s *IAMPGStore) HasCapability(ctx context.Context, principalID string, capability string) (bool, error) {
	row := s.pool.QueryRow(ctx, `
	SELECT EXISTS (
	  SELECT 1
	  FROM iam.principal_capabilities
	  WHERE principal_id = $1 AND capability = $2
	)
	`, principalID, capability)

	var held bool
	if err := row.Scan(&held); err != nil {
		return false, err
	}
	return held, nil
}

func (s *IAMPGStore) ListCapabilities(ctx context.Context, principalID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
	SELECT capability
	FROM iam.principal_capabilities
	WHERE principal_id = $1
	ORDER BY capability ASC
	`, principalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var capability string
		if err := rows.Scan(&capability); err != nil {
			return nil, err
		}
		out = append(out, capability)
	}
	return out, rows.Err()
}
