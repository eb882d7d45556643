package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	adminservices "github.com/cpharmston/fieldlevel/modules/admin/services"
	iamports "github.com/cpharmston/fieldlevel/modules/iam/domain/ports"
	iampersistence "github.com/cpharmston/fieldlevel/modules/iam/infrastructure/persistence"
	"github.com/cpharmston/fieldlevel/pkg/httperr"
	"github.com/cpharmston/fieldlevel/pkg/reqid"
)

// ObjectResolver loads the target object for an edit flow. Implementations
// return a NotFound error for unknown ids.
type ObjectResolver interface {
	ResolveObject(ctx context.Context, model string, objectID string) (any, error)
}

type HandlerOptions struct {
	Registry        *adminservices.Registry
	PrincipalStore  iamports.PrincipalStore
	CapabilityStore iamports.CapabilityStore
	ObjectResolver  ObjectResolver
}

// NewHandlerWithOptions wires the admin API. Stores left nil fall back to a
// shared pgx pool built from the environment DSN.
func NewHandlerWithOptions(opts HandlerOptions) (http.Handler, error) {
	if opts.Registry == nil {
		return nil, errors.New("server: registry required")
	}

	principalStore := opts.PrincipalStore
	capabilityStore := opts.CapabilityStore
	if principalStore == nil || capabilityStore == nil {
		pool, err := pgxpool.New(context.Background(), dbDSNFromEnv())
		if err != nil {
			return nil, err
		}
		pgStore := iampersistence.NewIAMPGStore(pool)
		if principalStore == nil {
			principalStore = pgStore
		}
		if capabilityStore == nil {
			capabilityStore = pgStore
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("GET /admin/api/models", func(w http.ResponseWriter, r *http.Request) {
		handleListModels(w, r, opts.Registry)
	})
	mux.HandleFunc("GET /admin/api/models/{model}/form", func(w http.ResponseWriter, r *http.Request) {
		handleModelForm(w, r, opts.Registry, capabilityStore, opts.ObjectResolver)
	})
	mux.HandleFunc("GET /admin/api/capabilities", func(w http.ResponseWriter, r *http.Request) {
		handleListCapabilities(w, r, capabilityStore)
	})

	return withRequestIDHeader(withPrincipalResolution(principalStore, mux)), nil
}

// withPrincipalResolution resolves the acting principal from the
// X-Principal-ID header. The demo server trusts the header; authentication
// proper is out of scope. Requests without the header proceed anonymous and
// are rejected by handlers that need a principal.
func withPrincipalResolution(store iamports.PrincipalStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principalID := strings.TrimSpace(r.Header.Get("X-Principal-ID"))
		if principalID == "" {
			next.ServeHTTP(w, r)
			return
		}
		rec, err := store.GetPrincipal(r.Context(), principalID)
		if err != nil {
			if httperr.IsNotFound(err) {
				writeError(w, r, http.StatusUnauthorized, "unknown_principal", "unknown principal")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "principal_store_error", err.Error())
			return
		}
		if rec.Status != "" && rec.Status != "active" {
			writeError(w, r, http.StatusForbidden, "principal_inactive", "principal inactive")
			return
		}
		r = r.WithContext(withPrincipal(r.Context(), Principal{
			ID:        rec.ID,
			Email:     rec.Email,
			Superuser: rec.Superuser,
		}))
		next.ServeHTTP(w, r)
	})
}

func withRequestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := reqid.FromHeader(r.Header.Get("X-Request-ID"))
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}
