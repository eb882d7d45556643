package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cpharmston/fieldlevel/internal/routing"
	admintypes "github.com/cpharmston/fieldlevel/modules/admin/domain/types"
	adminservices "github.com/cpharmston/fieldlevel/modules/admin/services"
	iamports "github.com/cpharmston/fieldlevel/modules/iam/domain/ports"
	"github.com/cpharmston/fieldlevel/pkg/gate"
	"github.com/cpharmston/fieldlevel/pkg/httperr"
)

// ObjectRef is the opaque target handed to gate rules when no object
// resolver is configured: rules can still distinguish add from edit flows.
type ObjectRef struct {
	Model string
	ID    string
}

type modelListResponse struct {
	Models []string `json:"models"`
}

type modelFormResponse struct {
	RequestID string          `json:"request_id"`
	Principal string          `json:"principal"`
	ObjectID  string          `json:"object_id,omitempty"`
	Form      admintypes.Form `json:"form"`
}

func handleListModels(w http.ResponseWriter, r *http.Request, registry *adminservices.Registry) {
	writeJSON(w, http.StatusOK, modelListResponse{Models: registry.Models()})
}

func handleModelForm(w http.ResponseWriter, r *http.Request, registry *adminservices.Registry, capabilities iamports.CapabilityStore, resolver ObjectResolver) {
	model := strings.TrimSpace(r.PathValue("model"))
	admin, ok := registry.Lookup(model)
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown_model", "unknown model")
		return
	}

	principal, ok := currentPrincipal(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "principal_required", "principal required")
		return
	}

	// Absent object marks the add flow; the gate receives nil.
	var obj any
	objectID := strings.TrimSpace(r.URL.Query().Get("object"))
	if objectID != "" {
		if resolver != nil {
			resolved, err := resolver.ResolveObject(r.Context(), model, objectID)
			if err != nil {
				if httperr.IsNotFound(err) {
					writeError(w, r, http.StatusNotFound, "unknown_object", "unknown object")
					return
				}
				writeError(w, r, http.StatusInternalServerError, "object_resolve_error", err.Error())
				return
			}
			obj = resolved
		} else {
			obj = &ObjectRef{Model: model, ID: objectID}
		}
	}

	req := gate.Request{
		Principal: gate.Principal{
			ID:        principal.ID,
			Email:     principal.Email,
			Superuser: principal.Superuser,
		},
		Capabilities: capabilities,
		TraceID:      currentRequestID(r.Context()),
	}

	form, err := adminservices.BuildForm(r.Context(), admin, req, obj)
	if err != nil {
		// Rule errors surface as a full request failure; the gate adds no
		// wrapping or recovery.
		writeError(w, r, http.StatusInternalServerError, "form_build_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, modelFormResponse{
		RequestID: currentRequestID(r.Context()),
		Principal: principal.ID,
		ObjectID:  objectID,
		Form:      form,
	})
}

type capabilityListResponse struct {
	Principal    string   `json:"principal"`
	Superuser    bool     `json:"superuser"`
	Capabilities []string `json:"capabilities"`
}

func handleListCapabilities(w http.ResponseWriter, r *http.Request, capabilities iamports.CapabilityStore) {
	principal, ok := currentPrincipal(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "principal_required", "principal required")
		return
	}
	caps, err := capabilities.ListCapabilities(r.Context(), principal.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "capability_store_error", err.Error())
		return
	}
	if caps == nil {
		caps = []string{}
	}
	writeJSON(w, http.StatusOK, capabilityListResponse{
		Principal:    principal.ID,
		Superuser:    principal.Superuser,
		Capabilities: caps,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	routing.WriteError(w, r, status, code, message)
}
