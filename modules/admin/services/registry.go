package services

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/cpharmston/fieldlevel/modules/admin/domain/types"
	"github.com/cpharmston/fieldlevel/pkg/gate"
)

// ModelAdmin binds one model descriptor to the gate that filters its edit
// form. The zero-value gate is fully permissive.
type ModelAdmin struct {
	Model types.ModelDescriptor
	Gate  gate.Gate
}

// Registry holds the registered model admins. Registration is explicit;
// there is no ambient global registry.
type Registry struct {
	mu     sync.RWMutex
	admins map[string]ModelAdmin
}

func NewRegistry() *Registry {
	return &Registry{admins: map[string]ModelAdmin{}}
}

func (r *Registry) Register(admin ModelAdmin) error {
	name := strings.TrimSpace(admin.Model.Name)
	if name == "" {
		return errors.New("admin: model name required")
	}
	if len(admin.Model.Fields) == 0 {
		return errors.New("admin: model declares no fields")
	}
	seen := make(map[string]struct{}, len(admin.Model.Fields))
	for _, f := range admin.Model.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return errors.New("admin: field name required")
		}
		if _, dup := seen[f.Name]; dup {
			return errors.New("admin: duplicate field " + f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.admins[name]; dup {
		return errors.New("admin: model already registered: " + name)
	}
	r.admins[name] = admin
	return nil
}

func (r *Registry) Lookup(model string) (ModelAdmin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	admin, ok := r.admins[model]
	return admin, ok
}

// Models returns the registered model names, sorted.
func (r *Registry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.admins))
	for name := range r.admins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
