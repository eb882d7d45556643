package services

import (
	"context"

	"github.com/cpharmston/fieldlevel/modules/admin/domain/types"
	"github.com/cpharmston/fieldlevel/pkg/gate"
)

// BuildForm constructs the edit form for obj under the acting request. The
// gate is asked once per declared field (declaration order) and once per
// registered inline (registration order); denied candidates are excluded
// from the form entirely. A nil obj marks the add flow. Gate errors abort
// form construction and propagate unmodified.
func BuildForm(ctx context.Context, admin ModelAdmin, req gate.Request, obj any) (types.Form, error) {
	allowed := make(map[string]struct{}, len(admin.Model.Fields))
	fields := make([]types.Field, 0, len(admin.Model.Fields))
	for _, field := range admin.Model.Fields {
		ok, err := admin.Gate.CanChangeField(ctx, req, obj, field.Name)
		if err != nil {
			return types.Form{}, err
		}
		if !ok {
			continue
		}
		allowed[field.Name] = struct{}{}
		fields = append(fields, field)
	}

	inlines := make([]types.Inline, 0, len(admin.Model.Inlines))
	for _, inline := range admin.Model.Inlines {
		ok, err := admin.Gate.CanChangeInline(ctx, req, obj, inline.Name)
		if err != nil {
			return types.Form{}, err
		}
		if !ok {
			continue
		}
		inlines = append(inlines, inline)
	}

	return types.Form{
		Model:     admin.Model.Name,
		Fields:    fields,
		Fieldsets: filterFieldsets(effectiveFieldsets(admin.Model), allowed),
		Inlines:   inlines,
	}, nil
}

// BuildFieldsets returns only the fieldset view of the form.
func BuildFieldsets(ctx context.Context, admin ModelAdmin, req gate.Request, obj any) ([]types.Fieldset, error) {
	form, err := BuildForm(ctx, admin, req, obj)
	if err != nil {
		return nil, err
	}
	return form.Fieldsets, nil
}

// effectiveFieldsets returns the declared fieldsets, or a single unnamed
// fieldset over the declared fields when none are declared.
func effectiveFieldsets(model types.ModelDescriptor) []types.Fieldset {
	if len(model.Fieldsets) > 0 {
		return model.Fieldsets
	}
	return []types.Fieldset{{Fields: model.FieldNames()}}
}

// filterFieldsets copies the fieldsets, drops fields outside the allowed
// set, then drops fieldsets left empty.
func filterFieldsets(fieldsets []types.Fieldset, allowed map[string]struct{}) []types.Fieldset {
	out := make([]types.Fieldset, 0, len(fieldsets))
	for _, fs := range fieldsets {
		kept := make([]string, 0, len(fs.Fields))
		for _, name := range fs.Fields {
			if _, ok := allowed[name]; ok {
				kept = append(kept, name)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out = append(out, types.Fieldset{Label: fs.Label, Fields: kept})
	}
	return out
}
