package gate

import (
	"context"
	"testing"
)

func TestCELFieldRule_SuperuserGate(t *testing.T) {
	rule, err := CELFieldRule(`ctx["field"] != "status" || ctx["superuser"] == "true"`)
	if err != nil {
		t.Fatalf("compile err=%v", err)
	}
	g := Gate{FieldRule: rule}

	ok, err := g.CanChangeField(context.Background(), Request{Principal: Principal{ID: "u1"}}, nil, "status")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if ok {
		t.Fatal("non-superuser should be denied")
	}

	ok, err = g.CanChangeField(context.Background(), Request{Principal: Principal{ID: "root", Superuser: true}}, nil, "status")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("superuser should be allowed")
	}

	ok, err = g.CanChangeField(context.Background(), Request{Principal: Principal{ID: "u1"}}, nil, "title")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("other fields should pass")
	}
}

func TestCELFieldRule_HasObject(t *testing.T) {
	rule, err := CELFieldRule(`ctx["field"] != "approved" || ctx["has_object"] == "true"`)
	if err != nil {
		t.Fatalf("compile err=%v", err)
	}
	g := Gate{FieldRule: rule}
	req := Request{Principal: Principal{ID: "u1"}}

	ok, err := g.CanChangeField(context.Background(), req, nil, "approved")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if ok {
		t.Fatal("creation flow should deny approved")
	}

	ok, err = g.CanChangeField(context.Background(), req, &article{}, "approved")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("edit flow should allow approved")
	}
}

func TestCELInlineRule(t *testing.T) {
	rule, err := CELInlineRule(`ctx["inline"] != "MetaTagInline" || ctx["principal_id"] == "meta-editor"`)
	if err != nil {
		t.Fatalf("compile err=%v", err)
	}
	g := Gate{InlineRule: rule}

	ok, err := g.CanChangeInline(context.Background(), Request{Principal: Principal{ID: "meta-editor"}}, nil, "MetaTagInline")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("meta-editor should see the inline")
	}

	ok, err = g.CanChangeInline(context.Background(), Request{Principal: Principal{ID: "viewer"}}, nil, "MetaTagInline")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if ok {
		t.Fatal("viewer should not see the inline")
	}
}

func TestCELFieldRule_CompileErrors(t *testing.T) {
	if _, err := CELFieldRule(""); err == nil {
		t.Fatal("expected error for empty expression")
	}
	if _, err := CELFieldRule(`ctx["field"`); err == nil {
		t.Fatal("expected error for syntax error")
	}
	if _, err := CELFieldRule(`ctx["field"]`); err == nil {
		t.Fatal("expected error for non-bool expression")
	}
}

func TestCELFieldRule_ProgramCacheReuse(t *testing.T) {
	expr := `ctx["superuser"] == "true"`
	if _, err := CELFieldRule(expr); err != nil {
		t.Fatalf("compile err=%v", err)
	}
	if _, ok := celRuleProgramCache.Load(expr); !ok {
		t.Fatal("expected compiled program in cache")
	}
	// Second construction must hit the cache, not recompile.
	rule, err := CELFieldRule(expr)
	if err != nil {
		t.Fatalf("compile err=%v", err)
	}
	ok, err := rule(context.Background(), Request{Principal: Principal{Superuser: true}}, nil, "any")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("cached program should evaluate correctly")
	}
}
