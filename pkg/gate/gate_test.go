package gate

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type staticCapabilities map[string][]string

func (s staticCapabilities) HasCapability(_ context.Context, principalID string, capability string) (bool, error) {
	for _, c := range s[principalID] {
		if c == capability {
			return true, nil
		}
	}
	return false, nil
}

type failingCapabilities struct{ err error }

func (f failingCapabilities) HasCapability(context.Context, string, string) (bool, error) {
	return false, f.err
}

type article struct {
	Title    string
	Approved bool
}

func TestGate_DefaultPermissive(t *testing.T) {
	g := Gate{}
	req := Request{Principal: Principal{ID: "u1"}}

	for _, field := range []string{"title", "approved", "no_such_field", ""} {
		ok, err := g.CanChangeField(context.Background(), req, nil, field)
		if err != nil {
			t.Fatalf("field=%q err=%v", field, err)
		}
		if !ok {
			t.Fatalf("field=%q expected permissive default", field)
		}
	}
	ok, err := g.CanChangeInline(context.Background(), req, &article{}, "MetaTagInline")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("expected permissive default for inline")
	}
}

func TestSuperuserOnly(t *testing.T) {
	g := Gate{FieldRule: SuperuserOnly("status")}
	obj := &article{Title: "hello"}

	ok, err := g.CanChangeField(context.Background(), Request{Principal: Principal{ID: "u1"}}, obj, "status")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if ok {
		t.Fatal("non-superuser should be denied on status")
	}

	ok, err = g.CanChangeField(context.Background(), Request{Principal: Principal{ID: "root", Superuser: true}}, obj, "status")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("superuser should be allowed on status")
	}

	ok, err = g.CanChangeField(context.Background(), Request{Principal: Principal{ID: "u1"}}, obj, "title")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("unlisted field should be allowed regardless of principal")
	}
}

func TestRequireCapabilityOnObject(t *testing.T) {
	caps := staticCapabilities{"editor": {"can_approve"}}
	g := Gate{FieldRule: RequireCapabilityOnObject("approved", "can_approve")}
	reqEditor := Request{Principal: Principal{ID: "editor"}, Capabilities: caps}
	reqViewer := Request{Principal: Principal{ID: "viewer"}, Capabilities: caps}

	ok, err := g.CanChangeField(context.Background(), reqEditor, nil, "approved")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if ok {
		t.Fatal("nil object must deny even with the capability")
	}

	ok, err = g.CanChangeField(context.Background(), reqEditor, &article{}, "approved")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("capability holder with object should be allowed")
	}

	ok, err = g.CanChangeField(context.Background(), reqViewer, &article{}, "approved")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if ok {
		t.Fatal("principal without capability should be denied")
	}

	ok, err = g.CanChangeField(context.Background(), reqViewer, nil, "title")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("other fields should be unaffected")
	}
}

func TestInlineRequireCapability(t *testing.T) {
	caps := staticCapabilities{"meta-editor": {"can_edit_meta"}}
	g := Gate{InlineRule: InlineRequireCapability("MetaTagInline", "can_edit_meta")}
	obj := &article{}

	ok, err := g.CanChangeInline(context.Background(), Request{Principal: Principal{ID: "meta-editor"}, Capabilities: caps}, obj, "MetaTagInline")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("capability holder should see the inline")
	}

	ok, err = g.CanChangeInline(context.Background(), Request{Principal: Principal{ID: "viewer"}, Capabilities: caps}, obj, "MetaTagInline")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if ok {
		t.Fatal("principal without capability should not see the inline")
	}

	ok, err = g.CanChangeInline(context.Background(), Request{Principal: Principal{ID: "viewer"}, Capabilities: caps}, obj, "CommentInline")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("other inlines should be unaffected")
	}
}

func TestRequestHasCapability_SuperuserShortcut(t *testing.T) {
	req := Request{Principal: Principal{ID: "root", Superuser: true}, Capabilities: failingCapabilities{err: errors.New("store down")}}
	ok, err := req.HasCapability(context.Background(), "anything")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("superuser holds every capability without a store round-trip")
	}
}

func TestGate_CapabilityErrorPropagates(t *testing.T) {
	storeErr := errors.New("capability store unavailable")
	g := Gate{FieldRule: RequireCapability("approved", "can_approve")}
	req := Request{Principal: Principal{ID: "u1"}, Capabilities: failingCapabilities{err: storeErr}}

	_, err := g.CanChangeField(context.Background(), req, &article{}, "approved")
	if !errors.Is(err, storeErr) {
		t.Fatalf("err=%v, want the store error unmodified", err)
	}
}

func TestAllFieldRules_FirstDenyWins(t *testing.T) {
	rule := AllFieldRules(
		nil,
		SuperuserOnly("status"),
		RequireCapability("approved", "can_approve"),
	)
	g := Gate{FieldRule: rule}
	req := Request{Principal: Principal{ID: "u1"}, Capabilities: staticCapabilities{}}

	ok, err := g.CanChangeField(context.Background(), req, &article{}, "status")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if ok {
		t.Fatal("status should be denied by the superuser rule")
	}

	ok, err = g.CanChangeField(context.Background(), req, &article{}, "title")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if !ok {
		t.Fatal("unrestricted field should pass every rule")
	}
}

func TestGate_Deterministic(t *testing.T) {
	caps := staticCapabilities{"editor": {"can_approve"}}
	g := Gate{FieldRule: RequireCapability("approved", "can_approve")}
	req := Request{Principal: Principal{ID: "editor"}, Capabilities: caps}
	obj := &article{}

	first, err := g.CanChangeField(context.Background(), req, obj, "approved")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	for range 50 {
		got, err := g.CanChangeField(context.Background(), req, obj, "approved")
		if err != nil {
			t.Fatalf("err=%v", err)
		}
		if got != first {
			t.Fatal("identical inputs must yield identical decisions")
		}
	}
}

func TestGate_ConcurrentRequestsDoNotInterfere(t *testing.T) {
	caps := staticCapabilities{"editor": {"can_approve"}}
	g := Gate{FieldRule: RequireCapability("approved", "can_approve")}
	obj := &article{}

	var wg sync.WaitGroup
	errs := make(chan error, 200)
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := g.CanChangeField(context.Background(), Request{Principal: Principal{ID: "editor"}, Capabilities: caps}, obj, "approved")
			if err != nil {
				errs <- err
				return
			}
			if !ok {
				errs <- errors.New("editor denied")
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := g.CanChangeField(context.Background(), Request{Principal: Principal{ID: "viewer"}, Capabilities: caps}, obj, "approved")
			if err != nil {
				errs <- err
				return
			}
			if ok {
				errs <- errors.New("viewer allowed")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("cross-talk between concurrent requests: %v", err)
	}
}
