package reqid

import (
	"testing"

	"github.com/google/uuid"
)

func TestNew(t *testing.T) {
	got := New()
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("expected parseable uuid, got %v", err)
	}
	if got == New() {
		t.Fatal("expected distinct ids")
	}
}

func TestFromHeader(t *testing.T) {
	known := "6d73e345-ae88-4e9d-a2ed-89f292e94f7b"
	if got := FromHeader(" " + known + " "); got != known {
		t.Fatalf("got %q", got)
	}
	if got := FromHeader("not-a-uuid"); got == "not-a-uuid" {
		t.Fatal("invalid header should be replaced")
	} else if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("replacement should be a uuid, got %v", err)
	}
	if got := FromHeader(""); got == "" {
		t.Fatal("empty header should be replaced")
	}
}
