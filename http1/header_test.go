package http1

import "testing"

func TestHeaderCanonicalization(t *testing.T) {
	h := Header{}
	h.Add("x-foo", "a")
	h.Add("X-Foo", "b")
	if got := h.Get("X-FOO"); got != "a" {
		t.Fatalf("Get canonical = %q, want %q", got, "a")
	}
	if got := len(h["X-Foo"]); got != 2 {
		t.Fatalf("len values = %d, want 2", got)
	}
	h.Set("content-type", "text/plain")
	if got := h.Get("Content-Type"); got != "text/plain" {
		t.Fatalf("content-type = %q", got)
	}
	h.Del("x-foo")
	if got := h.Get("X-Foo"); got != "" {
		t.Fatalf("after Del, got %q, want empty", got)
	}
}

func TestHeaderClone(t *testing.T) {
	h := Header{}
	h.Add("X-A", "1")
	c := h.Clone()
	c.Add("X-A", "2")
	c.Set("X-B", "3")
	if got := len(h["X-A"]); got != 1 {
		t.Fatalf("clone mutation leaked: %d values", got)
	}
	if got := h.Get("X-B"); got != "" {
		t.Fatalf("clone key leaked: %q", got)
	}
	if Header(nil).Clone() != nil {
		t.Fatalf("nil Clone should stay nil")
	}
}
