package ratelimiter

import (
	"testing"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	if _, ok := registry.Lookup("non-existent"); ok {
		t.Error("expected no limiter for unknown model")
	}

	first := New(100, 10)
	registry.Set("flux-schnell", first)

	got, ok := registry.Lookup("flux-schnell")
	if !ok {
		t.Fatal("expected limiter after Set")
	}
	if got != first {
		t.Error("retrieved limiter does not match set limiter")
	}

	second := New(200, 20)
	registry.Set("flux-schnell", second)
	got, _ = registry.Lookup("flux-schnell")
	if got != second {
		t.Error("retrieved limiter does not match overwritten limiter")
	}

	registry.Set("flux-schnell", nil)
	if _, ok := registry.Lookup("flux-schnell"); ok {
		t.Error("setting a nil limiter should remove the entry")
	}

	registry.Set("flux-dev", first)
	registry.Remove("flux-dev")
	if _, ok := registry.Lookup("flux-dev"); ok {
		t.Error("Remove should drop the limiter")
	}
}
