package runnable

import (
	"testing"

	"github.com/spaghettifunk/crg/graph"
	"github.com/spaghettifunk/crg/resource"
)

func TestNewBaseDefaultsMaxPassCountToOne(t *testing.T) {
	b := NewBase(&graph.FramePass{Name: "test-pass"}, nil, nil, Callbacks{}, Config{})
	if b.cfg.MaxPassCount != 1 {
		t.Errorf("MaxPassCount: got %d, want default of 1", b.cfg.MaxPassCount)
	}
}

func TestIsEnabledDefaultsTrueWithoutCallback(t *testing.T) {
	b := NewBase(&graph.FramePass{Name: "test-pass"}, nil, nil, Callbacks{}, Config{})
	if !b.IsEnabled() {
		t.Error("IsEnabled: expected true when no IsEnabled callback was supplied")
	}
}

func TestIsEnabledDelegatesToCallback(t *testing.T) {
	b := NewBase(&graph.FramePass{Name: "test-pass"}, nil, nil, Callbacks{
		IsEnabled: func() bool { return false },
	}, Config{})
	if b.IsEnabled() {
		t.Error("IsEnabled: expected false when the callback reports disabled")
	}
}

func TestSetTransitionStoresPerPassIndexAndView(t *testing.T) {
	b := NewBase(&graph.FramePass{Name: "test-pass"}, nil, nil, Callbacks{}, Config{})
	var viewA, viewB resource.ImageViewId = 1, 2
	want := LayoutTransition{Needed: resource.Undefined}

	b.SetTransition(0, viewA, want)
	b.SetTransition(1, viewB, want)

	if got := b.transitions[0][viewA]; got != want {
		t.Errorf("transitions[0][viewA]: got %+v, want %+v", got, want)
	}
	if _, ok := b.transitions[0][viewB]; ok {
		t.Error("transitions[0] should not contain an entry for viewB")
	}
	if _, ok := b.transitions[1][viewA]; ok {
		t.Error("transitions[1] should not contain an entry for viewA")
	}
}
