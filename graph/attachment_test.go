package graph

import (
	"testing"

	"github.com/spaghettifunk/crg/resource"
)

func TestAttachmentEqualComparesPassNameViewFlags(t *testing.T) {
	p := &FramePass{Name: "lighting"}
	a := Attachment{Pass: p, Name: "gbuffer-albedo", View: 1, Flags: Sampled | Input}
	b := a
	if !a.Equal(b) {
		t.Fatal("Equal: identical attachments compared unequal")
	}

	b.View = 2
	if a.Equal(b) {
		t.Fatal("Equal: attachments differing in view compared equal")
	}
}

func TestAttachmentDirectionPredicates(t *testing.T) {
	inout := Attachment{Flags: ColorAttachment | InOut}
	if !inout.IsColourInput() || !inout.IsColourOutput() || !inout.IsColourInOut() {
		t.Fatal("an InOut colour attachment must report both input and output")
	}

	inputOnly := Attachment{Flags: ColorAttachment | Input}
	if !inputOnly.IsColourInput() || inputOnly.IsColourOutput() {
		t.Fatal("an Input-only colour attachment must not report output")
	}
}

func TestResolveViewClampsToLastAliasForOverrunIndex(t *testing.T) {
	a := Attachment{ViewArray: []resource.ImageViewId{1, 2, 3}}
	if got := a.ResolveView(0); got != 1 {
		t.Errorf("ResolveView(0): got %d, want 1", got)
	}
	if got := a.ResolveView(5); got != 3 {
		t.Errorf("ResolveView(5): got %d, want the last alias 3", got)
	}
}

func TestIsDescriptorExcludesAttachmentsAndImplicit(t *testing.T) {
	sampled := Attachment{Flags: Sampled | Input}
	if !sampled.IsDescriptor() {
		t.Error("a sampled attachment must be a descriptor")
	}
	colour := Attachment{Flags: ColorAttachment | Output}
	if colour.IsDescriptor() {
		t.Error("a colour attachment must not be a descriptor")
	}
	implicit := Attachment{Flags: Implicit | Input}
	if implicit.IsDescriptor() {
		t.Error("an implicit attachment must not be a descriptor")
	}
}
