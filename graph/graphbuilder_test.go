package graph

import (
	"testing"

	"github.com/spaghettifunk/crg/resource"
)

func TestBuildGraphLinearChainOrdersRootFirst(t *testing.T) {
	h, view := newTestHandlerWithView(t, 1)

	depth := newFramePass("depth-prepass", nil, nil)
	depth.Attachments = append(depth.Attachments, &Attachment{Pass: depth, Name: "depth", View: view, Flags: DepthAttachment | Output})

	opaque := newFramePass("opaque", nil, nil)
	opaque.Attachments = append(opaque.Attachments, &Attachment{Pass: opaque, Name: "depth", View: view, Flags: DepthAttachment | Input})

	deps, err := buildDependencies(h, []*FramePass{depth, opaque})
	if err != nil {
		t.Fatalf("buildDependencies: unexpected error: %v", err)
	}

	root, err := buildGraph([]*FramePass{depth, opaque}, deps)
	if err != nil {
		t.Fatalf("buildGraph: unexpected error: %v", err)
	}
	if len(root.Roots) != 1 || root.Roots[0].Pass != depth {
		t.Fatalf("buildGraph: expected depth-prepass to be the sole root, got %+v", root.Roots)
	}

	order := root.Flatten()
	if len(order) != 2 {
		t.Fatalf("Flatten: expected 2 nodes, got %d", len(order))
	}
	if order[0].Pass != depth || order[1].Pass != opaque {
		t.Fatalf("Flatten: expected [depth-prepass, opaque] order, got [%s, %s]", order[0].Pass.Name, order[1].Pass.Name)
	}
}

func TestBuildGraphDiamondVisitsMergeNodeOnce(t *testing.T) {
	h := resource.NewHandler()
	albedoImg := h.CreateImageId(resource.ImageData{Name: "gbuffer-albedo", MipLevels: 1, ArrayLayers: 1})
	normalImg := h.CreateImageId(resource.ImageData{Name: "gbuffer-normal", MipLevels: 1, ArrayLayers: 1})
	albedoView := h.CreateViewId(resource.ImageViewData{Image: albedoImg, SubresourceRange: resource.ImageSubresourceRange{LevelCount: 1, LayerCount: 1}})
	normalView := h.CreateViewId(resource.ImageViewData{Image: normalImg, SubresourceRange: resource.ImageSubresourceRange{LevelCount: 1, LayerCount: 1}})

	geometry := newFramePass("geometry", nil, nil)
	geometry.Attachments = append(geometry.Attachments,
		&Attachment{Pass: geometry, Name: "albedo", View: albedoView, Flags: ColorAttachment | Output},
		&Attachment{Pass: geometry, Name: "normal", View: normalView, Flags: ColorAttachment | Output},
	)

	albedoPass := newFramePass("albedo-blur", nil, nil)
	albedoPass.Attachments = append(albedoPass.Attachments, &Attachment{Pass: albedoPass, Name: "albedo", View: albedoView, Flags: Sampled | Input})

	normalPass := newFramePass("normal-blur", nil, nil)
	normalPass.Attachments = append(normalPass.Attachments, &Attachment{Pass: normalPass, Name: "normal", View: normalView, Flags: Sampled | Input})

	lighting := newFramePass("lighting", nil, nil)
	lighting.Attachments = append(lighting.Attachments,
		&Attachment{Pass: lighting, Name: "albedo", View: albedoView, Flags: Sampled | Input},
		&Attachment{Pass: lighting, Name: "normal", View: normalView, Flags: Sampled | Input},
	)

	passes := []*FramePass{geometry, albedoPass, normalPass, lighting}
	deps, err := buildDependencies(h, passes)
	if err != nil {
		t.Fatalf("buildDependencies: unexpected error: %v", err)
	}

	root, err := buildGraph(passes, deps)
	if err != nil {
		t.Fatalf("buildGraph: unexpected error: %v", err)
	}

	order := root.Flatten()
	seen := map[*FramePass]int{}
	for _, n := range order {
		seen[n.Pass]++
	}
	if seen[lighting] != 1 {
		t.Fatalf("Flatten: expected the merge pass to appear exactly once, got %d", seen[lighting])
	}
	if len(order) != len(passes) {
		t.Fatalf("Flatten: expected %d distinct nodes, got %d", len(passes), len(order))
	}
}
