package resource

import vk "github.com/goki/vulkan"

// LayoutState is the running {layout, access, stage} triple of an image
// subresource, per §3.
type LayoutState struct {
	Layout vk.ImageLayout
	Access vk.AccessFlags
	Stage  vk.PipelineStageFlags
}

// Undefined is the LayoutState of a subresource that has never been
// transitioned.
var Undefined = LayoutState{Layout: vk.ImageLayoutUndefined}

// Equal reports whether two layout states describe the identical
// transition target (used to decide whether a barrier can be elided).
func (s LayoutState) Equal(o LayoutState) bool {
	return s.Layout == o.Layout && s.Access == o.Access && s.Stage == o.Stage
}

// AccessState is the running {access, stage} pair of a buffer
// subresource.
type AccessState struct {
	Access vk.AccessFlags
	Stage  vk.PipelineStageFlags
}

func (s AccessState) Equal(o AccessState) bool {
	return s.Access == o.Access && s.Stage == o.Stage
}

// mipStates is a sparse map from mip level to LayoutState.
type mipStates map[uint32]LayoutState

// LayerLayoutStates is the per-image fine-grained layout table: layer ->
// (mip -> LayoutState), per §3 and §9's "layout-state map structure".
type LayerLayoutStates struct {
	layers map[uint32]mipStates
}

// NewLayerLayoutStates creates an empty table.
func NewLayerLayoutStates() *LayerLayoutStates {
	return &LayerLayoutStates{layers: map[uint32]mipStates{}}
}

// Set records the layout state for every (layer, mip) pair in range.
func (l *LayerLayoutStates) Set(rng ImageSubresourceRange, state LayoutState) {
	for layer := rng.BaseArrayLayer; layer < rng.BaseArrayLayer+rng.LayerCount; layer++ {
		mips, ok := l.layers[layer]
		if !ok {
			mips = mipStates{}
			l.layers[layer] = mips
		}
		for mip := rng.BaseMipLevel; mip < rng.BaseMipLevel+rng.LevelCount; mip++ {
			mips[mip] = state
		}
	}
}

// Get returns the combined layout state over range: the layout/layout of
// the first populated entry (all entries in a single transition share the
// same layout by construction) and the OR of every access mask touched,
// per §9's merge-on-query rule. ok is false when range has never been
// touched.
func (l *LayerLayoutStates) Get(rng ImageSubresourceRange) (LayoutState, bool) {
	var result LayoutState
	found := false
	for layer := rng.BaseArrayLayer; layer < rng.BaseArrayLayer+rng.LayerCount; layer++ {
		mips, ok := l.layers[layer]
		if !ok {
			continue
		}
		for mip := rng.BaseMipLevel; mip < rng.BaseMipLevel+rng.LevelCount; mip++ {
			state, ok := mips[mip]
			if !ok {
				continue
			}
			if !found {
				result = state
				found = true
				continue
			}
			result.Access |= state.Access
			result.Stage |= state.Stage
		}
	}
	return result, found
}
