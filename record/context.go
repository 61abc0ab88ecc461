// Package record implements the barrier-emitting RecordContext: the
// object RunnablePass implementations use to query and transition image
// and buffer subresource states as they fill a command buffer, per §4.5.
package record

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/resource"
)

// PipelineState is the running {stage, access} pair tracked across a
// frame's worth of passes, used to pick the correct source stage for a
// barrier when the declared attachment alone doesn't carry it (e.g. the
// very first use of a resource).
type PipelineState struct {
	Stage  vk.PipelineStageFlags
	Access vk.AccessFlags
}

// Context is the per-run record-time state: the live layout/access table
// for every image and buffer subresource touched so far, plus the
// previous/current/next PipelineState triple used to resolve missing
// source stages across a frame's worth of passes.
type Context struct {
	handler *resource.Handler
	backend *backend.Context

	images  map[resource.ImageId]*resource.LayerLayoutStates
	buffers map[vk.Buffer]resource.AccessState

	prevPipelineState PipelineState
	currPipelineState PipelineState
	nextPipelineState PipelineState

	implicit []ImplicitTransition
}

// ImplicitTransition is a deferred transition a disabled pass still has
// to perform so a neighbour observes the layout it expects, per §4.4.
type ImplicitTransition struct {
	View   resource.ImageViewId
	Action func(ctx *Context, cb vk.CommandBuffer, passIndex uint32)
}

// New creates an empty record context bound to handler and the device
// features in ctx (used, for instance, to decide whether a barrier's
// aspect mask needs widening on devices without separate depth/stencil
// layouts).
func New(handler *resource.Handler, ctx *backend.Context) *Context {
	return &Context{
		handler: handler,
		backend: ctx,
		images:  map[resource.ImageId]*resource.LayerLayoutStates{},
		buffers: map[vk.Buffer]resource.AccessState{},
	}
}

// Handler returns the resource handler this context resolves ids against.
func (c *Context) Handler() *resource.Handler { return c.handler }

// SetNextPipelineState records the PipelineState the next pass in
// recording order expects to run at, rotating prev <- curr <- next.
func (c *Context) SetNextPipelineState(state PipelineState) {
	c.prevPipelineState = c.currPipelineState
	c.currPipelineState = c.nextPipelineState
	c.nextPipelineState = state
}

func (c *Context) imageStates(image resource.ImageId) *resource.LayerLayoutStates {
	states, ok := c.images[image]
	if !ok {
		states = resource.NewLayerLayoutStates()
		c.images[image] = states
	}
	return states
}

// SetLayoutState records the layout state of view's subresource range.
func (c *Context) SetLayoutState(view resource.ImageViewId, state resource.LayoutState) {
	data, ok := c.handler.ViewData(view)
	if !ok {
		return
	}
	c.imageStates(data.Image).Set(data.SubresourceRange, state)
}

// GetLayoutState returns the current layout state of view's subresource
// range, or resource.Undefined when it has never been transitioned.
func (c *Context) GetLayoutState(view resource.ImageViewId) resource.LayoutState {
	data, ok := c.handler.ViewData(view)
	if !ok {
		return resource.Undefined
	}
	state, ok := c.imageStates(data.Image).Get(data.SubresourceRange)
	if !ok {
		return resource.Undefined
	}
	return state
}

// SetAccessState records buffer's access state, tracked per buffer handle
// (not per subresource range).
func (c *Context) SetAccessState(buffer vk.Buffer, state resource.AccessState) {
	c.buffers[buffer] = state
}

// GetAccessState returns buffer's current access state.
func (c *Context) GetAccessState(buffer vk.Buffer) resource.AccessState {
	return c.buffers[buffer]
}

// RegisterImplicitTransition queues a transition to be executed later via
// RunImplicitTransition, per §4.4's implicit-transitions-for-disabled-
// passes rule.
func (c *Context) RegisterImplicitTransition(view resource.ImageViewId, action func(ctx *Context, cb vk.CommandBuffer, passIndex uint32)) {
	if action == nil {
		action = func(*Context, vk.CommandBuffer, uint32) {}
	}
	c.implicit = append(c.implicit, ImplicitTransition{View: view, Action: action})
}

// RunImplicitTransition runs every implicit transition registered for
// view, in registration order, then removes them: each entry fires at
// most once, per §4.5.
func (c *Context) RunImplicitTransition(cb vk.CommandBuffer, passIndex uint32, view resource.ImageViewId) {
	remaining := c.implicit[:0]
	for _, t := range c.implicit {
		if t.View == view {
			t.Action(c, cb, passIndex)
			continue
		}
		remaining = append(remaining, t)
	}
	c.implicit = remaining
}
