// Package backend models the GraphContext collaborator: the thin façade
// over a live Vulkan device that the frame-graph core consumes but does
// not construct. Building a real vk.Device (instance/surface/swapchain
// selection) is out of scope for this library; callers supply a Context.
package backend

import vk "github.com/goki/vulkan"

// Context is the set of device-level handles and queries the frame-graph
// core needs. It is intentionally thin: it does not own
// instance/surface/swapchain selection.
type Context struct {
	Device           vk.Device
	Allocator        *vk.AllocationCallbacks
	PipelineCache    vk.PipelineCache
	MemoryProperties vk.PhysicalDeviceMemoryProperties

	// TimestampPeriod is properties.limits.timestampPeriod, consumed by
	// record.Timer to turn GPU query ticks into durations.
	TimestampPeriod float32

	// SeparateDepthStencilLayouts mirrors the device feature of the same
	// name; when false, RecordContext widens depth-only/stencil-only
	// barriers on depth-stencil formats to depth|stencil.
	SeparateDepthStencilLayouts bool

	// BeginDebugLabel/EndDebugLabel and RegisterObjectName are optional;
	// nil means no debug labelling is wired up.
	BeginDebugLabel    func(cb vk.CommandBuffer, name string)
	EndDebugLabel      func(cb vk.CommandBuffer)
	RegisterObjectName func(handle uint64, objType vk.ObjectType, name string)
}

// DeduceMemoryType ports VulkanContext.FindMemoryIndex: it walks the
// device's memory types looking for one whose type-bit is set in typeBits
// and whose property flags are a superset of required.
func (c *Context) DeduceMemoryType(typeBits uint32, required vk.MemoryPropertyFlags) (uint32, bool) {
	c.MemoryProperties.Deref()
	count := int(c.MemoryProperties.MemoryTypeCount)
	for i := 0; i < count; i++ {
		memType := c.MemoryProperties.MemoryTypes[i]
		memType.Deref()
		if typeBits&(1<<uint(i)) != 0 && (vk.MemoryPropertyFlags(memType.PropertyFlags)&required) == required {
			return uint32(i), true
		}
	}
	return 0, false
}

func (c *Context) beginLabel(cb vk.CommandBuffer, name string) {
	if c.BeginDebugLabel != nil {
		c.BeginDebugLabel(cb, name)
	}
}

func (c *Context) endLabel(cb vk.CommandBuffer) {
	if c.EndDebugLabel != nil {
		c.EndDebugLabel(cb)
	}
}

// BeginDebugBlock and EndDebugBlock wrap the optional debug-label hooks so
// callers in record/ and runnable/ don't need to nil-check themselves.
func (c *Context) BeginDebugBlock(cb vk.CommandBuffer, name string) { c.beginLabel(cb, name) }
func (c *Context) EndDebugBlock(cb vk.CommandBuffer)                { c.endLabel(cb) }
