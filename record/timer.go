package record

import (
	"time"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/core"
)

// Timer tracks a pass's CPU and GPU execution time. It is gated by
// backend.Context.TimestampPeriod: a zero period
// (no VK_QUERY_TYPE_TIMESTAMP support, or the caller opted out) leaves GPU
// timing permanently at zero instead of issuing queries against an
// unsupported feature.
type Timer struct {
	ctx   *backend.Context
	name  string
	pool  vk.QueryPool
	count uint32

	cpuStart time.Time
	cpuTime  time.Duration
	gpuTime  time.Duration
}

// NewTimer creates a GPU/CPU timer for a pass run passesCount times per
// frame (>1 for e.g. a shadow-cascade pass recorded once per cascade).
func NewTimer(ctx *backend.Context, name string, passesCount uint32) (*Timer, error) {
	t := &Timer{ctx: ctx, name: name, count: passesCount}
	if ctx.TimestampPeriod == 0 {
		return t, nil
	}

	createInfo := vk.QueryPoolCreateInfo{
		SType:      vk.StructureTypeQueryPoolCreateInfo,
		QueryType:  vk.QueryTypeTimestamp,
		QueryCount: passesCount * 2,
	}
	var pool vk.QueryPool
	if res := vk.CreateQueryPool(ctx.Device, &createInfo, ctx.Allocator, &pool); res != vk.Success {
		core.LogError("Timer %q: vkCreateQueryPool failed with result %d", name, res)
		return nil, core.ErrUnknown
	}
	t.pool = pool
	return t, nil
}

// Destroy releases the underlying VkQueryPool, if one was created.
func (t *Timer) Destroy() {
	if t.pool != nil {
		vk.DestroyQueryPool(t.ctx.Device, t.pool, t.ctx.Allocator)
		t.pool = nil
	}
}

// Start begins the CPU-side measurement for this frame and resets the
// accumulated GPU time.
func (t *Timer) Start() {
	t.cpuStart = time.Now()
	t.gpuTime = 0
}

// NotifyPassRender stops the CPU timer, optionally subtracting the GPU
// time accumulated so far. It does not read the query pool; Retrieve does.
func (t *Timer) NotifyPassRender(passIndex uint32, subtractGPUFromCPU bool) {
	t.cpuTime = time.Since(t.cpuStart)
	if subtractGPUFromCPU {
		t.cpuTime -= t.gpuTime
	}
}

// BeginPass writes the begin timestamp for passIndex, a no-op when the
// backend context reports no timestamp support.
func (t *Timer) BeginPass(cb vk.CommandBuffer, passIndex uint32) {
	if t.pool == nil {
		return
	}
	vk.CmdResetQueryPool(cb, t.pool, passIndex*2, 2)
	vk.CmdWriteTimestamp(cb, vk.PipelineStageFlagBits(vk.PipelineStageTopOfPipeBit), t.pool, passIndex*2)
}

// EndPass writes the end timestamp for passIndex.
func (t *Timer) EndPass(cb vk.CommandBuffer, passIndex uint32) {
	if t.pool == nil {
		return
	}
	vk.CmdWriteTimestamp(cb, vk.PipelineStageFlagBits(vk.PipelineStageBottomOfPipeBit), t.pool, passIndex*2+1)
}

// Retrieve reads back the two timestamps for passIndex and accumulates
// their delta, scaled by the device's nanoseconds-per-tick period, into
// the running GPU time.
func (t *Timer) Retrieve(passIndex uint32) {
	if t.pool == nil {
		return
	}
	results := make([]uint64, 2)
	res := vk.GetQueryPoolResults(t.ctx.Device, t.pool, passIndex*2, 2,
		uint(2*8), unsafe.Pointer(&results[0]), 8, vk.QueryResultFlags(vk.QueryResult64Bit))
	if res != vk.Success {
		return
	}
	delta := results[1] - results[0]
	t.gpuTime += time.Duration(float64(delta) * float64(t.ctx.TimestampPeriod))
}

// CPUTime returns the most recently measured CPU duration of this pass.
func (t *Timer) CPUTime() time.Duration { return t.cpuTime }

// GPUTime returns the most recently measured GPU duration of this pass,
// zero when the backend context reports no timestamp support.
func (t *Timer) GPUTime() time.Duration { return t.gpuTime }

// Reset clears both accumulated times.
func (t *Timer) Reset() {
	t.cpuTime = 0
	t.gpuTime = 0
}
