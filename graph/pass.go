package graph

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/crg/backend"
	"github.com/spaghettifunk/crg/core"
	"github.com/spaghettifunk/crg/record"
	"github.com/spaghettifunk/crg/resource"
)

// Runnable is the minimal contract a concrete pass kind (render pass,
// compute pass, copy, blit, ...) must satisfy to be driven by FramePass
// and RunnableGraph. Concrete RunnablePass implementations live in the
// runnable package; this interface exists so graph need not import it.
type Runnable interface {
	Initialise() error
}

// RunnableCreator builds the concrete Runnable for a declared FramePass,
// per §4.2's "user-supplied runnableCreator". rc is the same record.Context
// RunnableGraph resolves layout transitions through, so every pass's
// Base.RecordContext() observes the one running state table, per §4.5.
type RunnableCreator func(ctx *backend.Context, rc *record.Context, pass *FramePass) (Runnable, error)

// FramePass is the declarative node of the frame graph: a named owner of
// Attachment records plus, once compiled, a Runnable.
type FramePass struct {
	Name         string
	Group        *FramePassGroup
	Attachments  []*Attachment
	MaxPassCount uint32
	creator      RunnableCreator
	runnable     Runnable
	dependsCache map[*FramePass]bool
}

func newFramePass(name string, group *FramePassGroup, creator RunnableCreator) *FramePass {
	return &FramePass{
		Name:         name,
		Group:        group,
		MaxPassCount: 1,
		creator:      creator,
		dependsCache: map[*FramePass]bool{},
	}
}

func (p *FramePass) add(a *Attachment) *Attachment {
	a.Pass = p
	p.Attachments = append(p.Attachments, a)
	return a
}

// --- Image attachment builders (§4.2) ---

// AddInputSampled binds a combined-image-sampler input; the view must be
// in ShaderReadOnly or a compatible layout at pass entry.
func (p *FramePass) AddInputSampled(name string, binding uint32, view resource.ImageViewId, sampler *SamplerDesc) *Attachment {
	return p.add(&Attachment{
		Name: name, Binding: binding, View: view, Sampler: sampler,
		Flags: Sampled | Input,
	})
}

// AddInputStorage binds a storage image input; layout = General.
func (p *FramePass) AddInputStorage(name string, binding uint32, view resource.ImageViewId) *Attachment {
	return p.add(&Attachment{Name: name, Binding: binding, View: view, Flags: Storage | Input})
}

// AddInOutStorage binds a storage image read-write.
func (p *FramePass) AddInOutStorage(name string, binding uint32, view resource.ImageViewId) *Attachment {
	return p.add(&Attachment{Name: name, Binding: binding, View: view, Flags: Storage | InOut})
}

// AddOutputStorageImage binds a storage image write-only.
func (p *FramePass) AddOutputStorageImage(name string, binding uint32, view resource.ImageViewId) *Attachment {
	return p.add(&Attachment{Name: name, Binding: binding, View: view, Flags: Storage | Output})
}

// AddInputUniformBuffer binds a uniform buffer.
func (p *FramePass) AddInputUniformBuffer(name string, binding uint32, view resource.BufferViewId, access vk.AccessFlags) *Attachment {
	return p.add(&Attachment{Name: name, Binding: binding, BufferView: view, Access: access, Flags: Uniform | Input})
}

// AddInputStorageBuffer binds a storage buffer for reading.
func (p *FramePass) AddInputStorageBuffer(name string, binding uint32, view resource.BufferViewId, access vk.AccessFlags) *Attachment {
	return p.add(&Attachment{Name: name, Binding: binding, BufferView: view, Access: access, Flags: Storage | Input})
}

// AddOutputStorageBuffer binds a storage buffer for writing.
func (p *FramePass) AddOutputStorageBuffer(name string, binding uint32, view resource.BufferViewId, access vk.AccessFlags) *Attachment {
	return p.add(&Attachment{Name: name, Binding: binding, BufferView: view, Access: access, Flags: Storage | Output})
}

// AddClearableOutputStorageBuffer binds a storage buffer for writing and
// marks it to be zero-filled via vkCmdFillBuffer(0) at record time.
func (p *FramePass) AddClearableOutputStorageBuffer(name string, binding uint32, view resource.BufferViewId, access vk.AccessFlags) *Attachment {
	return p.add(&Attachment{Name: name, Binding: binding, BufferView: view, Access: access, Flags: Storage | Output, Clearable: true})
}

// AddInputTransferImage declares a transfer-read image dependency.
func (p *FramePass) AddInputTransferImage(name string, view resource.ImageViewId) *Attachment {
	return p.add(&Attachment{Name: name, View: view, Flags: Transfer | Input})
}

// AddOutputTransferImage declares a transfer-write image dependency.
func (p *FramePass) AddOutputTransferImage(name string, view resource.ImageViewId) *Attachment {
	return p.add(&Attachment{Name: name, View: view, Flags: Transfer | Output})
}

// AddInOutTransferImage declares a transfer read-write image dependency
// (used by e.g. GenerateMipmaps and ImageBlit self-chains).
func (p *FramePass) AddInOutTransferImage(name string, view resource.ImageViewId) *Attachment {
	return p.add(&Attachment{Name: name, View: view, Flags: Transfer | InOut})
}

// AddInputColourTarget binds a framebuffer colour input.
func (p *FramePass) AddInputColourTarget(name string, binding uint32, view resource.ImageViewId, loadOp vk.AttachmentLoadOp, storeOp vk.AttachmentStoreOp, blend vk.PipelineColorBlendAttachmentState) *Attachment {
	return p.add(&Attachment{Name: name, Binding: binding, View: view, LoadOp: loadOp, StoreOp: storeOp, Blend: blend, Flags: ColorAttachment | Input})
}

// AddInOutColourTarget binds a framebuffer colour read-write target.
func (p *FramePass) AddInOutColourTarget(name string, binding uint32, view resource.ImageViewId, loadOp vk.AttachmentLoadOp, storeOp vk.AttachmentStoreOp, blend vk.PipelineColorBlendAttachmentState) *Attachment {
	return p.add(&Attachment{Name: name, Binding: binding, View: view, LoadOp: loadOp, StoreOp: storeOp, Blend: blend, Flags: ColorAttachment | InOut})
}

// AddOutputColourTarget binds a framebuffer colour output.
func (p *FramePass) AddOutputColourTarget(name string, binding uint32, view resource.ImageViewId, loadOp vk.AttachmentLoadOp, storeOp vk.AttachmentStoreOp, clear vk.ClearColorValue, blend vk.PipelineColorBlendAttachmentState) *Attachment {
	return p.add(&Attachment{Name: name, Binding: binding, View: view, LoadOp: loadOp, StoreOp: storeOp, ClearColour: clear, Blend: blend, Flags: ColorAttachment | Output})
}

// DepthStencilConfig bundles the per-aspect load/store ops shared by the
// depth/stencil attachment builders.
type DepthStencilConfig struct {
	LoadOp         vk.AttachmentLoadOp
	StoreOp        vk.AttachmentStoreOp
	StencilLoadOp  vk.AttachmentLoadOp
	StencilStoreOp vk.AttachmentStoreOp
	ClearDepth     vk.ClearDepthStencilValue
}

// AddInputDepthTarget binds a depth/stencil framebuffer input.
func (p *FramePass) AddInputDepthTarget(name string, view resource.ImageViewId, cfg DepthStencilConfig) *Attachment {
	return p.add(&Attachment{
		Name: name, View: view, Flags: DepthAttachment | StencilAttachment | Input,
		LoadOp: cfg.LoadOp, StoreOp: cfg.StoreOp, StencilLoadOp: cfg.StencilLoadOp, StencilStoreOp: cfg.StencilStoreOp,
	})
}

// AddInOutDepthStencilTarget binds a depth/stencil framebuffer read-write
// target.
func (p *FramePass) AddInOutDepthStencilTarget(name string, view resource.ImageViewId, cfg DepthStencilConfig) *Attachment {
	return p.add(&Attachment{
		Name: name, View: view, Flags: DepthAttachment | StencilAttachment | InOut,
		LoadOp: cfg.LoadOp, StoreOp: cfg.StoreOp, StencilLoadOp: cfg.StencilLoadOp, StencilStoreOp: cfg.StencilStoreOp,
	})
}

// AddOutputDepthStencilTarget binds a depth/stencil framebuffer output.
func (p *FramePass) AddOutputDepthStencilTarget(name string, view resource.ImageViewId, cfg DepthStencilConfig) *Attachment {
	return p.add(&Attachment{
		Name: name, View: view, Flags: DepthAttachment | StencilAttachment | Output,
		LoadOp: cfg.LoadOp, StoreOp: cfg.StoreOp, StencilLoadOp: cfg.StencilLoadOp, StencilStoreOp: cfg.StencilStoreOp,
		ClearDepth: cfg.ClearDepth,
	})
}

// AddImplicit registers a no-descriptor attachment used solely to express
// an ordering constraint (§4.2).
func (p *FramePass) AddImplicit(view resource.ImageViewId, dir Flag) *Attachment {
	return p.add(&Attachment{Name: "implicit", View: view, Flags: Implicit | dir})
}

// DependsOn reports whether p transitively depends on other, i.e. whether
// there is a producer->consumer path from other to p. It's a thin wrapper
// over the memoized check built by the dependency builder; before
// Compile runs it always returns false.
func (p *FramePass) DependsOn(other *FramePass) bool {
	return p.dependsCache[other]
}

// CreateRunnable invokes the pass's RunnableCreator and initialises the
// result, per §4.2.
func (p *FramePass) CreateRunnable(ctx *backend.Context, rc *record.Context) (Runnable, error) {
	if p.creator == nil {
		return nil, nil
	}
	r, err := p.creator(ctx, rc, p)
	if err != nil {
		return nil, err
	}
	if err := r.Initialise(); err != nil {
		core.LogError("FramePass %q: runnable initialise failed: %v", p.Name, err)
		return nil, err
	}
	p.runnable = r
	return r, nil
}

// GetRunnable returns the concrete Runnable created for this pass, or nil
// before CreateRunnable has run.
func (p *FramePass) GetRunnable() Runnable { return p.runnable }

// FramePassGroup is a named node in the tree of pass groups a FrameGraph
// is built from, per §4.2.
type FramePassGroup struct {
	Name     string
	Parent   *FramePassGroup
	Children []*FramePassGroup
	Passes   []*FramePass
	graph    *FrameGraph
}

func newFramePassGroup(name string, parent *FramePassGroup, fg *FrameGraph) *FramePassGroup {
	return &FramePassGroup{Name: name, Parent: parent, graph: fg}
}

// CreatePassGroup creates (or returns, if already present) a named child
// group.
func (g *FramePassGroup) CreatePassGroup(name string) *FramePassGroup {
	for _, c := range g.Children {
		if c.Name == name {
			return c
		}
	}
	child := newFramePassGroup(name, g, g.graph)
	g.Children = append(g.Children, child)
	return child
}

// CreatePass creates a new FramePass in this group. Duplicate pass names
// within the owning FrameGraph are rejected with ErrDuplicatePassName.
func (g *FramePassGroup) CreatePass(name string, creator RunnableCreator) (*FramePass, error) {
	if g.graph.hasPassNamed(name) {
		return nil, core.ErrDuplicatePassName
	}
	pass := newFramePass(name, g, creator)
	g.Passes = append(g.Passes, pass)
	g.graph.registerPass(pass)
	return pass, nil
}

// AllPasses returns every FramePass registered in this group and its
// descendant groups, in declaration order.
func (g *FramePassGroup) AllPasses() []*FramePass {
	result := append([]*FramePass{}, g.Passes...)
	for _, c := range g.Children {
		result = append(result, c.AllPasses()...)
	}
	return result
}
