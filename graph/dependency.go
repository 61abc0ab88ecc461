package graph

import (
	"github.com/spaghettifunk/crg/core"
	"github.com/spaghettifunk/crg/resource"

	"golang.org/x/exp/slices"
)

// Dependencies is the edge record produced by the dependency builder:
// a directional producer -> consumer coupling, carrying the matched
// (output, input) attachment pairs that crossed the edge, per §3's
// FramePassDependencies.
type Dependencies struct {
	SrcPass    *FramePass // nil means "graph external" (sentinel half-edge)
	DstPass    *FramePass // nil means "graph external"
	SrcOutputs []*Attachment
	DstInputs  []*Attachment
}

// Transition is the flattened per-transition record used by RecordContext
// and (conceptually) the excluded DOT exporter, per §3's
// AttachmentTransition.
type Transition struct {
	Output *Attachment
	Input  *Attachment
	View   resource.ImageViewId // zero when this is a buffer transition
}

func viewsOverlap(h *resource.Handler, lhs, rhs resource.ImageViewId) bool {
	if lhs == rhs {
		return true
	}
	lv, ok1 := h.ViewData(lhs)
	rv, ok2 := h.ViewData(rhs)
	if !ok1 || !ok2 {
		return false
	}
	return rangesOverlap(lv, rv)
}

// rangesOverlap reports whether two image views alias the same
// subresources: same image, and half-open mip and layer ranges both
// intersect.
func rangesOverlap(lhs, rhs resource.ImageViewData) bool {
	if lhs.Image != rhs.Image {
		return false
	}
	return intersects(lhs.SubresourceRange.BaseMipLevel, lhs.SubresourceRange.LevelCount,
		rhs.SubresourceRange.BaseMipLevel, rhs.SubresourceRange.LevelCount) &&
		intersects(lhs.SubresourceRange.BaseArrayLayer, lhs.SubresourceRange.LayerCount,
			rhs.SubresourceRange.BaseArrayLayer, rhs.SubresourceRange.LayerCount)
}

func intersects(lhsBase, lhsCount, rhsBase, rhsCount uint32) bool {
	return inRange(lhsBase, rhsBase, rhsCount) || inRange(rhsBase, lhsBase, lhsCount)
}

func inRange(value, base, count uint32) bool {
	return value >= base && value < base+count
}

func buffersOverlap(h *resource.Handler, lhs, rhs resource.BufferViewId) bool {
	if lhs == rhs {
		return true
	}
	lv, ok1 := h.BufferViewData(lhs)
	rv, ok2 := h.BufferViewData(rhs)
	if !ok1 || !ok2 {
		return false
	}
	if lv.Buffer != rv.Buffer {
		return false
	}
	return lv.Range.Offset < rv.Range.Offset+rv.Range.Size && rv.Range.Offset < lv.Range.Offset+lv.Range.Size
}

// overlaps reports whether two attachments address overlapping
// subresources of the same underlying resource.
func overlaps(h *resource.Handler, a, b *Attachment) bool {
	if a.isImage() && b.isImage() {
		return viewsOverlap(h, a.View, b.View)
	}
	if a.isBuffer() && b.isBuffer() {
		return buffersOverlap(h, a.BufferView, b.BufferView)
	}
	return false
}

type passAttach struct {
	attach *Attachment
	passes map[*FramePass]bool
}

func insertAttach(attach *Attachment, pass *FramePass, cont *[]*passAttach) {
	for _, pa := range *cont {
		if sameTarget(pa.attach, attach) {
			pa.passes[pass] = true
			return
		}
	}
	*cont = append(*cont, &passAttach{attach: attach, passes: map[*FramePass]bool{pass: true}})
}

func sameTarget(a, b *Attachment) bool {
	if a.isImage() && b.isImage() {
		return a.View == b.View
	}
	if a.isBuffer() && b.isBuffer() {
		return a.BufferView == b.BufferView
	}
	return false
}

func processAttach(h *resource.Handler, attach *Attachment, pass *FramePass, cont, all *[]*passAttach) {
	for _, lookup := range *cont {
		if overlaps(h, lookup.attach, attach) {
			lookup.passes[pass] = true
		}
	}
	insertAttach(attach, pass, cont)
	insertAttach(attach, pass, all)
}

// buildDependencies ports buildPassAttachDependencies from the original
// FramePassDependenciesBuilder.cpp: bucket every attachment into
// sampled/input/output sets keyed by overlapping subresource, pair
// producers with consumers, and fall through to half-edges for anything
// left unpaired (§4.3).
func buildDependencies(h *resource.Handler, passes []*FramePass) ([]*Dependencies, error) {
	var sampled, inputs, outputs, all []*passAttach

	for _, pass := range passes {
		for _, a := range pass.Attachments {
			if a.IsSampled() || a.IsUniform() {
				processAttach(h, a, pass, &sampled, &all)
			}
			if isConsumer(a) {
				processAttach(h, a, pass, &inputs, &all)
			}
			if isProducer(a) {
				processAttach(h, a, pass, &outputs, &all)
			}
		}
	}

	var result []*Dependencies

	for _, output := range outputs {
		for _, input := range inputs {
			if overlaps(h, output.attach, input.attach) {
				added, err := addDependency(output.attach, input.attach, output.passes, input.passes, &result)
				if err != nil {
					return nil, err
				}
				if added {
					all = removeByTarget(all, input.attach)
				}
			}
		}
		for _, sample := range sampled {
			if overlaps(h, output.attach, sample.attach) {
				added, err := addDependency(output.attach, sample.attach, output.passes, sample.passes, &result)
				if err != nil {
					return nil, err
				}
				if added {
					all = removeByTarget(all, output.attach)
				}
			}
		}
	}

	// `all` now only contains attachments that never paired with anything:
	// producers with no consumer, consumers with no producer, self-inouts
	// (a self-inout's own attachment always pairs with itself above, but
	// addDependency skips src==dst pairs without recording an edge, so it
	// is never removed from `all` and falls through to
	// addRemainingDependency here instead).
	for _, remaining := range all {
		if err := addRemainingDependency(remaining.attach, remaining.passes, &result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func isConsumer(a *Attachment) bool {
	return a.IsColourInput() || a.IsDepthInput() || a.IsStencilInput() ||
		a.IsTransferInput() || a.IsStorageInput()
}

func isProducer(a *Attachment) bool {
	return a.IsColourOutput() || a.IsDepthOutput() || a.IsStencilOutput() ||
		a.IsTransferOutput() || a.IsStorageOutput()
}

func removeByTarget(all []*passAttach, target *Attachment) []*passAttach {
	result := all[:0:0]
	for _, pa := range all {
		if !sameTarget(pa.attach, target) {
			result = append(result, pa)
		}
	}
	return result
}

// addDependency records a producer->consumer edge for every (src, dst)
// pair drawn from srcs x dsts, rejecting any pair that would close a
// cycle against the edges already in *dependencies. It reports whether it
// recorded at least one edge, so the caller knows whether the matched
// attachments are actually spoken for (a same-pass pairing skips every
// (src, dst) combination without recording anything, leaving the
// attachment free to fall through to addRemainingDependency).
func addDependency(outAttach, inAttach *Attachment, srcs, dsts map[*FramePass]bool, dependencies *[]*Dependencies) (bool, error) {
	added := false
	for src := range srcs {
		for dst := range dsts {
			if src == dst {
				continue // self-inout handled by addRemainingDependency
			}
			// src already depends on dst (some existing path dst->...->src)
			// iff dst can already reach src through edges recorded so far;
			// adding src->dst on top of that would close a cycle.
			if reachable(*dependencies, dst, src) {
				return added, core.ErrCyclicDependency
			}
			dep := findOrCreateDependency(dependencies, src, dst)
			if !containsAttachment(dep.SrcOutputs, outAttach) || !containsAttachment(dep.DstInputs, inAttach) {
				dep.SrcOutputs = append(dep.SrcOutputs, outAttach)
				dep.DstInputs = append(dep.DstInputs, inAttach)
			}
			added = true
		}
	}
	return added, nil
}

func addRemainingDependency(attach *Attachment, passes map[*FramePass]bool, dependencies *[]*Dependencies) error {
	var pass *FramePass
	for p := range passes {
		pass = p
		break
	}
	if pass == nil {
		return nil
	}

	switch {
	case attach.IsColourInOut() || (attach.Flags.has(InOut) && (attach.IsStorage() || attach.IsTransfer())):
		dep := findOrCreateDependency(dependencies, pass, pass)
		dep.SrcOutputs = append(dep.SrcOutputs, attach)
		dep.DstInputs = append(dep.DstInputs, attach)
	case attach.IsColourInput() || attach.IsSampled() || attach.IsDepthInput() || attach.IsStencilInput() ||
		attach.IsTransferInput() || attach.IsStorageInput() || attach.IsUniform():
		dep := findOrCreateDependencyDst(dependencies, pass)
		dep.DstInputs = append(dep.DstInputs, attach)
	default:
		dep := findOrCreateDependencySrc(dependencies, pass)
		dep.SrcOutputs = append(dep.SrcOutputs, attach)
	}
	return nil
}

func containsAttachment(list []*Attachment, a *Attachment) bool {
	for _, x := range list {
		if x == a {
			return true
		}
	}
	return false
}

func findOrCreateDependency(dependencies *[]*Dependencies, src, dst *FramePass) *Dependencies {
	for _, d := range *dependencies {
		if d.SrcPass == src && d.DstPass == dst {
			return d
		}
	}
	d := &Dependencies{SrcPass: src, DstPass: dst}
	*dependencies = append(*dependencies, d)
	return d
}

func findOrCreateDependencyDst(dependencies *[]*Dependencies, dst *FramePass) *Dependencies {
	for _, d := range *dependencies {
		if d.SrcPass == nil && d.DstPass == dst {
			return d
		}
	}
	d := &Dependencies{SrcPass: nil, DstPass: dst}
	*dependencies = append(*dependencies, d)
	return d
}

func findOrCreateDependencySrc(dependencies *[]*Dependencies, src *FramePass) *Dependencies {
	for _, d := range *dependencies {
		if d.SrcPass == src && d.DstPass == nil {
			return d
		}
	}
	d := &Dependencies{SrcPass: src, DstPass: nil}
	*dependencies = append(*dependencies, d)
	return d
}

// reachable reports whether, following only the producer->consumer edges
// already present in deps (self-edges excluded), there is a path from
// start to target. It is the single reachability primitive both the
// in-progress cycle check in addDependency and the post-hoc depends-on
// cache below are built from, so both always agree with the same set of
// known edges.
func reachable(deps []*Dependencies, start, target *FramePass) bool {
	visited := map[*FramePass]bool{start: true}
	queue := []*FramePass{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == target {
			return true
		}
		for _, d := range deps {
			if d.SrcPass == cur && d.DstPass != nil && d.DstPass != cur && !visited[d.DstPass] {
				visited[d.DstPass] = true
				queue = append(queue, d.DstPass)
			}
		}
	}
	return false
}

// populateDependsOnCaches fills each pass's memoized depends-on cache
// (§4.3.4) from the finished, already-acyclic edge set buildDependencies
// produced. It must run after buildDependencies returns, not before:
// DependsOn answers "is other an ancestor of me", which only means
// something once every edge addDependency is ever going to record already
// exists. Computing it from the raw attachment-overlap graph up front (the
// same criterion buildDependencies itself uses to emit an edge) would make
// every direct producer->consumer pair look like a pre-existing dependency
// and falsely trip the cycle check on the very first edge.
func populateDependsOnCaches(passes []*FramePass, deps []*Dependencies) {
	for _, p := range passes {
		cache := map[*FramePass]bool{}
		for _, other := range passes {
			if other == p {
				continue
			}
			if reachable(deps, other, p) {
				cache[other] = true
			}
		}
		p.dependsCache = cache
	}
}

// --- Transition merging ---

func buildTransitions(srcOutputs, dstInputs []*Attachment) []Transition {
	result := make([]Transition, 0, len(srcOutputs))
	for i := range srcOutputs {
		result = append(result, Transition{Output: srcOutputs[i], Input: dstInputs[i]})
	}
	return mergeIdenticalTransitions(result)
}

// mergeIdenticalTransitions collapses transitions sharing the same
// (output, input) pair. Idempotent by construction.
func mergeIdenticalTransitions(in []Transition) []Transition {
	var out []Transition
	for _, t := range in {
		dup := false
		for _, o := range out {
			if o.Output == t.Output && o.Input == t.Input {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

// mergeTransitionsPerInput merges transitions that share the same input
// attachment, regardless of which output produced them — the record
// context only needs one "from" state per (pass-index, view) at barrier
// time.
func mergeTransitionsPerInput(in []Transition) []Transition {
	type key struct {
		input *Attachment
	}
	seen := map[key]bool{}
	var out []Transition
	for _, t := range in {
		k := key{t.Input}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

// reduceDirectPaths drops redundant sampled transitions whose destination
// does not actually sample the attachment (§4.3.6's direct-path
// reduction): a transition into a pass that neither samples nor reads the
// view is a bookkeeping artifact of an intermediate consumer, not a real
// barrier requirement.
func reduceDirectPaths(in []Transition) []Transition {
	out := in[:0:0]
	for _, t := range in {
		if t.Input.IsSampled() && !t.Input.Pass.hasSampledView(t.Input.View) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (p *FramePass) hasSampledView(view resource.ImageViewId) bool {
	for _, a := range p.Attachments {
		if a.IsSampled() && a.View == view {
			return true
		}
	}
	return false
}

// sortedPasses returns passes sorted by name for deterministic iteration
// (used by tests and by GraphBuilder's root discovery), mirroring the
// corpus's habit of reaching for x/exp/slices ahead of generic stdlib
// helpers.
func sortedPasses(passes []*FramePass) []*FramePass {
	out := append([]*FramePass{}, passes...)
	slices.SortFunc(out, func(a, b *FramePass) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})
	return out
}
