// Package pipeline implements the port-based object delivery protocol
// of spec.md §4.3: per-port object-reception policies, cache-keyed
// reception driven by executionCounter/iteration, and cancellation.
//
// The teacher's tile-server handles one request/response pair per HTTP
// call; here the same "accept work, serialize per key, signal done"
// shape is generalized to a long-lived, many-producer, ordered
// in-process channel, built on a condition-variable-guarded heap
// instead of net/http's request multiplexer.
package pipeline

import (
	"container/heap"
	"context"
	"fmt"
	"sync"

	"github.com/vistle-sys/vistle/internal/objtype"
	"github.com/vistle-sys/vistle/internal/verrors"
	"github.com/vistle-sys/vistle/internal/vlog"
)

// Policy is the per-port object-reception policy of spec.md §4.3.
type Policy int

const (
	PolicySingle Policy = iota
	PolicyCombine
	PolicyPassThrough
)

func (p Policy) String() string {
	switch p {
	case PolicySingle:
		return "Single"
	case PolicyCombine:
		return "Combine"
	case PolicyPassThrough:
		return "PassThrough"
	default:
		return "Unknown"
	}
}

// EnvelopeKind distinguishes a delivered object from the port's
// end-of-stream signals.
type EnvelopeKind int

const (
	KindObject EnvelopeKind = iota
	KindEndOfStep
	KindEndOfExecution
)

// Envelope is one unit read from a Port.
type Envelope struct {
	Kind     EnvelopeKind
	Object   objtype.Object
	Producer string
	Seq      uint64
}

// envHeap orders pending Combine envelopes by the deterministic
// tiebreaker of spec.md §4.3: producer id, then production sequence.
type envHeap []Envelope

func (h envHeap) Len() int { return len(h) }
func (h envHeap) Less(i, j int) bool {
	if h[i].Producer != h[j].Producer {
		return h[i].Producer < h[j].Producer
	}
	return h[i].Seq < h[j].Seq
}
func (h envHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *envHeap) Push(x interface{}) { *h = append(*h, x.(Envelope)) }
func (h *envHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

type seenState struct {
	executionCounter int
	iteration        int
	seen             bool
}

// Port is one module input or output port.
type Port struct {
	name   string
	policy Policy

	// OnStaleGeneration, if set, is called when a new object from a
	// creator supersedes a prior generation, so a derivation cache
	// (internal/resultcache) can drop stale entries for that creator.
	OnStaleGeneration func(creator string)

	mu       sync.Mutex
	cond     *sync.Cond
	pending  envHeap
	fifo     []Envelope // used for Single/PassThrough, which need no reordering
	closed   bool
	lastSeen map[string]seenState
	producer string // for Single/PassThrough: the one allowed producer
}

// NewPort creates a port with the given reception policy.
func NewPort(name string, policy Policy) *Port {
	p := &Port{name: name, policy: policy, lastSeen: make(map[string]seenState)}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *Port) Name() string   { return p.name }
func (p *Port) Policy() Policy { return p.policy }

// Publish makes obj visible to all downstream consumers in production
// order. Reception is cache-keyed on the object's metadata: an object
// whose executionCounter/iteration is older than what this port has
// already seen from the same creator is stale and is dropped with a
// diagnostic rather than delivered. An object of the same generation is
// delivered; a newer one is delivered after OnStaleGeneration runs.
func (p *Port) Publish(obj objtype.Object, seq uint64) error {
	md := obj.Metadata()
	creator := md.Creator

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return verrors.New(verrors.PortPolicyViolation, "pipeline", "Publish", "port "+p.name+" is closed")
	}

	if p.policy == PolicySingle || p.policy == PolicyPassThrough {
		if p.producer == "" {
			p.producer = creator
		} else if p.producer != creator {
			return verrors.New(verrors.PortPolicyViolation, "pipeline", "Publish",
				fmt.Sprintf("port %s has policy %s, cannot accept a second producer %s", p.name, p.policy, creator))
		}
	}

	prev, ok := p.lastSeen[creator]
	cur := seenState{executionCounter: md.ExecutionCounter, iteration: md.Iteration, seen: true}
	if ok {
		if md.ExecutionCounter < prev.executionCounter ||
			(md.ExecutionCounter == prev.executionCounter && md.Iteration < prev.iteration) {
			vlog.WithFields(map[string]interface{}{
				"port": p.name, "creator": creator, "executionCounter": md.ExecutionCounter, "iteration": md.Iteration,
			}).Warn("pipeline: dropping outdated object")
			return nil
		}
		newerGeneration := md.ExecutionCounter > prev.executionCounter ||
			(md.ExecutionCounter == prev.executionCounter && md.Iteration > prev.iteration)
		if newerGeneration && p.OnStaleGeneration != nil {
			p.OnStaleGeneration(creator)
		}
	}
	p.lastSeen[creator] = cur

	env := Envelope{Kind: KindObject, Object: obj, Producer: creator, Seq: seq}
	if p.policy == PolicyCombine {
		heap.Push(&p.pending, env)
	} else {
		p.fifo = append(p.fifo, env)
	}
	p.cond.Broadcast()
	return nil
}

// PassThrough republishes an already-immutable input, the shortcut of
// spec.md §4.3.
func (p *Port) PassThrough(obj objtype.Object, seq uint64) error {
	return p.Publish(obj, seq)
}

// SignalEndOfStep and SignalEndOfExecution enqueue the corresponding
// sentinel, unblocking any waiting Read.
func (p *Port) SignalEndOfStep() { p.signal(KindEndOfStep) }

func (p *Port) SignalEndOfExecution() {
	p.signal(KindEndOfExecution)
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *Port) signal(kind EnvelopeKind) {
	p.mu.Lock()
	p.fifo = append(p.fifo, Envelope{Kind: kind})
	p.cond.Broadcast()
	p.mu.Unlock()
}

// Read consumes one envelope, blocking until the producer publishes,
// signals end, or ctx is canceled.
func (p *Port) Read(ctx context.Context) (Envelope, error) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		case <-done:
		}
	}()
	defer close(done)

	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.pending) == 0 && len(p.fifo) == 0 {
		if ctx.Err() != nil {
			return Envelope{}, ctx.Err()
		}
		p.cond.Wait()
	}
	if ctx.Err() != nil {
		return Envelope{}, ctx.Err()
	}

	if len(p.fifo) > 0 {
		env := p.fifo[0]
		p.fifo = p.fifo[1:]
		return env, nil
	}
	env := heap.Pop(&p.pending).(Envelope)
	return env, nil
}

// Cancel implements spec.md §4.3's CancelExecute handling for this
// port: any not-yet-read pending objects are torn down by refcount
// decrement (their Destroy), and the port is marked closed.
func (p *Port) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, env := range p.pending {
		destroyPartial(env.Object)
	}
	for _, env := range p.fifo {
		destroyPartial(env.Object)
	}
	p.pending = nil
	p.fifo = nil
	p.closed = true
	p.cond.Broadcast()
}

func destroyPartial(obj objtype.Object) {
	if obj == nil {
		return
	}
	type destroyer interface{ Destroy() error }
	if d, ok := obj.(destroyer); ok {
		if err := d.Destroy(); err != nil {
			vlog.WithError(err).Warn("pipeline: error tearing down canceled object")
		}
	}
}
