package node

import (
	"github.com/joeycumines/bacsc"
	"github.com/rs/zerolog"
)

// Pool is a fixed-size node pool with a used flag per slot, mirroring
// bsc_alloc_node/bsc_free_node: Init/Deinit hand
// out and reclaim *Node values drawn from a bounded, pre-allocated slice
// rather than allocating nodes without limit.
type Pool struct {
	rt    *bacsc.Runtime
	log   zerolog.Logger
	nodes []*Node
}

// NewPool pre-allocates size Node slots bound to rt.
func NewPool(rt *bacsc.Runtime, log zerolog.Logger, size int) *Pool {
	nodes := make([]*Node, size)
	for i := range nodes {
		nodes[i] = newNode(rt, log)
	}
	return &Pool{rt: rt, log: log, nodes: nodes}
}

// Init allocates an unused slot and configures it with cfg. Returns
// NoResources if the pool is exhausted.
func (p *Pool) Init(cfg Config) (*Node, error) {
	p.rt.Lock()
	defer p.rt.Unlock()

	if err := validate(cfg); err != nil {
		return nil, err
	}
	for _, n := range p.nodes {
		if !n.used {
			n.used = true
			n.cfg = cfg
			n.vmac = cfg.LocalVMAC
			n.uuid = cfg.LocalUUID
			n.state = StateIdle
			return n, nil
		}
	}
	return nil, bacsc.NewError(bacsc.KindNoResources, "node pool exhausted", nil)
}

// Stats reports how many of the pool's slots are currently allocated, and
// the pool's total fixed size.
func (p *Pool) Stats() (used, size int) {
	p.rt.Lock()
	defer p.rt.Unlock()
	for _, n := range p.nodes {
		if n.used {
			used++
		}
	}
	return used, len(p.nodes)
}

// Deinit reclaims n's slot. Only valid while n is IDLE; returns
// InvalidOperation otherwise.
func (p *Pool) Deinit(n *Node) error {
	p.rt.Lock()
	defer p.rt.Unlock()

	if n.state != StateIdle {
		return bacsc.NewError(bacsc.KindInvalidOperation, "deinit while not idle", nil)
	}
	n.used = false
	n.cfg = Config{}
	n.resolution = nil
	return nil
}
