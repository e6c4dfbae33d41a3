package reply

import (
	"errors"
	"sync/atomic"
)

// ErrStale reports a result that a newer request has superseded.
var ErrStale = errors.New("superseded by a newer request")

// Generation hands out tickets. Only the most recently issued ticket is
// current, so results of older requests can be dropped.
type Generation struct {
	n atomic.Uint64
}

type Ticket struct {
	g  *Generation
	id uint64
}

func (g *Generation) Next() Ticket {
	return Ticket{g: g, id: g.n.Add(1)}
}

func (t Ticket) Current() bool {
	return t.g != nil && t.g.n.Load() == t.id
}
