package game

import "sort"

// Dispatcher owns pointer routing for a board. A pointer that started a drag
// claims its puck, and every later event for that pointer goes to the claimed
// puck no matter where the pointer is, until the claim is released.
type Dispatcher struct {
	claims map[int]*Puck
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{claims: make(map[int]*Puck)}
}

// Claim routes pointerID to p. It fails if the pointer already holds a claim
// or another pointer holds p.
func (d *Dispatcher) Claim(pointerID int, p *Puck) bool {
	if _, held := d.claims[pointerID]; held {
		return false
	}
	for _, claimed := range d.claims {
		if claimed == p {
			return false
		}
	}
	d.claims[pointerID] = p
	return true
}

// Claimed returns the puck routed to pointerID.
func (d *Dispatcher) Claimed(pointerID int) (*Puck, bool) {
	p, ok := d.claims[pointerID]
	return p, ok
}

// Release drops the claim for pointerID and returns the puck it held.
func (d *Dispatcher) Release(pointerID int) (*Puck, bool) {
	p, ok := d.claims[pointerID]
	if ok {
		delete(d.claims, pointerID)
	}
	return p, ok
}

// Pointers lists the pointer ids holding claims, in ascending order.
func (d *Dispatcher) Pointers() []int {
	ids := make([]int, 0, len(d.claims))
	for id := range d.claims {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (d *Dispatcher) Active() int {
	return len(d.claims)
}
