package game

// OrbitControl is the camera-orbit input switch a drag takes over while it runs.
type OrbitControl interface {
	Suspend()
	Resume()
}

// OrbitLock is a reference-counted OrbitControl. Orbit input is enabled only
// while no drag holds the lock, so the first of two overlapping drags to end
// cannot re-enable orbiting under the second.
type OrbitLock struct {
	holders int
}

func (o *OrbitLock) Suspend() {
	o.holders++
}

func (o *OrbitLock) Resume() {
	if o.holders > 0 {
		o.holders--
	}
}

// Enabled reports whether the renderer should accept orbit input.
func (o *OrbitLock) Enabled() bool {
	return o.holders == 0
}

func (o *OrbitLock) Holders() int {
	return o.holders
}
