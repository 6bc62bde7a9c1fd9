package nbody

import "context"

// Observer receives the body positions once per simulation step, e.g. to
// draw a frame. Frame is called synchronously from Run.
//
//go:generate mockgen -destination observer_mock.go -package nbody . Observer
type Observer interface {
	Frame(ctx context.Context, step int, bodies []Body)
}
