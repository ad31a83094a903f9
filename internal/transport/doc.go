// Package transport propagates a charged lepton through a heterogeneous
// medium, one Monte-Carlo step at a time.
//
// The package defines the stepping engine and the narrow interfaces it
// consumes:
//
//   - [State]: the caller-owned particle state, mutated in place
//   - [Medium]: a material index bound to a [LocalsFunc]
//   - [Resolver]: locates the medium at the current position
//   - [Physics]: read-only energy loss and scattering tables
//   - [Random]: a uniform generator owned by the caller
//   - [Context]: configuration plus typed user data
//
// A call to [Context.Transport] loops over elementary steps
// (resolve medium, compute locals, bound the step, apply physics, check
// events) and returns as soon as an enabled [Event] occurs or the particle
// leaves the simulated volume.
//
// # Example
//
//	ctx, _ := transport.NewContext[struct{}](table, struct{}{})
//	ctx.Medium = geometry
//	ctx.Random = rand.New(rand.NewPCG(1, 2))
//	s := transport.NewState(-1, 10, r3.Vec{}, r3.Vec{Z: 1})
//	res, err := ctx.Transport(&s)
//
// # Thread Safety
//
// A Context is NOT safe for concurrent use. Clone it per goroutine; clones
// share the physics tables, which are read-only.
package transport
