// Package registry maps provider names to factories and constructs providers
// on demand.
//
// A Registry is safe for concurrent use. Lookups and registrations share one
// short critical section; Factory.Create always runs outside it, so a slow or
// failing constructor never stalls other registry operations.
//
// Most programs use the process-wide instance returned by Default, filled
// once at start-up:
//
//	registry.RegisterBuiltins(registry.Default())
//	p, err := registry.Resolve(ctx, cfg.Provider, cfg)
//
// Tests construct isolated instances with New.
package registry
