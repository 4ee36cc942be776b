// Package shim documents, but does not implement, the compatibility
// surface spec.md §6 describes as an external collaborator: a
// dense-linear-algebra ABI accepting a matrix descriptor array and
// grid-info callbacks, which extracts this engine's construction
// parameters and invokes lu.Run with a single-entry option map.
//
// spec.md §1 lists "the compatibility shims that expose this engine
// under legacy dense-linear-algebra Fortran-style naming conventions" as
// explicitly out of scope, naming only their interfaces. This package is
// that interface: Descriptor and GridInfo give a real collaborator
// something concrete to implement against, with no executable
// translation logic here.
package shim
