// Package principal defines the verified identity model and the boundary
// interfaces to the identity provider and tenant directory.
//
// The Resolver is the only path from a credential to a Principal. It always
// goes through a request-scoped cache, so resolution is fast on repeat
// lookups within a request yet structurally incapable of serving one user's
// identity to another.
package principal
