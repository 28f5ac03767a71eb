// Package deps models external dependencies and resolves them against
// ordered repositories.
//
// # Overview
//
// A [Dependency] is identified by a coordinate of the form
//
//	group:artifact[:version[:classifier[:type]]]
//
// Its identity ([Key]) excludes the version: two declarations of the same
// group, artifact, classifier and type are the same library. [Version]
// carries a total order in which absent components sort below present ones
// and a qualified version sorts below its release.
//
// # Scopes
//
// Each [Scope] owns one [DependencySet], an ordered collection in which the
// first declaration of an identity wins. [DependencyScopes] holds one set per
// scope in a fixed array; scopes never touched behave as empty.
//
// # Resolving Dependencies
//
// A [Resolver] expands a scope breadth-first:
//
//	r := deps.NewResolver([]deps.Repository{central, local}, deps.Options{})
//	res, err := r.Resolve(ctx, deps.Compile, set)
//
// For every pending coordinate the repositories are consulted in order and
// the first match is used exclusively. Version-less coordinates take the
// highest version the matching repository offers. Descriptor entries whose
// identity is already present are skipped, which also makes cyclic
// descriptors terminate.
//
// Failures are typed: [ParseError] for malformed text, [RepositoryError]
// for unknown coordinates and transport failures, [VersionError] when no
// version can be determined. The resolver never retries and never logs
// beyond the optional [Options.Logger] callback.
package deps
