// Package domain defines the core entities for gitscope.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Session and AuthenticatedUser: who is signed in
//   - Repository and User: GitHub resources returned by search
//   - SearchQuery and SearchState: paginated search input and output
//   - HistoryItem: a recently viewed repository or user
//   - AuthError and NetworkError: the typed failure taxonomy
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
