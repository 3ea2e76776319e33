// Package services implements the driving port interfaces.
// Services contain the core logic (session state, the OAuth flow,
// paginated search and history) and orchestrate calls to driven ports.
//
// Services are pure Go with no external dependencies. Every service is
// safe for concurrent use; observable state is published as immutable
// snapshots to subscribers in the order the state changed.
package services
