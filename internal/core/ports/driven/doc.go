// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - TokenStore: encrypted persistence of the bearer token (SQLite)
//   - HistoryStore: path-keyed persistence of history lists (bbolt)
//   - GitHubAPI: the REST endpoints the program consumes (go-github)
//   - TokenExchanger: the OAuth code-for-token exchange (x/oauth2)
//   - UserAgent: the browser surface that completes the authorization redirect
//   - ConfigStore: application configuration (TOML)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
