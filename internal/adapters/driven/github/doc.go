// Package github implements driven.GitHubAPI on top of go-github.
//
// Requests pass through two transports before reaching the network:
//
//   - headerTransport sets the media type and API version headers and, when
//     a token is stored, a bearer Authorization header read per request.
//   - retryTransport reacts to status codes: 401 signs the session out and
//     fails, 403 retries once after 2s, 429 retries once after 5s.
//
// A RateLimiter throttles requests client-side and waits out an exhausted
// quota when the reset is near.
package github
