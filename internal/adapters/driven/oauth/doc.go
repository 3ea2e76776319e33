// Package oauth holds the driven side of the GitHub authorization-code
// flow: the token exchanger and a loopback user agent that opens the
// system browser and receives the redirect on 127.0.0.1.
package oauth
