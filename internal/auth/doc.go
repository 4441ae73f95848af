// Package auth provides service-token authentication for the TwinBridge
// operational API.
//
// The bridge has no interactive users. Operators and monitoring tools
// authenticate with short-lived JWT service tokens signed with a shared
// HMAC secret (HS256). Tokens carry a subject naming the caller and a
// scope claim restricting what the token may do; validation is signature
// and expiry only, with no database lookup on the hot path.
package auth
