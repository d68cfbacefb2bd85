// Package client contains the portalctl side of the SessionAuthority API.
//
// # Overview
//
// The package provides:
//  1. The Client interface listing the remote operations the CLI needs.
//  2. A gRPC implementation (GRPCClient) over sessionrpc.Client that keeps
//     the current session token, attaches it to every call through a unary
//     interceptor, applies a per-call deadline and maps gRPC status codes to
//     sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the
//     SQLite file that remembers the session between runs.
//
// # Error Handling
//
// Callers match with errors.Is: ErrUnavailable, ErrUnauthorized,
// ErrSessionInvalid, ErrForbidden, ErrInvalidInput, ErrNotFound.
// ErrSessionInvalid means the stored token must be thrown away.
package client
