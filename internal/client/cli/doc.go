// Package cli provides portalctl, the interactive admin console of the
// portal.
//
// It wires configuration, the local session store and the SessionAuthority
// gRPC client, then runs a REPL. The session token survives restarts in a
// SQLite file under the data directory and is dropped as soon as the server
// reports it invalid.
//
// Commands:
//   - login [email], logout, whoami, passwd
//   - status, maintenance on [message], maintenance off, logoutall
//   - users, block <id>, unblock <id>, kick <id>, setpass <id>, role <id> <USER|ADMIN>
//   - audit [query], export [since]
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
