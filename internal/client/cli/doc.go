// Package cli implements the AudioScribe command-line client.
//
// Every command is a cobra subcommand of the root built by Execute. The
// login is kept in a local session database, so commands can run as
// separate invocations. "shell" starts an interactive loop that runs the
// same commands, watches server reachability and logs the user out when the
// session token expires.
package cli
