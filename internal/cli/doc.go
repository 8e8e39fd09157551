// Package cli is a minimal command-table dispatcher for the queuectl
// binary: a root Command holds named subcommands, each with its own
// flag.FlagSet, and Execute walks os.Args against that table the way
// a shell dispatches argv[1] to a subcommand before handing the rest
// of argv to it.
package cli
