package cli

import (
	"flag"
	"fmt"
	"io"
)

// Command is one node of the command table. A Command with no Run is
// a pure grouping node (e.g. "worker", "dlq", "config") whose purpose
// is only to hold SubCommands.
type Command struct {
	Name    string
	Usage   string
	Flags   func(fs *flag.FlagSet) any
	Run     func(ctx *Context, flags any, args []string) int

	SubCommands map[string]*Command
}

// AddSubCommand registers sub under cmd.
func (cmd *Command) AddSubCommand(sub *Command) {
	if cmd.SubCommands == nil {
		cmd.SubCommands = make(map[string]*Command)
	}
	cmd.SubCommands[sub.Name] = sub
}

// Context carries dependencies shared by every leaf command's Run.
type Context struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Root is the top-level command table.
type Root struct {
	commands map[string]*Command
	ctx      *Context
}

// NewRoot builds an empty Root bound to ctx.
func NewRoot(ctx *Context) *Root {
	return &Root{commands: make(map[string]*Command), ctx: ctx}
}

// Add registers a top-level command.
func (r *Root) Add(cmd *Command) {
	r.commands[cmd.Name] = cmd
}

// Execute dispatches args (conventionally os.Args[1:]) to the matching
// command chain and returns the process exit code: 1 for an unknown
// or malformed command, or whatever the leaf Run returns.
func (r *Root) Execute(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(r.ctx.Stderr, "usage: queuectl <command> [subcommand] [flags] [args]")
		return 1
	}

	commands := r.commands
	var current *Command
	i := 0
	for i < len(args) {
		cmd, ok := commands[args[i]]
		if !ok {
			break
		}
		current = cmd
		i++
		if len(cmd.SubCommands) > 0 {
			commands = cmd.SubCommands
			continue
		}
		break
	}

	if current == nil {
		fmt.Fprintf(r.ctx.Stderr, "queuectl: unknown command %q\n", args[0])
		return 1
	}
	if current.Run == nil {
		fmt.Fprintf(r.ctx.Stderr, "queuectl: %q requires a subcommand\n", current.Name)
		return 1
	}

	rest := args[i:]
	fs := flag.NewFlagSet(current.Name, flag.ContinueOnError)
	fs.SetOutput(r.ctx.Stderr)
	var flagsValue any
	if current.Flags != nil {
		flagsValue = current.Flags(fs)
	}
	if err := fs.Parse(rest); err != nil {
		return 1
	}

	return current.Run(r.ctx, flagsValue, fs.Args())
}
