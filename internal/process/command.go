// Package process runs the external disc tools and streams their output.
package process

import (
	"strings"
	"sync"
)

// CommandSpec is the argument vector of one external command.
//
// Tokens are appended in order until the command is started; after that the
// spec is frozen and further AddArgument calls are ignored. Token 0 is the
// executable name, resolved through the PATH search when the command runs.
type CommandSpec struct {
	mu     sync.Mutex
	args   []string
	frozen bool
}

// NewCommand creates a spec whose first token is the executable name.
func NewCommand(name string) *CommandSpec {
	c := &CommandSpec{}
	if name != "" {
		c.args = append(c.args, name)
	}
	return c
}

// AddArgument appends one token and returns the command for chaining.
// It is a no-op once the command has been frozen.
func (c *CommandSpec) AddArgument(token string) *CommandSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.frozen {
		c.args = append(c.args, token)
	}
	return c
}

// Args returns a copy of the tokens collected so far.
func (c *CommandSpec) Args() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.args))
	copy(out, c.args)
	return out
}

// Name returns the executable token, or "" for an empty spec.
func (c *CommandSpec) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.args) == 0 {
		return ""
	}
	return c.args[0]
}

// Frozen reports whether the command has been handed to a running process.
func (c *CommandSpec) Frozen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frozen
}

// String returns the command line joined by spaces (for -print-cmd and logs).
func (c *CommandSpec) String() string {
	return strings.Join(c.Args(), " ")
}

// freeze marks the command immutable and returns its final tokens.
func (c *CommandSpec) freeze() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
	out := make([]string, len(c.args))
	copy(out, c.args)
	return out
}
