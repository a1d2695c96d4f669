// Package launcher starts the external agent runtime as a child process.
package launcher

import (
	"os/exec"
	"strings"
)

// Kind tags how the runtime will be started.
type Kind int

const (
	NotFound Kind = iota
	DirectStart
	BuilderPattern
)

func (k Kind) String() string {
	switch k {
	case DirectStart:
		return "direct"
	case BuilderPattern:
		return "builder"
	default:
		return "not-found"
	}
}

// RuntimeBinary is the runtime CLI looked up on PATH.
const RuntimeBinary = "elizaos"

// Strategy is the outcome of capability negotiation. Steps is the full argv;
// Steps[0] is the program.
type Strategy struct {
	Kind  Kind
	Steps []string
}

// Program returns the executable, or "" for NotFound.
func (s Strategy) Program() string {
	if len(s.Steps) == 0 {
		return ""
	}
	return s.Steps[0]
}

// Args returns the arguments after the program.
func (s Strategy) Args() []string {
	if len(s.Steps) < 2 {
		return nil
	}
	return s.Steps[1:]
}

func (s Strategy) String() string {
	if s.Kind == NotFound {
		return s.Kind.String()
	}
	return s.Kind.String() + ": " + strings.Join(s.Steps, " ")
}

// Options describe the runtime invocation.
type Options struct {
	Command       string   // explicit program; skips PATH probing
	Args          []string // subcommand arguments, e.g. ["start"]
	Flag          string   // flag preceding the character path; empty passes the path bare
	CharacterPath string
}

// LookPathFunc resolves a program name; exec.LookPath in production.
type LookPathFunc func(file string) (string, error)

// Negotiate decides once how to start the runtime: an explicit command, the
// runtime binary on PATH, or npx fetching it.
func Negotiate(opts Options, lookPath LookPathFunc) Strategy {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	tail := append([]string{}, opts.Args...)
	if opts.Flag != "" {
		tail = append(tail, opts.Flag)
	}
	tail = append(tail, opts.CharacterPath)

	if opts.Command != "" {
		return Strategy{Kind: DirectStart, Steps: append([]string{opts.Command}, tail...)}
	}
	if path, err := lookPath(RuntimeBinary); err == nil {
		return Strategy{Kind: DirectStart, Steps: append([]string{path}, tail...)}
	}
	if path, err := lookPath("npx"); err == nil {
		steps := append([]string{path, "-y", RuntimeBinary}, tail...)
		return Strategy{Kind: BuilderPattern, Steps: steps}
	}
	return Strategy{Kind: NotFound}
}
