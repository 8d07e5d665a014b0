// Command sass-embedded-host is the process entry point for the compiler
// host (spec §6.3): it recognizes exactly one flag, --version, and
// otherwise speaks the wire protocol over stdin/stdout for its entire
// lifetime.
//
// Flag parsing loosely follows the teacher's shape — flags declared and
// parsed once at the top of the entry point (debug.go,
// samples/mount_hello/mount.go) — except that the single flag lives on a
// pflag.FlagSet local to run rather than at package level, and the stdlib
// flag package is swapped for github.com/spf13/pflag, the dependency vsrinivas-fuchsia's go.mod
// carries for exactly this purpose; see DESIGN.md for why that's a
// named-not-exemplified grounding.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	host "github.com/sass-embedded/compiler-host"
	"github.com/sass-embedded/compiler-host/engine"
	"github.com/sass-embedded/compiler-host/engine/refengine"
	"github.com/sass-embedded/compiler-host/pool"
	"github.com/sass-embedded/compiler-host/protocol"

	"github.com/jacobsa/timeutil"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin *os.File, stdout, stderr *os.File) int {
	flags := pflag.NewFlagSet("sass-embedded-host", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	version := flags.Bool("version", false, "print version information as JSON and exit")

	if err := flags.Parse(args); err != nil {
		return host.ExitUsageError
	}
	if flags.NArg() > 0 {
		fmt.Fprintf(stderr, "sass-embedded-host: unrecognized argument %q\n", flags.Arg(0))
		return host.ExitUsageError
	}

	if *version {
		b, err := protocol.MarshalVersionJSON(protocol.NewVersionResponse(0))
		if err != nil {
			fmt.Fprintf(stderr, "sass-embedded-host: %v\n", err)
			return host.ExitUsageError
		}
		fmt.Fprintln(stdout, string(b))
		return host.ExitOK
	}

	p := pool.New(func() engine.Engine { return refengine.New() }, timeutil.RealClock())
	d := host.New(stdin, stdout, stderr, p)
	return d.Run()
}
