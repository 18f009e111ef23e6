// Package cmdutil holds the small helpers shared by the motif commands:
// flag parsing with a usage line, argument access and fatal assertions.
package cmdutil

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

// FlagParse sets the usage message of the command and parses flags.
// argUsage describes the positional arguments and description is printed
// after it.
func FlagParse(argUsage, description string) {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "\nUsage: %s [flags] %s\n",
			filepath.Base(os.Args[0]), argUsage)
		if len(description) > 0 {
			fmt.Fprintf(os.Stderr, "\n%s\n", description)
		}
		fmt.Fprintln(os.Stderr)
		flag.PrintDefaults()
	}
	flag.Parse()
}

// AssertNArg exits with the usage message unless there are exactly n
// positional arguments.
func AssertNArg(n int) {
	if flag.NArg() != n {
		flag.Usage()
		os.Exit(1)
	}
}

// AssertLeastNArg exits with the usage message unless there are at least n
// positional arguments.
func AssertLeastNArg(n int) {
	if flag.NArg() < n {
		flag.Usage()
		os.Exit(1)
	}
}

// Arg returns the i'th positional argument.
func Arg(i int) string {
	return flag.Arg(i)
}

// Args returns the positional arguments from i on.
func Args(i int) []string {
	return flag.Args()[i:]
}

// Assert exits with an error message if err is not nil. The optional format
// and arguments are prepended to the error.
func Assert(err error, format ...interface{}) {
	if err == nil {
		return
	}
	if len(format) > 0 {
		msg := fmt.Sprintf(format[0].(string), format[1:]...)
		Fatalf("%s: %s", msg, err)
	}
	Fatalf("%s", err)
}

// Fatalf prints an error message and exits.
func Fatalf(format string, v ...interface{}) {
	log.Fatalf(strings.TrimSpace(format), v...)
}

// CreateFile creates a file or exits.
func CreateFile(fpath string) *os.File {
	f, err := os.Create(fpath)
	Assert(err, "Could not create file '%s'", fpath)
	return f
}

// OpenFile opens a file for reading or exits.
func OpenFile(fpath string) *os.File {
	f, err := os.Open(fpath)
	Assert(err, "Could not open file '%s'", fpath)
	return f
}

// Context returns a context that is cancelled on an interrupt or a SIGTERM.
func Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
