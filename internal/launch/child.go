package launch

import (
	"fmt"
	"io"
	"os"

	"github.com/pborman/getopt/v2"
	"golang.org/x/sys/unix"

	"jobsh/internal/parser"
)

// childArgv0 marks a process as the child stage of a launch.
const childArgv0 = "jobsh-launch"

// childArgs encodes req as the child stage's command line.
func childArgs(req Request) []string {
	argv := []string{childArgv0}
	if req.Redirect.Input != "" {
		argv = append(argv, "--stdin="+req.Redirect.Input)
	}
	if req.Redirect.Output != "" {
		argv = append(argv, "--stdout="+req.Redirect.Output)
		if req.Redirect.Append {
			argv = append(argv, "--append")
		}
	}
	argv = append(argv, "--", req.Path)
	return append(argv, req.Args...)
}

// Init runs the child stage when the current process was started as one and
// never returns in that case. It must be called first thing in main, and in
// TestMain of any package that launches programs.
func Init() bool {
	if len(os.Args) == 0 || os.Args[0] != childArgv0 {
		return false
	}
	os.Exit(runChild(os.Args, InteractivePolicy, os.Stderr))
	return true
}

// runChild is everything between fork and exec that SysProcAttr can't do.
// The process group and terminal have already been set up by the fork.
func runChild(args []string, policy Policy, stderr io.Writer) int {
	opts := getopt.New()
	stdin := opts.StringLong("stdin", 'i', "", "read standard input from FILE", "FILE")
	stdout := opts.StringLong("stdout", 'o', "", "write standard output to FILE", "FILE")
	appendOut := opts.BoolLong("append", 'a', "append to the --stdout file")

	if err := opts.Getopt(args, nil); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", childArgv0, err)
		return 1
	}
	rest := opts.Args()
	if len(rest) == 0 {
		fmt.Fprintf(stderr, "%s: missing program\n", childArgv0)
		return 1
	}
	path, argv := rest[0], rest[1:]
	name := parser.BaseName(path)

	policy.Restore()

	if *stdin != "" {
		if err := redirect(0, *stdin, unix.O_RDONLY, 0); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", name, err)
			return 1
		}
	}

	if *stdout != "" {
		flags := unix.O_RDWR | unix.O_CREAT
		if *appendOut {
			flags |= unix.O_APPEND
		} else {
			flags |= unix.O_TRUNC
		}
		if err := redirect(1, *stdout, flags, 0777); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", name, err)
			return 1
		}
	}

	err := unix.Exec(path, argv, os.Environ())
	fmt.Fprintf(stderr, "execv: %v\n", err)
	return 1
}

// redirect opens path onto descriptor target.
func redirect(target int, path string, flags int, mode uint32) error {
	fd, err := unix.Open(path, flags, mode)
	if err != nil {
		return err
	}
	if fd == target {
		return nil
	}
	if err := unix.Dup3(fd, target, 0); err != nil {
		unix.Close(fd)
		return err
	}
	return unix.Close(fd)
}
