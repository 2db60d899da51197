package shell

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"jobsh/internal/config"
	"jobsh/internal/jobs"
	"jobsh/internal/launch"
	"jobsh/internal/parser"
)

// Shell is one interactive session. Everything the read-eval loop mutates
// lives here.
type Shell struct {
	config    *config.Config
	jobs      *jobs.Registry
	nextJobID int
	terminal  *launch.Terminal
	launcher  *launch.Launcher
	policy    launch.Policy
	reader    LineReader
	stdout    io.Writer
	stderr    io.Writer
	logger    *log.Logger
	closers   []io.Closer
	exiting   bool
}

// New creates a shell on the process's standard streams.
func New(cfg *config.Config) (*Shell, error) {
	term := launch.OpenTerminal(os.Stdin)

	var reader LineReader
	if cfg.LineEditing && term.Enabled() && isatty.IsTerminal(os.Stdout.Fd()) {
		rl, err := newReadlineReader(cfg.HistoryFile)
		if err != nil {
			return nil, fmt.Errorf("error initializing readline: %w", err)
		}
		reader = rl
	} else {
		reader = newPlainReader(os.Stdin, os.Stdout)
	}

	s := newShell(cfg, reader, os.Stdout, os.Stderr, term)

	logFile, err := cfg.OpenLog()
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("error opening log: %w", err)
	}
	if logFile != nil {
		s.setLogger(log.New(logFile, "jobsh ", log.LstdFlags|log.Lmicroseconds))
		s.closers = append(s.closers, logFile)
	}

	return s, nil
}

// NewWithIO creates a shell reading lines from in. term decides whether job
// control is active.
func NewWithIO(cfg *config.Config, in io.Reader, stdout, stderr io.Writer, term *launch.Terminal) *Shell {
	return newShell(cfg, newPlainReader(in, stdout), stdout, stderr, term)
}

func newShell(cfg *config.Config, reader LineReader, stdout, stderr io.Writer, term *launch.Terminal) *Shell {
	logger := log.New(io.Discard, "", 0)
	return &Shell{
		config:    cfg,
		jobs:      jobs.New(),
		nextJobID: 1,
		terminal:  term,
		launcher:  launch.New(term, logger),
		policy:    launch.InteractivePolicy,
		reader:    reader,
		stdout:    stdout,
		stderr:    stderr,
		logger:    logger,
		closers:   []io.Closer{reader},
	}
}

func (s *Shell) setLogger(logger *log.Logger) {
	s.logger = logger
	s.launcher.Logger = logger
}

// Run is the read-eval loop. It returns the process exit status once the
// input ends or exit is run.
func (s *Shell) Run() int {
	defer s.close()

	for !s.exiting {
		s.policy.Ignore()
		s.reap()

		line, err := s.reader.ReadLine(s.prompt())
		if err == io.EOF {
			s.logger.Printf("end of input")
			break
		}
		if err != nil {
			fmt.Fprintf(s.stderr, "read: %v\n", err)
			continue
		}

		s.Execute(line)
	}

	s.jobs.Close()
	return 0
}

// Execute runs one line of input.
func (s *Shell) Execute(line string) Outcome {
	cmd, err := parser.Parse(line)
	if err != nil {
		fmt.Fprintln(s.stderr, err)
		return HandledWithError
	}
	if cmd == nil {
		return Handled
	}

	if outcome := s.dispatch(cmd); outcome != NotBuiltin {
		return outcome
	}
	return s.runExternal(cmd)
}

func (s *Shell) prompt() string {
	if !promptEnabled {
		return ""
	}
	if attr, ok := promptColors[s.config.PromptColor]; ok {
		return color.New(attr).Sprint(s.config.Prompt)
	}
	return s.config.Prompt
}

var promptColors = map[string]color.Attribute{
	"black":   color.FgBlack,
	"red":     color.FgRed,
	"green":   color.FgGreen,
	"yellow":  color.FgYellow,
	"blue":    color.FgBlue,
	"magenta": color.FgMagenta,
	"cyan":    color.FgCyan,
	"white":   color.FgWhite,
}

func (s *Shell) close() {
	for _, c := range s.closers {
		c.Close()
	}
	s.closers = nil
}
