// Package parser splits one input line into an argument vector and its
// redirections.
package parser

import (
	"path"
	"strings"
)

const (
	OpRedirectIn     = "<"
	OpRedirectOut    = ">"
	OpRedirectAppend = ">>"
	OpBackground     = "&"
)

// Redirect holds at most one input file and one output file. Empty paths
// mean the descriptor is inherited.
type Redirect struct {
	Input  string
	Output string
	Append bool
}

func (r Redirect) Empty() bool {
	return r.Input == "" && r.Output == ""
}

// Command is one parsed line. A trailing "&" is kept in Args; callers decide
// what it means.
type Command struct {
	Args     []string
	Redirect Redirect
}

// Background reports whether the last argument is the background marker.
func (c *Command) Background() bool {
	return len(c.Args) > 0 && c.Args[len(c.Args)-1] == OpBackground
}

// StripBackground removes a trailing "&" and reports whether one was there.
func (c *Command) StripBackground() bool {
	if !c.Background() {
		return false
	}
	c.Args = c.Args[:len(c.Args)-1]
	return true
}

// Name is the final path component of the program, as shown in job listings.
func (c *Command) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return BaseName(c.Args[0])
}

// BaseName returns the text after the last slash, ignoring trailing slashes.
func BaseName(p string) string {
	if strings.Trim(p, "/") == "" {
		return p
	}
	return path.Base(p)
}

// SyntaxError is returned for malformed redirections.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string {
	return "syntax error: " + e.Msg
}

func syntaxError(msg string) error {
	return &SyntaxError{Msg: msg}
}

func isRedirect(tok string) bool {
	switch tok {
	case OpRedirectIn, OpRedirectOut, OpRedirectAppend:
		return true
	}
	return false
}

// Fields splits a line on spaces and tabs.
func Fields(line string) []string {
	line = strings.TrimRight(line, "\r\n")
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t'
	})
}

// Parse tokenizes line. A blank line yields a nil Command and a nil error.
func Parse(line string) (*Command, error) {
	tokens := Fields(line)
	if len(tokens) == 0 {
		return nil, nil
	}

	cmd := &Command{Args: make([]string, 0, len(tokens))}
	inputs, outputs := 0, 0

	for i := 0; i < len(tokens); i++ {
		switch tok := tokens[i]; tok {
		case OpRedirectIn:
			inputs++
			if inputs > 1 {
				return nil, syntaxError("multiple input files")
			}
			if i+1 >= len(tokens) {
				return nil, syntaxError("no input file")
			}
			i++
			if isRedirect(tokens[i]) {
				return nil, syntaxError("input file is a redirection symbol")
			}
			cmd.Redirect.Input = tokens[i]
		case OpRedirectOut, OpRedirectAppend:
			outputs++
			if outputs > 1 {
				return nil, syntaxError("multiple output files")
			}
			if i+1 >= len(tokens) {
				return nil, syntaxError("no output file")
			}
			i++
			if isRedirect(tokens[i]) {
				return nil, syntaxError("output file is a redirection symbol")
			}
			cmd.Redirect.Output = tokens[i]
			cmd.Redirect.Append = tok == OpRedirectAppend
		default:
			cmd.Args = append(cmd.Args, tok)
		}
	}

	return cmd, nil
}
