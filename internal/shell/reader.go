package shell

import (
	"bufio"
	"fmt"
	"io"

	"github.com/chzyer/readline"
)

// LineReader yields one line of input per call and io.EOF once input is
// closed.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

type plainReader struct {
	in  *bufio.Reader
	out io.Writer
}

func newPlainReader(in io.Reader, out io.Writer) *plainReader {
	return &plainReader{in: bufio.NewReader(in), out: out}
}

func (r *plainReader) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(r.out, prompt)
	}
	line, err := r.in.ReadString('\n')
	if err == io.EOF && line != "" {
		return line, nil
	}
	return line, err
}

func (r *plainReader) Close() error {
	return nil
}

type readlineReader struct {
	rl *readline.Instance
}

func newReadlineReader(historyFile string) (*readlineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		HistoryFile: historyFile,
		// The shell never suspends itself.
		FuncFilterInputRune: func(r rune) (rune, bool) {
			if r == readline.CharCtrlZ {
				return r, false
			}
			return r, true
		},
	})
	if err != nil {
		return nil, err
	}
	return &readlineReader{rl: rl}, nil
}

func (r *readlineReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if err == readline.ErrInterrupt {
		return "", nil
	}
	return line, err
}

func (r *readlineReader) Close() error {
	return r.rl.Close()
}
