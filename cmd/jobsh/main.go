package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"

	"jobsh/internal/config"
	"jobsh/internal/launch"
	"jobsh/internal/shell"
)

func main() {
	// Children of the shell re-enter here to set up redirections and exec.
	if launch.Init() {
		return
	}

	cfg, err := config.Load(afero.NewOsFs(), config.Path())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	s, err := shell.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing shell: %v\n", err)
		os.Exit(1)
	}

	os.Exit(s.Run())
}
