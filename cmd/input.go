package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/ansel1/tally/engine"
)

// streamFlags are shared by the commands that read a result stream.
type streamFlags struct {
	infile   string
	outfile  string
	jsonfile string
}

// openInput returns the named file, or stdin when name is empty or "-".
func openInput(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("error opening input file: %w", err)
	}
	return f, nil
}

// engineOptions opens the --outfile and --jsonfile copies. The returned
// closer releases them.
func (s streamFlags) engineOptions() ([]engine.Option, func(), error) {
	var (
		opts  []engine.Option
		files []*os.File
	)
	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	if s.outfile != "" {
		f, err := os.Create(s.outfile)
		if err != nil {
			return nil, nil, fmt.Errorf("error creating output file: %w", err)
		}
		files = append(files, f)
		opts = append(opts, engine.WithRawOutput(f))
	}
	if s.jsonfile != "" {
		f, err := os.Create(s.jsonfile)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("error creating JSON file: %w", err)
		}
		files = append(files, f)
		opts = append(opts, engine.WithJSONOutput(f))
	}
	return opts, closeAll, nil
}
