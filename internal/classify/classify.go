// Package classify wraps the external fasttext command-line tool for
// supervised training and evaluation over the exported corpus files. The
// pipeline's responsibility ends at producing those files; this wrapper
// exists so a whole run can be driven from one place.
package classify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Hyperparams are the supervised training knobs passed through to fasttext.
type Hyperparams struct {
	LearningRate float64
	WordNgrams   int
	Epochs       int
}

// Report is the evaluation result over the test file.
type Report struct {
	Examples  int
	Precision float64
	Recall    float64
}

// CLI wraps the fasttext binary.
type CLI struct {
	binary string
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "fasttext"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Train runs supervised training over trainPath and writes the model to
// modelBase (fasttext appends ".bin" itself).
func (c *CLI) Train(ctx context.Context, trainPath, modelBase string, hp Hyperparams) error {
	if trainPath == "" {
		return errors.New("train file required")
	}
	if modelBase == "" {
		return errors.New("model output path required")
	}

	args := []string{
		"supervised",
		"-input", trainPath,
		"-output", modelBase,
		"-lr", strconv.FormatFloat(hp.LearningRate, 'g', -1, 64),
		"-wordNgrams", strconv.Itoa(hp.WordNgrams),
		"-epoch", strconv.Itoa(hp.Epochs),
	}
	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("fasttext supervised: %w: %s", err, firstLine(stderr.String()))
	}
	return nil
}

// Test evaluates the model against testPath and parses the N / P@1 / R@1
// summary fasttext prints.
func (c *CLI) Test(ctx context.Context, modelBase, testPath string) (Report, error) {
	if modelBase == "" {
		return Report{}, errors.New("model path required")
	}
	if testPath == "" {
		return Report{}, errors.New("test file required")
	}

	cmd := commandContext(ctx, c.binary, "test", modelBase+".bin", testPath) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Report{}, fmt.Errorf("fasttext test: %w: %s", err, firstLine(stderr.String()))
	}
	return ParseTestOutput(stdout.String())
}

// ParseTestOutput parses fasttext's evaluation summary, e.g.
//
//	N	9
//	P@1	0.667
//	R@1	0.333
func ParseTestOutput(out string) (Report, error) {
	var rep Report
	seen := 0
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		switch fields[0] {
		case "N":
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return Report{}, fmt.Errorf("parse example count %q: %w", fields[1], err)
			}
			rep.Examples = n
			seen++
		case "P@1":
			p, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return Report{}, fmt.Errorf("parse precision %q: %w", fields[1], err)
			}
			rep.Precision = p
			seen++
		case "R@1":
			r, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return Report{}, fmt.Errorf("parse recall %q: %w", fields[1], err)
			}
			rep.Recall = r
			seen++
		}
	}
	if seen < 3 {
		return Report{}, fmt.Errorf("unexpected fasttext test output: %s", firstLine(out))
	}
	return rep, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 200
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
