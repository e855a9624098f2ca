// Package slicer wraps the external PrusaSlicer binary: model inspection,
// gcode export, and extraction of filament usage and print time estimates.
package slicer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrOversizedModel           = errors.New("model is too large to print")
	ErrToolInvocationFailed     = errors.New("slicer invocation failed")
	ErrUndeterminableDimensions = errors.New("model dimensions could not be determined")
)

// Result is the parsed output of a successful slicer run. Error is set when
// the tool ran but produced unusable output (no filament extruded).
type Result struct {
	SizeX         float64 `json:"size_x"`
	SizeY         float64 `json:"size_y"`
	SizeZ         float64 `json:"size_z"`
	VolumeCM3     float64 `json:"volume_cm3"`
	FilamentUsedG float64 `json:"filament_used_g"`
	EstimatedTime string  `json:"estimated_time"`
	HasSupports   bool    `json:"has_supports"`
	Error         string  `json:"error,omitempty"`
}

// Options configures a PrusaSlicer adapter.
type Options struct {
	Binary       string        // slicer executable, default "prusa-slicer"
	Profile      string        // printer profile .ini passed to --load
	MaxDimension float64       // build plate limit in mm, default 256
	Timeout      time.Duration // deadline for the whole slice, default 5m
}

// PrusaSlicer invokes the slicer binary. All invocations are expected to go
// through the single queue worker; the adapter itself holds no state.
type PrusaSlicer struct {
	binary       string
	profile      string
	maxDimension float64
	timeout      time.Duration
	logger       *zap.Logger
}

func New(opts Options, logger *zap.Logger) *PrusaSlicer {
	if opts.Binary == "" {
		opts.Binary = "prusa-slicer"
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 256.0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	return &PrusaSlicer{
		binary:       opts.Binary,
		profile:      opts.Profile,
		maxDimension: opts.MaxDimension,
		timeout:      opts.Timeout,
		logger:       logger,
	}
}

// Slice inspects the model, rejects anything over the build volume, slices it
// to gcode, and returns filament usage and the time estimate. The returned
// error is one of the package sentinels (possibly wrapped).
func (s *PrusaSlicer) Slice(ctx context.Context, modelPath string, fillDensity float64, supports bool) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dims, err := s.inspect(ctx, modelPath)
	if err != nil {
		return nil, err
	}
	if dims.x > s.maxDimension || dims.y > s.maxDimension || dims.z > s.maxDimension {
		return nil, fmt.Errorf("%w: %.1fx%.1fx%.1fmm exceeds %.0fmm",
			ErrOversizedModel, dims.x, dims.y, dims.z, s.maxDimension)
	}

	gcodePath := strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".gcode"
	defer os.Remove(gcodePath)

	args := []string{
		"--load", s.profile,
		"--fill-density", fmt.Sprintf("%g", fillDensity),
		"--export-gcode",
		"--output", gcodePath,
	}
	if supports {
		args = append(args, "--support-material", "--support-material-auto")
	}
	args = append(args, modelPath)

	s.logger.Debug("slicing model",
		zap.String("model", modelPath),
		zap.Float64("fill_density", fillDensity),
		zap.Bool("supports", supports))

	cmd := exec.CommandContext(ctx, s.binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, invocationError(ctx, err, out)
	}

	meta, err := parseGcodeFile(gcodePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToolInvocationFailed, err)
	}

	res := &Result{
		SizeX:         dims.x,
		SizeY:         dims.y,
		SizeZ:         dims.z,
		VolumeCM3:     dims.volumeCM3,
		FilamentUsedG: meta.filamentG,
		EstimatedTime: meta.printTime,
		HasSupports:   supports,
	}
	if meta.filamentG <= 0 {
		res.Error = "slicer produced no output"
	}
	return res, nil
}

// inspect runs the slicer in --info mode and parses the model dimensions.
func (s *PrusaSlicer) inspect(ctx context.Context, modelPath string) (modelDims, error) {
	cmd := exec.CommandContext(ctx, s.binary, "--info", modelPath)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		var stderr []byte
		if errors.As(err, &exitErr) {
			stderr = exitErr.Stderr
		}
		return modelDims{}, invocationError(ctx, err, stderr)
	}

	dims, ok := parseInfoOutput(string(out))
	if !ok {
		return modelDims{}, ErrUndeterminableDimensions
	}
	return dims, nil
}

func invocationError(ctx context.Context, err error, output []byte) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: timed out", ErrToolInvocationFailed)
	}
	msg := strings.TrimSpace(tail(string(output), 500))
	if msg == "" {
		return fmt.Errorf("%w: %v", ErrToolInvocationFailed, err)
	}
	return fmt.Errorf("%w: %s", ErrToolInvocationFailed, msg)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

type gcodeMeta struct {
	filamentG float64
	printTime string
}

func parseGcodeFile(path string) (gcodeMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return gcodeMeta{}, fmt.Errorf("gcode output missing: %v", err)
	}
	defer f.Close()
	return parseGcode(bufio.NewScanner(f))
}
