package slicer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ConvertToSTL converts a 3MF model to STL using the slicer binary and returns
// the new file path. The original file is removed on success. A conversion
// failure rejects the upload before any job is created.
func (s *PrusaSlicer) ConvertToSTL(ctx context.Context, modelPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stlPath := strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".stl"

	cmd := exec.CommandContext(ctx, s.binary, "--export-stl", "--output", stlPath, modelPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("3mf conversion failed: %s", strings.TrimSpace(tail(string(out), 300)))
	}
	if _, err := os.Stat(stlPath); err != nil {
		return "", fmt.Errorf("3mf conversion produced no output")
	}

	if err := os.Remove(modelPath); err != nil {
		s.logger.Warn("failed to remove converted 3mf source", zap.String("path", modelPath), zap.Error(err))
	}
	return stlPath, nil
}
