package slicer

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
)

var (
	sizeRe   = regexp.MustCompile(`size_x = (.+?)\nsize_y = (.+?)\nsize_z = (.+?)\n`)
	volumeRe = regexp.MustCompile(`volume = (.+?)\n`)
)

type modelDims struct {
	x, y, z   float64
	volumeCM3 float64
}

// parseInfoOutput extracts the bounding box (and volume, when reported) from
// `prusa-slicer --info` stdout. The volume line is in mm3.
func parseInfoOutput(out string) (modelDims, bool) {
	m := sizeRe.FindStringSubmatch(out)
	if m == nil {
		return modelDims{}, false
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(m[2]), 64)
	z, errZ := strconv.ParseFloat(strings.TrimSpace(m[3]), 64)
	if errX != nil || errY != nil || errZ != nil {
		return modelDims{}, false
	}

	dims := modelDims{x: x, y: y, z: z}
	if vm := volumeRe.FindStringSubmatch(out); vm != nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(vm[1]), 64); err == nil {
			dims.volumeCM3 = v / 1000.0
		}
	}
	return dims, true
}

const (
	filamentUsedMarker = "; total filament used [g] ="
	printTimeMarker    = "; estimated printing time"
)

// parseGcode scans gcode comments for the filament weight and time estimate
// PrusaSlicer appends to its output.
func parseGcode(sc *bufio.Scanner) (gcodeMeta, error) {
	meta := gcodeMeta{printTime: "Unknown"}
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.Contains(line, filamentUsedMarker):
			if _, val, ok := strings.Cut(line, "="); ok {
				if g, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
					meta.filamentG = g
				}
			}
		case strings.Contains(line, printTimeMarker):
			if _, val, ok := strings.Cut(line, "="); ok {
				meta.printTime = strings.TrimSpace(val)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return meta, err
	}
	return meta, nil
}
