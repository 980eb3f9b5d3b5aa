package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/LdDl/centroid-mot/mot"
)

const maxLineSize = 4 * 1024 * 1024

// Frame is one line of detection file: frame number and boxes as (minX, minY, maxX, maxY).
type Frame struct {
	Index int
	Boxes []mot.BoundingBox
}

type frameLine struct {
	Frame      *int        `json:"frame"`
	Detections [][]float64 `json:"detections"`
}

// Reader reads JSON lines of the form {"frame": 12, "detections": [[minX, minY, maxX, maxY], ...]}.
// Frames without "frame" field are numbered by their position in the file.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	frames  int
}

func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scanner: scanner}
}

// Next returns next frame or io.EOF when input is exhausted. Blank lines are skipped.
func (r *Reader) Next() (Frame, error) {
	for r.scanner.Scan() {
		r.line++
		raw := bytes.TrimSpace(r.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var parsed frameLine
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return Frame{}, fmt.Errorf("line %d: parse frame: %w", r.line, err)
		}
		frame := Frame{
			Index: r.frames,
			Boxes: make([]mot.BoundingBox, 0, len(parsed.Detections)),
		}
		if parsed.Frame != nil {
			frame.Index = *parsed.Frame
		}
		for i, det := range parsed.Detections {
			if len(det) != 4 {
				return Frame{}, fmt.Errorf("line %d: detection %d has %d values, expected 4", r.line, i, len(det))
			}
			frame.Boxes = append(frame.Boxes, mot.NewBoundingBox(det[0], det[1], det[2], det[3]))
		}
		r.frames++
		return frame, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Frame{}, fmt.Errorf("line %d: read: %w", r.line+1, err)
	}
	return Frame{}, io.EOF
}
