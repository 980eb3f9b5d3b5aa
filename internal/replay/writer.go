package replay

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/LdDl/centroid-mot/mot"
)

var header = []string{"frame", "id", "x", "y", "disappeared"}

// Writer dumps live tracks of every frame as ';'-separated CSV.
type Writer struct {
	csv         *csv.Writer
	wroteHeader bool
}

func NewWriter(w io.Writer) *Writer {
	writer := csv.NewWriter(w)
	writer.Comma = ';'
	return &Writer{csv: writer}
}

// WriteFrame writes one row per track, in the order given.
func (w *Writer) WriteFrame(frame int, tracks []mot.Track) error {
	if !w.wroteHeader {
		if err := w.csv.Write(header); err != nil {
			return err
		}
		w.wroteHeader = true
	}
	frameStr := strconv.Itoa(frame)
	for _, track := range tracks {
		err := w.csv.Write([]string{
			frameStr,
			strconv.Itoa(track.ID),
			strconv.FormatFloat(track.Centroid.X, 'f', -1, 64),
			strconv.FormatFloat(track.Centroid.Y, 'f', -1, 64),
			strconv.Itoa(track.Disappeared),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Flush writes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}
