package export

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
)

type line struct {
	Record
	Cursor string `json:"cursor"`
}

// WriteJSONLines writes one JSON object per record and returns the cursor of the last
// record written. On error the returned cursor is still a valid resume point.
func WriteJSONLines(w io.Writer, records iter.Seq2[Record, error]) (Cursor, int, error) {
	enc := json.NewEncoder(w)
	var last Cursor
	n := 0
	for r, err := range records {
		if err != nil {
			return last, n, err
		}
		if err := enc.Encode(line{Record: r, Cursor: r.Cursor().String()}); err != nil {
			return last, n, fmt.Errorf("write export record: %w", err)
		}
		last = r.Cursor()
		n++
	}
	return last, n, nil
}
