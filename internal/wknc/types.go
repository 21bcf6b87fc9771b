package wknc

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wkncstats/spinstats/internal/spin"
)

// utcTimeLayout is the timestamp format the API uses for spin start/end.
const utcTimeLayout = "2006-01-02T15:04:05Z"

// spinID tolerates both encodings the API has been observed to use for the
// id field: a JSON string and a bare integer.
type spinID string

func (id *spinID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = spinID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*id = spinID(n.String())
		return nil
	}
	return fmt.Errorf("id is neither string nor number: %s", data)
}

// wireSpin is one element of the API's JSON array response.
type wireSpin struct {
	ID     spinID `json:"id"`
	Artist string `json:"artist"`
	Song   string `json:"song"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// toSpin validates a wire record and converts it into a domain spin with
// sanitized display text. Records missing required fields or carrying
// unparseable timestamps are rejected.
func (w wireSpin) toSpin() (spin.Spin, error) {
	if w.ID == "" {
		return spin.Spin{}, errors.New("missing id")
	}
	if w.Artist == "" {
		return spin.Spin{}, errors.New("missing artist")
	}
	if w.Song == "" {
		return spin.Spin{}, errors.New("missing song")
	}
	start, err := time.Parse(utcTimeLayout, w.Start)
	if err != nil {
		return spin.Spin{}, fmt.Errorf("parsing start: %w", err)
	}
	end, err := time.Parse(utcTimeLayout, w.End)
	if err != nil {
		return spin.Spin{}, fmt.Errorf("parsing end: %w", err)
	}
	return spin.Spin{
		ID:     string(w.ID),
		Artist: spin.SanitizeText(w.Artist),
		Song:   spin.SanitizeText(w.Song),
		Start:  start.UTC(),
		End:    end.UTC(),
	}, nil
}
