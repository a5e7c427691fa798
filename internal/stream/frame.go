package stream

import (
	"bytes"
	"encoding/json"

	"thaipool/internal/models"
)

const framePrefix = "data: "

// decoder turns raw network reads into status events. Reads can split a
// frame anywhere, so bytes are buffered until a full newline-terminated line
// is available, then each complete line is parsed on its own. Parsing before
// the line is complete drops or corrupts frames under small TCP reads.
type decoder struct {
	buf []byte
}

func (d *decoder) feed(p []byte) []StatusEvent {
	d.buf = append(d.buf, p...)

	var out []StatusEvent
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			return out
		}
		line := d.buf[:idx]
		d.buf = d.buf[idx+1:]
		if ev, ok := parseFrame(line); ok {
			out = append(out, ev)
		}
	}
}

// parseFrame parses one line of the push protocol. Lines without the data
// prefix (blank separators, comments) are skipped, as are payloads with a
// missing or unparsable status. A "pending" status carries no information
// over the starting assumption and is dropped too.
func parseFrame(line []byte) (StatusEvent, bool) {
	line = bytes.TrimSuffix(line, []byte("\r"))
	if !bytes.HasPrefix(line, []byte(framePrefix)) {
		return StatusEvent{}, false
	}
	payload := line[len(framePrefix):]

	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return StatusEvent{}, false
	}
	if body.Status == "" || body.Status == string(models.OrderPending) {
		return StatusEvent{}, false
	}
	return StatusEvent{Status: models.OrderStatus(body.Status)}, true
}
