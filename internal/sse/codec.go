// Package sse implements the frame codec used to stream chat events over a
// single HTTP response: each frame is one or more "data: <json>" lines
// followed by a blank line.
package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	dataPrefix = []byte("data:")
	delimiter  = []byte("\n\n")
	crlf       = []byte("\r\n")
	lf         = []byte("\n")
)

// Encode serializes e as a single frame.
func Encode(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	buf := make([]byte, 0, len(payload)+8)
	buf = append(buf, "data: "...)
	buf = append(buf, payload...)
	buf = append(buf, delimiter...)
	return buf, nil
}

// Decode parses every complete record in buf. The trailing incomplete
// fragment is returned as rest so it can be joined with the next read.
// Malformed records are reported in the joined error; records after them
// are still decoded.
func Decode(buf []byte) (events []Event, rest []byte, err error) {
	var d Decoder
	_, _ = d.Write(buf)
	var errs []error
	for {
		ev, ok, derr := d.Next()
		if derr != nil {
			errs = append(errs, derr)
			continue
		}
		if !ok {
			break
		}
		events = append(events, ev)
	}
	return events, d.Buffered(), errors.Join(errs...)
}

// Decoder reassembles records across arbitrary read boundaries.
type Decoder struct {
	buf []byte
}

// Write appends p to the carry-over buffer. It never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	if bytes.Contains(d.buf, crlf) {
		d.buf = bytes.ReplaceAll(d.buf, crlf, lf)
	}
	return len(p), nil
}

// Next returns the next complete record. ok is false when more input is
// needed. A malformed record is consumed and returned as a *DecodeError.
func (d *Decoder) Next() (ev Event, ok bool, err error) {
	for {
		i := bytes.Index(d.buf, delimiter)
		if i < 0 {
			return Event{}, false, nil
		}
		record := d.buf[:i]
		d.buf = d.buf[i+len(delimiter):]

		payload, has := dataOf(record)
		if !has {
			continue
		}
		ev, err := parse(payload)
		if err != nil {
			return Event{}, false, &DecodeError{Record: string(record), Err: err}
		}
		return ev, true, nil
	}
}

// Buffered returns the unconsumed tail.
func (d *Decoder) Buffered() []byte {
	return d.buf
}

// dataOf joins the data lines of a record. Comments and other fields are
// ignored.
func dataOf(record []byte) ([]byte, bool) {
	var lines [][]byte
	for _, line := range bytes.Split(record, lf) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if !bytes.HasPrefix(line, dataPrefix) {
			continue
		}
		v := line[len(dataPrefix):]
		v = bytes.TrimPrefix(v, []byte(" "))
		lines = append(lines, v)
	}
	if len(lines) == 0 {
		return nil, false
	}
	return bytes.Join(lines, lf), true
}

func parse(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, err
	}
	if !ev.Type.valid() {
		return Event{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return ev, nil
}
