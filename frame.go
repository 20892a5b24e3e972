package scale

import (
	"bytes"
	"io"
)

// Wire protocol bytes.
const (
	ENQ byte = 0x05 // poll request
	STX byte = 0x02 // start of frame
	ETX byte = 0x03 // end of frame
)

// MaxFrameSize caps a partial payload. A capture that grows past it is
// discarded and the extractor goes back to waiting for STX.
const MaxFrameSize = 1024

// Extractor pulls STX ... ETX payloads out of a byte stream.
//
// State is kept between calls to Feed, so a frame split across two reads is
// still delivered once its ETX arrives. An STX seen while capturing is treated
// as payload. The zero value is ready to use.
type Extractor struct {
	capturing bool
	payload   []byte
}

// Feed scans chunk and calls emit once for every completed frame, in order.
// The slice passed to emit is owned by the caller.
func (e *Extractor) Feed(chunk []byte, emit func(frame []byte)) {
	for _, b := range chunk {
		if !e.capturing {
			if b == STX {
				e.capturing = true
				e.payload = e.payload[:0]
			}
			continue
		}
		if b == ETX {
			e.capturing = false
			emit(bytes.Clone(e.payload))
			continue
		}
		if len(e.payload) >= MaxFrameSize {
			e.Reset()
			continue
		}
		e.payload = append(e.payload, b)
	}
}

// Frames feeds chunk and returns the frames it completed.
func (e *Extractor) Frames(chunk []byte) [][]byte {
	var out [][]byte
	e.Feed(chunk, func(frame []byte) { out = append(out, frame) })
	return out
}

// Capturing reports whether an STX has been seen without its ETX.
func (e *Extractor) Capturing() bool { return e.capturing }

// Reset drops any partial frame.
func (e *Extractor) Reset() {
	e.capturing = false
	e.payload = e.payload[:0]
}

// WriteFrame writes frame verbatim followed by a newline, in a single Write.
func WriteFrame(w io.Writer, frame []byte) error {
	line := make([]byte, 0, len(frame)+1)
	line = append(line, frame...)
	line = append(line, '\n')
	_, err := w.Write(line)
	return err
}
