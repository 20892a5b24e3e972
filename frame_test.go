package scale

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func frameStrings(frames [][]byte) []string {
	out := make([]string, 0, len(frames))
	for _, f := range frames {
		out = append(out, string(f))
	}
	return out
}

func TestExtractor_Frames(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  []string
	}{
		{
			name:  "single frame",
			input: []byte{0x02, 0x35, 0x30, 0x30, 0x03},
			want:  []string{"500"},
		},
		{
			name:  "two frames in one chunk",
			input: []byte{0x02, 0x31, 0x32, 0x2E, 0x35, 0x03, 0x02, 0x31, 0x33, 0x03},
			want:  []string{"12.5", "13"},
		},
		{
			name:  "noise around frame",
			input: []byte("xx\x02 1.250kg\x03\r\n"),
			want:  []string{" 1.250kg"},
		},
		{
			name:  "no start marker",
			input: []byte("500\x03 12.5\x03"),
			want:  []string{},
		},
		{
			name:  "start marker without end",
			input: []byte("\x02500"),
			want:  []string{},
		},
		{
			name:  "start marker inside frame is payload",
			input: []byte("\x02ab\x02cd\x03"),
			want:  []string{"ab\x02cd"},
		},
		{
			name:  "empty frame",
			input: []byte("\x02\x03"),
			want:  []string{""},
		},
		{
			name:  "empty chunk",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ext Extractor
			require.Equal(t, tt.want, frameStrings(ext.Frames(tt.input)))
		})
	}
}

func TestExtractor_ManyDisjointFrames(t *testing.T) {
	var input []byte
	var want []string
	for i := 0; i < 50; i++ {
		payload := []byte{byte('A' + i%26), byte('0' + i%10)}
		input = append(input, 0xFF)
		input = append(input, STX)
		input = append(input, payload...)
		input = append(input, ETX)
		want = append(want, string(payload))
	}

	var ext Extractor
	require.Equal(t, want, frameStrings(ext.Frames(input)))
}

func TestExtractor_FrameSplitAcrossChunks(t *testing.T) {
	var ext Extractor

	require.Empty(t, ext.Frames([]byte("\x0212")))
	require.True(t, ext.Capturing())

	require.Equal(t, []string{"12.5"}, frameStrings(ext.Frames([]byte(".5\x03\x021"))))
	require.True(t, ext.Capturing())

	require.Equal(t, []string{"13"}, frameStrings(ext.Frames([]byte("3\x03"))))
	require.False(t, ext.Capturing())
}

func TestExtractor_Reset(t *testing.T) {
	var ext Extractor
	require.Empty(t, ext.Frames([]byte("\x02stale")))
	ext.Reset()
	require.False(t, ext.Capturing())
	require.Empty(t, ext.Frames([]byte("tail\x03")))
}

func TestExtractor_OversizedFrameDropped(t *testing.T) {
	var ext Extractor
	junk := append([]byte{STX}, bytes.Repeat([]byte{'9'}, MaxFrameSize+10)...)
	require.Empty(t, ext.Frames(junk))
	require.False(t, ext.Capturing())

	require.Equal(t, []string{"7"}, frameStrings(ext.Frames([]byte("\x037\x03\x027\x03"))))
}

func TestExtractor_EmittedFrameIsOwned(t *testing.T) {
	var ext Extractor
	frames := ext.Frames([]byte("\x02abc\x03"))
	ext.Frames([]byte("\x02xyz\x03"))
	require.Equal(t, "abc", string(frames[0]))
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte("500")))
	require.NoError(t, WriteFrame(&buf, []byte(" 12.5 kg ")))
	require.Equal(t, "500\n 12.5 kg \n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteFrame_Error(t *testing.T) {
	require.Error(t, WriteFrame(failingWriter{}, []byte("1")))
}
