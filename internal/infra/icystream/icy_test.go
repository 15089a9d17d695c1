package icystream

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// icyFrame builds audio followed by a metadata block padded to 16 bytes.
func icyFrame(audio []byte, meta string) []byte {
	var buf bytes.Buffer
	buf.Write(audio)
	if meta == "" {
		buf.WriteByte(0)
		return buf.Bytes()
	}
	n := (len(meta) + metaBlockUnit - 1) / metaBlockUnit
	buf.WriteByte(byte(n))
	buf.WriteString(meta)
	buf.Write(make([]byte, n*metaBlockUnit-len(meta)))
	return buf.Bytes()
}

func TestICYReader_Next(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(icyFrame([]byte("abcd"), "StreamTitle='A - B';"))
	stream.Write(icyFrame([]byte("efgh"), ""))

	r := newICYReader(&stream, 4)
	var audio bytes.Buffer

	block, err := r.next(&audio)
	require.NoError(t, err)
	assert.Equal(t, "StreamTitle='A - B';", string(block))

	block, err = r.next(&audio)
	require.NoError(t, err)
	assert.Nil(t, block)
	assert.Equal(t, "abcdefgh", audio.String())

	_, err = r.next(&audio)
	assert.Error(t, err)
}

func TestICYReader_TruncatedBlock(t *testing.T) {
	data := []byte("abcd")
	data = append(data, 2)
	data = append(data, []byte("short")...)

	_, err := newICYReader(bytes.NewReader(data), 4).next(io.Discard)
	assert.Error(t, err)
}

func TestParseStreamTitle(t *testing.T) {
	tests := []struct {
		name   string
		block  string
		want   string
		wantOK bool
	}{
		{name: "simple", block: "StreamTitle='Cher - Believe';", want: "Cher - Believe", wantOK: true},
		{name: "with url field", block: "StreamTitle='A - B';StreamUrl='http://x';", want: "A - B", wantOK: true},
		{name: "quote inside title", block: "StreamTitle='Guns N' Roses - Patience';", want: "Guns N' Roses - Patience", wantOK: true},
		{name: "empty title", block: "StreamTitle='';", want: "", wantOK: true},
		{name: "missing terminator", block: "StreamTitle='A - B'", want: "A - B", wantOK: true},
		{name: "no title field", block: "StreamUrl='http://x';", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseStreamTitle([]byte(tt.block))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, string(got))
			}
		})
	}
}

func TestDecodeTitle(t *testing.T) {
	tests := []struct {
		name  string
		raw   []byte
		label string
		want  string
	}{
		{name: "utf-8 kept", raw: []byte("Beyoncé - Halo"), want: "Beyoncé - Halo"},
		{name: "latin1 fallback", raw: []byte("Beyonc\xe9 - Halo"), want: "Beyoncé - Halo"},
		{name: "explicit label", raw: []byte("Beyonc\xe9 - Halo"), label: "iso-8859-1", want: "Beyoncé - Halo"},
		{name: "unknown label falls back", raw: []byte("plain"), label: "no-such-charset", want: "plain"},
		{name: "shift_jis label", raw: []byte{0x82, 0xa0}, label: "shift_jis", want: "あ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decodeTitle(tt.raw, tt.label))
		})
	}
}

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		in         string
		wantArtist string
		wantTitle  string
	}{
		{in: "Cher - Believe", wantArtist: "Cher", wantTitle: "Believe"},
		{in: "  A-ha - Take On Me ", wantArtist: "A-ha", wantTitle: "Take On Me"},
		{in: "Artist - Title - Remix", wantArtist: "Artist", wantTitle: "Title - Remix"},
		{in: "Station ID", wantTitle: "Station ID"},
		{in: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			artist, title := splitTitle(tt.in)
			assert.Equal(t, tt.wantArtist, artist)
			assert.Equal(t, tt.wantTitle, title)
		})
	}
}
