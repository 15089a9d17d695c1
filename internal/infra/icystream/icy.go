package icystream

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/html/charset"
)

// Metadata blocks are a length byte followed by length*16 bytes, NUL padded.
const metaBlockUnit = 16

// fallbackCharset decodes titles that are neither labelled nor valid UTF-8.
const fallbackCharset = "windows-1252"

// icyReader splits an ICY stream into audio bytes and metadata blocks.
type icyReader struct {
	r       *bufio.Reader
	metaint int
}

func newICYReader(r io.Reader, metaint int) *icyReader {
	return &icyReader{r: bufio.NewReader(r), metaint: metaint}
}

// next copies one audio chunk to audio and returns the metadata block that
// follows it. The block is nil when the server sent an empty one.
func (ir *icyReader) next(audio io.Writer) ([]byte, error) {
	if _, err := io.CopyN(audio, ir.r, int64(ir.metaint)); err != nil {
		return nil, errors.Wrap(err, "failed to read audio")
	}

	n, err := ir.r.ReadByte()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read metadata length")
	}
	if n == 0 {
		return nil, nil
	}

	block := make([]byte, int(n)*metaBlockUnit)
	if _, err := io.ReadFull(ir.r, block); err != nil {
		return nil, errors.Wrap(err, "failed to read metadata block")
	}
	return bytes.TrimRight(block, "\x00"), nil
}

// parseStreamTitle extracts the raw StreamTitle value from a metadata block.
func parseStreamTitle(block []byte) ([]byte, bool) {
	const key = "StreamTitle='"
	start := bytes.Index(block, []byte(key))
	if start < 0 {
		return nil, false
	}
	rest := block[start+len(key):]

	// Titles may themselves contain quotes; the field ends at "';".
	if end := bytes.Index(rest, []byte("';")); end >= 0 {
		return rest[:end], true
	}
	if end := bytes.LastIndexByte(rest, '\''); end >= 0 {
		return rest[:end], true
	}
	return rest, true
}

// decodeTitle converts a raw title to UTF-8. label names the stream charset;
// when empty, valid UTF-8 is kept and anything else is read as windows-1252.
func decodeTitle(raw []byte, label string) string {
	if label != "" {
		if enc, _ := charset.Lookup(label); enc != nil {
			if s, err := enc.NewDecoder().Bytes(raw); err == nil {
				return string(s)
			}
		}
	}
	if utf8.Valid(raw) {
		return string(raw)
	}
	if enc, _ := charset.Lookup(fallbackCharset); enc != nil {
		if s, err := enc.NewDecoder().Bytes(raw); err == nil {
			return string(s)
		}
	}
	return strings.ToValidUTF8(string(raw), "�")
}

// splitTitle splits "Artist - Title". Without a separator the whole string is the title.
func splitTitle(s string) (artist, title string) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, " - "); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+3:])
	}
	return "", s
}
