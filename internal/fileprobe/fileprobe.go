// Package fileprobe sniffs an input path well enough for the CLI driver to
// pick an esutil.Source adapter: an MP4 file (esutil/mp4src) or an SDP
// description of an RTP session (esutil/rtpsrc).
package fileprobe

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"strings"
)

// Kind identifies which esutil adapter a file should be read through.
type Kind int

const (
	KindUnknown Kind = iota
	KindMP4
	KindSDP
)

// Detect inspects path's extension and, for ambiguous cases, its leading
// bytes: ISO-BMFF files carry a 4-byte box size followed by a box tag at
// offset 4, of which "ftyp", "moov", "free" and "mdat" are recognized.
func Detect(path string) (Kind, error) {
	if strings.HasSuffix(strings.ToLower(path), ".sdp") {
		return KindSDP, nil
	}
	if strings.HasSuffix(strings.ToLower(path), ".mp4") || strings.HasSuffix(strings.ToLower(path), ".m4v") {
		return KindMP4, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	head := make([]byte, 8)
	if _, err := io.ReadFull(r, head); err != nil {
		return KindUnknown, nil
	}
	_ = binary.BigEndian.Uint32(head[:4]) // box size, unused by the probe itself
	switch string(head[4:8]) {
	case "ftyp", "moov", "free", "mdat":
		return KindMP4, nil
	}
	return KindUnknown, nil
}
