package fileprobe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect_byExtension(t *testing.T) {
	dir := t.TempDir()

	sdpPath := filepath.Join(dir, "session.sdp")
	assert.NoError(t, os.WriteFile(sdpPath, []byte("v=0\n"), 0o644))
	kind, err := Detect(sdpPath)
	assert.NoError(t, err)
	assert.Equal(t, KindSDP, kind)

	mp4Path := filepath.Join(dir, "movie.mp4")
	assert.NoError(t, os.WriteFile(mp4Path, []byte{0, 0, 0, 0}, 0o644))
	kind, err = Detect(mp4Path)
	assert.NoError(t, err)
	assert.Equal(t, KindMP4, kind)
}

func TestDetect_byMagicBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.bin")
	data := append([]byte{0x00, 0x00, 0x00, 0x18}, []byte("ftypisom")...)
	assert.NoError(t, os.WriteFile(path, data, 0o644))

	kind, err := Detect(path)
	assert.NoError(t, err)
	assert.Equal(t, KindMP4, kind)
}

func TestDetect_unknown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.bin")
	assert.NoError(t, os.WriteFile(path, []byte("not a container"), 0o644))

	kind, err := Detect(path)
	assert.NoError(t, err)
	assert.Equal(t, KindUnknown, kind)
}
