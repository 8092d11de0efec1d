package testsupport

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// tsPacket is one MPEG-TS sync packet's worth of filler.
var tsPacket = append([]byte{0x47}, bytes.Repeat([]byte{0xff}, 187)...)

// ChunkName is the file name WriteRecording uses for chunk i.
func ChunkName(i int) string {
	return fmt.Sprintf("chunk%06d.ts", i)
}

// WriteRecording writes dir/name as a local HLS playlist with one chunk per
// duration and creates each chunk file. It returns the playlist path.
func WriteRecording(t testing.TB, dir, name string, durations ...float64) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	var b strings.Builder
	b.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:2\n")
	for i, d := range durations {
		fmt.Fprintf(&b, "#EXTINF:%s,\n%s\n", strconv.FormatFloat(d, 'f', 3, 64), ChunkName(i))
		if err := os.WriteFile(filepath.Join(dir, ChunkName(i)), tsPacket, 0o644); err != nil {
			t.Fatalf("write chunk %d: %v", i, err)
		}
	}
	b.WriteString("#EXT-X-ENDLIST\n")
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}
	return path
}
