package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// Inputs whose payload contains this marker make the fake tools fail the way
// ffmpeg/ffprobe fail on malformed media.
const CorruptMarker = "CORRUPT"

const fakeFFprobeScript = `#!/bin/sh
# Emits a fixed inspection result; fails on payloads marked corrupt.
for a in "$@"; do last=$a; done
if grep -q CORRUPT "$last" 2>/dev/null; then
  echo "Invalid data found when processing input" >&2
  exit 1
fi
cat <<EOF
{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"},{"index":1,"codec_type":"audio","codec_name":"aac"}],"format":{"duration":"5.000000","size":"4096","format_name":"matroska,webm"}}
EOF
`

const fakeFFmpegScript = `#!/bin/sh
# Copies the input to the output and emits progress on stdout. Fails on
# payloads marked corrupt. The final argument is always the output path.
in=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-i" ]; then in=$a; fi
  prev=$a
  out=$a
done
if grep -q CORRUPT "$in" 2>/dev/null; then
  echo "Invalid data found when processing input" >&2
  exit 1
fi
cat "$in" > "$out" 2>/dev/null || printf 'encoded' > "$out"
echo "out_time_us=2500000"
echo "progress=continue"
echo "out_time_us=5000000"
echo "progress=end"
`

// FakeTools writes stub ffmpeg and ffprobe executables into a temp dir and
// returns their absolute paths. The stubs copy input to output, so manifest
// contents survive a fake concat and tests can assert clip ordering.
func FakeTools(t testing.TB) (ffmpeg, ffprobe string) {
	t.Helper()

	dir := t.TempDir()
	ffmpeg = filepath.Join(dir, "ffmpeg")
	ffprobe = filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(ffmpeg, []byte(fakeFFmpegScript), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	if err := os.WriteFile(ffprobe, []byte(fakeFFprobeScript), 0o755); err != nil {
		t.Fatalf("write fake ffprobe: %v", err)
	}
	return ffmpeg, ffprobe
}
