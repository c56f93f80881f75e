package media

import "testing"

func TestParseKind(t *testing.T) {
	cases := []struct {
		input string
		want  Kind
		ok    bool
	}{
		{"audio", KindAudio, true},
		{"VIDEO", KindVideo, true},
		{" video ", KindVideo, true},
		{"image", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseKind(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseKind(%q) = %q, %v; want %q, %v", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestCaptureMIME(t *testing.T) {
	if got := KindVideo.CaptureMIME(); got != "video/webm;codecs=h264" {
		t.Fatalf("unexpected video MIME: %q", got)
	}
	if got := KindAudio.CaptureMIME(); got != "audio/webm;codecs=opus" {
		t.Fatalf("unexpected audio MIME: %q", got)
	}
}

func TestFormatExt(t *testing.T) {
	if FormatMPEGTS.Ext() != "ts" {
		t.Fatalf("unexpected mpegts extension: %q", FormatMPEGTS.Ext())
	}
	if FormatMP4.Ext() != "mp4" {
		t.Fatalf("unexpected mp4 extension: %q", FormatMP4.Ext())
	}
	if FormatMP4.MIME() != "video/mp4" {
		t.Fatalf("unexpected mp4 MIME: %q", FormatMP4.MIME())
	}
}
