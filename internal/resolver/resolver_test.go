package resolver

import "testing"

func TestParseChannelRef(t *testing.T) {
	tests := []struct {
		raw     string
		kind    RefKind
		value   string
		wantURL string
	}{
		{"UC5PYHgAzJ1jQzoyDQjOA1RA", RefChannelID, "UC5PYHgAzJ1jQzoyDQjOA1RA",
			"https://www.youtube.com/channel/UC5PYHgAzJ1jQzoyDQjOA1RA/videos"},
		{"@blippi", RefHandle, "blippi", "https://www.youtube.com/@blippi/videos"},
		{"blippi", RefHandle, "blippi", "https://www.youtube.com/@blippi/videos"},
		{"  UCabc  ", RefChannelID, "UCabc", "https://www.youtube.com/channel/UCabc/videos"},
	}
	for _, tt := range tests {
		ref, err := ParseChannelRef(tt.raw)
		if err != nil {
			t.Fatalf("ParseChannelRef(%q) failed: %v", tt.raw, err)
		}
		if ref.Kind != tt.kind || ref.Value != tt.value {
			t.Errorf("ParseChannelRef(%q) = {%v %q}, want {%v %q}", tt.raw, ref.Kind, ref.Value, tt.kind, tt.value)
		}
		if got := ref.URL(); got != tt.wantURL {
			t.Errorf("URL() = %q, want %q", got, tt.wantURL)
		}
	}
}

func TestParseChannelRefEmpty(t *testing.T) {
	if _, err := ParseChannelRef("   "); err == nil {
		t.Error("expected error for empty reference")
	}
}

func TestThumbnailURL(t *testing.T) {
	want := "https://i.ytimg.com/vi/abc123/hqdefault.jpg"
	if got := ThumbnailURL("abc123"); got != want {
		t.Errorf("ThumbnailURL = %q, want %q", got, want)
	}
}
