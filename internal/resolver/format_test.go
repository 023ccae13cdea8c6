package resolver

import (
	"errors"
	"testing"
)

func TestSelectStreamPrefersCanonicalURL(t *testing.T) {
	d := &VideoDetail{
		BestURL: "https://cdn.example/best",
		Candidates: []StreamCandidate{
			{URL: "https://cdn.example/muxed", HasAudio: true, HasVideo: true},
		},
	}
	url, err := SelectStream(d)
	if err != nil {
		t.Fatalf("SelectStream failed: %v", err)
	}
	if url != "https://cdn.example/best" {
		t.Errorf("got %q, want canonical best URL", url)
	}
}

func TestSelectStreamPicksMuxedCandidate(t *testing.T) {
	// The single muxed entry must win regardless of its position.
	positions := [][]StreamCandidate{
		{
			{URL: "muxed", HasAudio: true, HasVideo: true},
			{URL: "video-only", HasVideo: true},
			{URL: "audio-only", HasAudio: true},
		},
		{
			{URL: "video-only", HasVideo: true},
			{URL: "muxed", HasAudio: true, HasVideo: true},
			{URL: "audio-only", HasAudio: true},
		},
		{
			{URL: "video-only", HasVideo: true},
			{URL: "audio-only", HasAudio: true},
			{URL: "muxed", HasAudio: true, HasVideo: true},
		},
	}
	for i, candidates := range positions {
		url, err := SelectStream(&VideoDetail{Candidates: candidates})
		if err != nil {
			t.Fatalf("case %d: SelectStream failed: %v", i, err)
		}
		if url != "muxed" {
			t.Errorf("case %d: got %q, want muxed candidate", i, url)
		}
	}
}

func TestSelectStreamFallsBackToLastCandidate(t *testing.T) {
	d := &VideoDetail{
		Candidates: []StreamCandidate{
			{URL: "video-only", HasVideo: true},
			{URL: "audio-only", HasAudio: true},
		},
	}
	url, err := SelectStream(d)
	if err != nil {
		t.Fatalf("SelectStream failed: %v", err)
	}
	if url != "audio-only" {
		t.Errorf("got %q, want last candidate", url)
	}
}

func TestSelectStreamEmptyList(t *testing.T) {
	_, err := SelectStream(&VideoDetail{})
	if !errors.Is(err, ErrNoPlayableStream) {
		t.Errorf("got %v, want ErrNoPlayableStream", err)
	}
}
