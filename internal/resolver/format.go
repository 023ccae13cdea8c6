package resolver

// SelectStream picks one playable URL from a full extraction result.
//
// The policy is a total order and must stay stable for client compatibility:
//  1. the extractor's canonical best URL, when present;
//  2. the first candidate carrying both audio and video (muxed);
//  3. the last candidate, accepting an audio-only or video-only stream
//     over failing outright;
//  4. ErrNoPlayableStream when the candidate list is empty.
func SelectStream(d *VideoDetail) (string, error) {
	if d.BestURL != "" {
		return d.BestURL, nil
	}
	for _, c := range d.Candidates {
		if c.HasAudio && c.HasVideo {
			return c.URL, nil
		}
	}
	if n := len(d.Candidates); n > 0 {
		return d.Candidates[n-1].URL, nil
	}
	return "", ErrNoPlayableStream
}
