// Package youtube detects video navigation on a watch page, pulls the first
// caption track named in the player response and produces a short summary of
// the transcript.
package youtube

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrNoPlayerResponse = errors.New("youtube: player response not found")
	ErrNoCaptions       = errors.New("youtube: no captions in player response")
	ErrNoBaseURL        = errors.New("youtube: caption track has no base url")
	ErrTranscriptFetch  = errors.New("youtube: transcript fetch failed")
	ErrTranscriptParse  = errors.New("youtube: transcript parse failed")
)

// playerResponseGlobal is the page global holding the player response.
const playerResponseGlobal = "ytInitialPlayerResponse"

var playerResponseRE = regexp.MustCompile(`ytInitialPlayerResponse\s*=\s*`)

// PlayerResponse is the part of ytInitialPlayerResponse this package reads.
type PlayerResponse struct {
	VideoDetails *struct {
		VideoID string `json:"videoId"`
		Title   string `json:"title"`
		Author  string `json:"author"`
	} `json:"videoDetails"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []CaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// CaptionTrack is one entry of the caption track list.
type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// Tracks returns the caption tracks, or nil when the response has none.
func (p *PlayerResponse) Tracks() []CaptionTrack {
	if p == nil || p.Captions == nil {
		return nil
	}
	return p.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
}

// Title returns the video title, or "".
func (p *PlayerResponse) Title() string {
	if p == nil || p.VideoDetails == nil {
		return ""
	}
	return p.VideoDetails.Title
}

// ParsePlayerResponse decodes a raw player response.
func ParsePlayerResponse(raw []byte) (*PlayerResponse, error) {
	var p PlayerResponse
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode player response: %w", err)
	}
	return &p, nil
}

// PlayerResponseFromScripts scans inline script bodies for the
// ytInitialPlayerResponse assignment and returns the JSON object assigned.
func PlayerResponseFromScripts(scripts []string) ([]byte, error) {
	for _, s := range scripts {
		for _, loc := range playerResponseRE.FindAllStringIndex(s, -1) {
			if obj := extractJSON([]byte(s[loc[1]:])); obj != nil {
				return obj, nil
			}
		}
	}
	return nil, ErrNoPlayerResponse
}

// extractJSON returns the complete JSON object starting at b[0] == '{' by
// tracking brace depth outside of strings.
func extractJSON(b []byte) []byte {
	if len(b) == 0 || b[0] != '{' {
		return nil
	}
	depth := 0
	inStr, escaped := false, false
	for i, c := range b {
		if inStr {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return b[:i+1]
			}
		}
	}
	return nil
}

// VideoIDFromURL returns the video id of a YouTube watch URL (query
// parameter v), a youtu.be short link or a /shorts/ URL. It returns "" for
// anything else, including a v parameter on another host.
func VideoIDFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	path := strings.Trim(u.Path, "/")
	if host == "youtu.be" {
		if path == "" {
			return ""
		}
		return strings.SplitN(path, "/", 2)[0]
	}
	if !isYouTubeHost(host) {
		return ""
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	if strings.HasPrefix(path, "shorts/") {
		return strings.SplitN(strings.TrimPrefix(path, "shorts/"), "/", 2)[0]
	}
	return ""
}

func isYouTubeHost(host string) bool {
	for _, d := range []string{"youtube.com", "youtube-nocookie.com"} {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
