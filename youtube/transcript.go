package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

// SummaryLength is the number of characters kept by Summarize.
const SummaryLength = 200

// Fetcher performs the caption track GET. Implementations must return an
// error for non-2xx responses.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Get calls f.
func (f FetcherFunc) Get(ctx context.Context, url string) ([]byte, error) { return f(ctx, url) }

// httpFetcher is the fallback used when no Fetcher is configured.
type httpFetcher struct{ client *http.Client }

func (f httpFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

// Transcript is the text of one caption track.
type Transcript struct {
	Language string
	Text     string
}

type timedText struct {
	Lines []timedLine `xml:"text"`
}

type timedLine struct {
	Text string `xml:",chardata"`
}

// fetchTranscript downloads and flattens the first caption track.
func fetchTranscript(ctx context.Context, f Fetcher, p *PlayerResponse) (*Transcript, error) {
	tracks := p.Tracks()
	if len(tracks) == 0 {
		return nil, ErrNoCaptions
	}
	track := tracks[0]
	if track.BaseURL == "" {
		return nil, ErrNoBaseURL
	}

	body, err := f.Get(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscriptFetch, err)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscriptParse, err)
	}

	parts := make([]string, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		parts = append(parts, strings.ReplaceAll(line.Text, "\n", " "))
	}
	return &Transcript{Language: track.LanguageCode, Text: strings.Join(parts, " ")}, nil
}

// Summarize returns the first 200 characters of transcript, followed by
// "..." when anything was cut.
func Summarize(transcript string) string {
	if utf8.RuneCountInString(transcript) <= SummaryLength {
		return transcript
	}
	return string([]rune(transcript)[:SummaryLength]) + "..."
}
