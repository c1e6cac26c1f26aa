package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/use-agent/pagecast/extractor"
	"github.com/use-agent/pagecast/fingerprint"
	"github.com/use-agent/pagecast/models"
	"github.com/use-agent/pagecast/webhook"
	"github.com/use-agent/pagecast/youtube"
)

// WatchHandlers receive the output of Watch. Either may be nil.
type WatchHandlers struct {
	// Snapshot receives each snapshot whose content differs from the
	// previous one.
	Snapshot func(*models.PageContent)
	Video    func(*models.VideoSummary)
}

// Watch opens pageURL in a live tab and re-extracts it on every DOM
// mutation until ctx is done. YouTube watch pages also get a video handler
// that summarizes every video shown in the tab.
func (s *Service) Watch(ctx context.Context, pageURL string, h WatchHandlers) error {
	if s.open == nil {
		return errors.New("service: watch needs a browser")
	}
	tab, err := s.open(ctx, pageURL)
	if err != nil {
		return err
	}
	defer tab.Close()

	tracker := fingerprint.NewTracker()
	onSnapshot := func(pc *models.PageContent) {
		changed, distance := tracker.Observe(pc.URL, pc.Digest, pc.Fingerprint)
		if !changed {
			return
		}
		s.log.Log("snapshot changed", pc.URL, "distance", distance)
		s.notify(webhook.EventPageSnapshot, "", pc)
		if h.Snapshot != nil {
			h.Snapshot(pc)
		}
	}

	obs, err := extractor.InitializePageExtraction(ctx, tab, s.log,
		extractor.WithDebounce(s.cfg.Extractor.Debounce),
		extractor.WithSnapshotHandler(onSnapshot),
	)
	if err != nil {
		return err
	}
	defer obs.Stop()

	if isYouTube(pageURL) {
		var yt *youtube.Handler
		yt = youtube.New(tab, s.fetcher, s.log,
			youtube.WithInitialDelay(s.cfg.YouTube.InitialDelay),
			youtube.WithProcessDelay(s.cfg.YouTube.ProcessDelay),
			youtube.WithSummaryHandler(func(v *models.VideoSummary) {
				s.notify(webhook.EventVideoSummary, yt.Session().ID(), v)
				if h.Video != nil {
					h.Video(v)
				}
			}),
		)
		if err := yt.Initialize(ctx); err != nil {
			yt.Close()
			return err
		}
		defer yt.Close()
	}

	<-ctx.Done()
	s.log.Log("watch stopped", pageURL)
	return nil
}

func isYouTube(pageURL string) bool {
	return youtube.VideoIDFromURL(pageURL) != "" || hostIs(pageURL, "youtube.com")
}

func hostIs(rawURL, domain string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	h := strings.ToLower(u.Hostname())
	return h == domain || strings.HasSuffix(h, "."+domain)
}
