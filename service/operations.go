package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/use-agent/pagecast/cache"
	"github.com/use-agent/pagecast/extractor"
	"github.com/use-agent/pagecast/llm"
	"github.com/use-agent/pagecast/models"
	"github.com/use-agent/pagecast/webhook"
	"github.com/use-agent/pagecast/youtube"
)

// Extract loads req.URL and returns its PageContent.
func (s *Service) Extract(ctx context.Context, req *models.ExtractRequest) (*models.ExtractResponse, error) {
	start := time.Now()
	req.Defaults()

	key := cache.Key(req.URL, "")
	if s.cache != nil && req.MaxAge > 0 {
		if pc, hit := s.cache.Get(key, time.Duration(req.MaxAge)*time.Second); hit {
			return &models.ExtractResponse{
				Success:     true,
				FinalURL:    pc.URL,
				CacheStatus: "hit",
				Content:     pc,
				Timing:      models.TimingInfo{TotalMs: time.Since(start).Milliseconds()},
			}, nil
		}
	}

	result, err := s.fetch(ctx, req.URL, req.FetchOptions)
	fetchMs := time.Since(start).Milliseconds()
	if err != nil {
		return nil, err
	}

	processStart := time.Now()
	pc := extractor.FromHTML(result.HTML, result.FinalURL, s.log).AllPageContent()
	s.log.Log("page extracted", result.FinalURL, result.EngineName)

	resp := &models.ExtractResponse{
		Success:    true,
		StatusCode: result.StatusCode,
		FinalURL:   result.FinalURL,
		EngineUsed: result.EngineName,
		Content:    pc,
	}
	if s.cache != nil && req.MaxAge > 0 {
		s.cache.Set(key, pc)
		resp.CacheStatus = "miss"
	}
	s.notify(webhook.EventPageSnapshot, "", pc)

	resp.Timing = models.TimingInfo{
		TotalMs:   time.Since(start).Milliseconds(),
		FetchMs:   fetchMs,
		ProcessMs: time.Since(processStart).Milliseconds(),
	}
	return resp, nil
}

// YouTube processes one watch page: player response, first caption track,
// transcript and summary. With fetch mode "browser" the page is opened in a
// live tab; otherwise the watch page HTML is fetched.
func (s *Service) YouTube(ctx context.Context, req *models.YouTubeRequest) (*models.YouTubeResponse, error) {
	start := time.Now()
	req.Defaults()

	if youtube.VideoIDFromURL(req.URL) == "" {
		return nil, models.NewAPIError(models.ErrCodeNotVideo, "url is not a YouTube video", nil)
	}

	var page youtube.Page
	if req.FetchMode == "browser" {
		if s.open == nil {
			return nil, models.NewAPIError(models.ErrCodeInvalidInput, "fetch mode browser is not available", nil)
		}
		tab, err := s.open(ctx, req.URL)
		if err != nil {
			return nil, err
		}
		defer tab.Close()
		page = tab
	} else {
		result, err := s.fetch(ctx, req.URL, req.FetchOptions)
		if err != nil {
			return nil, err
		}
		page = youtube.NewStaticPage(req.URL, result.HTML)
	}
	fetchMs := time.Since(start).Milliseconds()

	h := youtube.New(page, s.fetcher, s.log)
	video := h.ProcessVideo(ctx)
	if video == nil {
		return nil, models.NewAPIError(models.ErrCodeNoTranscript, "no transcript available for this video", nil)
	}
	s.notify(webhook.EventVideoSummary, h.Session().ID(), video)

	return &models.YouTubeResponse{
		Success: true,
		Video:   video,
		Timing: models.TimingInfo{
			TotalMs:   time.Since(start).Milliseconds(),
			FetchMs:   fetchMs,
			ProcessMs: time.Since(start).Milliseconds() - fetchMs,
		},
	}, nil
}

// Generate loads req.URL, renders its readable content as Markdown and sends
// it with the prompt to the chosen model.
func (s *Service) Generate(ctx context.Context, req *models.GenerateRequest) (*models.GenerateResponse, error) {
	start := time.Now()
	req.Defaults()

	name := req.Model
	if name == "" {
		name = s.cfg.LLM.DefaultModel
	}
	key, err := llm.ParseModelKey(name)
	if err != nil {
		return nil, models.NewAPIError(models.ErrCodeUnknownModel, err.Error(), err)
	}
	desc, _ := llm.Descriptor(key)
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = s.cfg.LLM.APIKey(desc.Provider)
	}
	if apiKey == "" {
		return nil, models.NewAPIError(models.ErrCodeLLMAuthFailure, "no API key configured for provider "+desc.Provider, nil)
	}

	result, err := s.fetch(ctx, req.URL, req.FetchOptions)
	fetchMs := time.Since(start).Milliseconds()
	if err != nil {
		return nil, err
	}

	processStart := time.Now()
	prompt, err := s.renderer.BuildPrompt(result.HTML, result.FinalURL, req.CSSSelector)
	if err != nil {
		return nil, models.NewAPIError(models.ErrCodeInvalidInput, "failed to prepare page content", err)
	}

	pc := extractor.FromHTML(result.HTML, result.FinalURL, s.log).AllPageContent()
	var video *models.VideoSummary
	if youtube.VideoIDFromURL(result.FinalURL) != "" {
		video = youtube.New(youtube.NewStaticPage(result.FinalURL, result.HTML), s.fetcher, s.log).ProcessVideo(ctx)
	}
	user := userPrompt(req.Prompt, pc, prompt, video)

	params := llm.Params{
		SystemPrompt:  req.SystemPrompt,
		UserPrompt:    user,
		ExtractedCode: req.ExtractedCode,
		Schema:        req.Schema,
	}
	for _, m := range req.Messages {
		params.Messages = append(params.Messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	res := s.registry.Generate(ctx, key, apiKey, params)
	if !res.OK() {
		s.log.Error("generate failed", name, res.Error)
		return nil, models.NewAPIError(llm.ErrorCode(res.Error), res.Error.Error(), res.Error)
	}
	s.log.Log("generate succeeded", name, result.FinalURL)

	return &models.GenerateResponse{
		Success:      true,
		Model:        name,
		Result:       res.Success,
		PromptTokens: extractor.EstimateTokens(user),
		Timing: models.TimingInfo{
			TotalMs:   time.Since(start).Milliseconds(),
			FetchMs:   fetchMs,
			ProcessMs: time.Since(processStart).Milliseconds(),
		},
	}, nil
}

// userPrompt puts the instruction first, then everything extracted from the
// page: the snapshot fields, the video transcript on watch pages, the
// readable Markdown and the de-duplicated page text.
func userPrompt(instruction string, pc *models.PageContent, p extractor.Prompt, video *models.VideoSummary) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(instruction))
	b.WriteString("\n\n---\n")
	title := pc.Title
	if title == "" {
		title = p.Title
	}
	if title != "" {
		fmt.Fprintf(&b, "Page: %s\n", title)
	}
	fmt.Fprintf(&b, "URL: %s\n", pc.URL)
	if pc.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", pc.Description)
	}

	if len(pc.Products) > 0 {
		b.WriteString("\nProducts:\n")
		for _, prod := range pc.Products {
			fields := make([]string, 0, 3)
			for _, f := range []string{prod.Name, prod.Price, prod.ImageURL} {
				if f != "" {
					fields = append(fields, f)
				}
			}
			fmt.Fprintf(&b, "- %s\n", strings.Join(fields, " | "))
		}
	}

	if len(pc.Metadata) > 0 {
		keys := make([]string, 0, len(pc.Metadata))
		for k := range pc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("\nMetadata:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, pc.Metadata[k])
		}
	}

	if video != nil {
		fmt.Fprintf(&b, "\nVideo: %s (%s)\n", video.Title, video.VideoID)
		fmt.Fprintf(&b, "Summary: %s\nTranscript:\n%s\n", video.Summary, video.Transcript)
	}

	if md := strings.TrimSpace(p.Markdown); md != "" {
		b.WriteString("\nContent:\n")
		b.WriteString(md)
		b.WriteString("\n")
	}
	if pc.DeDupedFullText != "" {
		b.WriteString("\nPage text:\n")
		b.WriteString(pc.DeDupedFullText)
		b.WriteString("\n")
	}
	return b.String()
}
func (s *Service) notify(eventType, sessionID string, data any) {
	if s.notifier == nil {
		return
	}
	s.notifier.DeliverAsync(webhook.NewEvent(eventType, sessionID, data))
}
