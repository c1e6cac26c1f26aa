package extractor

import (
	"sort"
	"time"

	"github.com/use-agent/pagecast/fingerprint"
	"github.com/use-agent/pagecast/models"
)

// AllPageContent runs every extraction and assembles one snapshot. Each field
// fails independently; the snapshot itself is always returned.
func (e *Extractor) AllPageContent() *models.PageContent {
	pc := &models.PageContent{
		Title:           e.PageTitle(),
		Description:     e.PageDescription(),
		MainContent:     e.MainContent(),
		DeDupedFullText: e.DeDupedFullText(),
		URL:             e.pageURL,
		Metadata:        e.Metadata(),
		Products:        e.Products(),
		ExtractedAt:     time.Now().UTC(),
	}
	pc.Digest = contentDigest(pc)
	pc.Fingerprint = guard(e, "fingerprint", uint64(0), func() (uint64, error) {
		if err := e.requireDoc("fingerprint"); err != nil {
			return 0, err
		}
		markup, err := e.doc.Html()
		if err != nil {
			return 0, err
		}
		return fingerprint.Snapshot(pc.DeDupedFullText, markup), nil
	})
	return pc
}

// contentDigest hashes every content field of pc. Metadata keys are sorted so
// map order does not matter.
func contentDigest(pc *models.PageContent) string {
	parts := []string{pc.Title, pc.Description, pc.MainContent, pc.DeDupedFullText}

	keys := make([]string, 0, len(pc.Metadata))
	for k := range pc.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, "meta:"+k, pc.Metadata[k])
	}
	for _, p := range pc.Products {
		parts = append(parts, "product", p.Name, p.Price, p.ImageURL)
	}
	return fingerprint.Digest(parts...)
}
