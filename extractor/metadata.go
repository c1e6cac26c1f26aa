package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/pagecast/models"
)

var (
	errNoBody     = errors.New("document has no body")
	errNotMapping = errors.New("structured data is neither an object nor an array")
)

// Metadata collects every <meta> tag that has a name or property and a
// non-empty content, then merges in the top-level keys of each JSON-LD
// script in document order. Later keys overwrite earlier ones. A JSON-LD
// payload that does not parse is logged and skipped.
func (e *Extractor) Metadata() map[string]string {
	return guard(e, "metadata", map[string]string{}, func() (map[string]string, error) {
		if err := e.requireDoc("metadata"); err != nil {
			return nil, err
		}
		meta := make(map[string]string)

		e.doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
			key, ok := s.Attr("name")
			if !ok || key == "" {
				key, ok = s.Attr("property")
			}
			content, _ := s.Attr("content")
			if !ok || key == "" || content == "" {
				return
			}
			meta[key] = content
		})

		e.doc.Find(`script[type="application/ld+json"]`).Each(func(i int, s *goquery.Selection) {
			if err := mergeStructuredData(meta, []byte(s.Text())); err != nil {
				e.log.Warn("extractor: skipping structured data", i,
					models.NewExtractError(models.KindParse, "metadata", err))
			}
		})

		return meta, nil
	})
}

// mergeStructuredData merges a JSON-LD payload into meta. Object payloads
// contribute their top-level keys; array payloads contribute the keys of each
// object element in order. String values are stored as-is, anything else as
// compact JSON.
func mergeStructuredData(meta map[string]string, payload []byte) error {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return nil
	}

	switch payload[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(payload, &obj); err != nil {
			return err
		}
		mergeObject(meta, obj)
		return nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(payload, &items); err != nil {
			return err
		}
		for _, item := range items {
			var obj map[string]json.RawMessage
			if json.Unmarshal(item, &obj) == nil {
				mergeObject(meta, obj)
			}
		}
		return nil
	default:
		var v any
		if err := json.Unmarshal(payload, &v); err != nil {
			return err
		}
		return errNotMapping
	}
}

func mergeObject(meta map[string]string, obj map[string]json.RawMessage) {
	for k, raw := range obj {
		meta[k] = jsonValueString(raw)
	}
}

func jsonValueString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}
