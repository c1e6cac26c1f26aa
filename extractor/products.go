package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"github.com/use-agent/pagecast/models"
)

// productContainers is tried in order; the first selector with at least one
// match is the only one used.
var productContainers = []cascadia.Selector{
	cascadia.MustCompile(".product"),
	cascadia.MustCompile(".product-item"),
	cascadia.MustCompile(".product-card"),
	cascadia.MustCompile(`[itemtype*="schema.org/Product"]`),
	cascadia.MustCompile("[data-product-id]"),
}

var (
	productName  = cascadia.MustCompile(".product-name, .product-title, [itemprop=name], h2, h3, h4")
	productPrice = cascadia.MustCompile(".price, .product-price, [itemprop=price]")
	productImage = cascadia.MustCompile("img")
)

// Products returns the product listings found under the first container
// selector that matches anything. Candidates with no name, price or image are
// dropped.
func (e *Extractor) Products() []models.Product {
	return guard(e, "products", []models.Product{}, func() ([]models.Product, error) {
		if err := e.requireDoc("products"); err != nil {
			return nil, err
		}
		products := []models.Product{}

		var containers *goquery.Selection
		for _, sel := range productContainers {
			if m := e.doc.FindMatcher(sel); m.Length() > 0 {
				containers = m
				break
			}
		}
		if containers == nil {
			return products, nil
		}

		containers.Each(func(_ int, s *goquery.Selection) {
			p := models.Product{
				Name:     collapse(s.FindMatcher(productName).First().Text()),
				Price:    collapse(s.FindMatcher(productPrice).First().Text()),
				ImageURL: e.productImage(s),
			}
			if !p.IsEmpty() {
				products = append(products, p)
			}
		})
		return products, nil
	})
}

func (e *Extractor) productImage(s *goquery.Selection) string {
	img := s.FindMatcher(productImage).First()
	if img.Length() == 0 {
		return ""
	}
	src, _ := img.Attr("src")
	if strings.TrimSpace(src) == "" {
		src, _ = img.Attr("data-src")
	}
	return e.resolve(strings.TrimSpace(src))
}
