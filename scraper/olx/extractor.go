package olx

import (
	"fmt"
	"net/url"
	"olx-scraper/config"
	"olx-scraper/models"
	"olx-scraper/utils"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor maps listing nodes of a results page to ads.
type Extractor struct {
	listingSel  string
	sentinelSel string
	titleSel    string
	priceSel    string
	linkSel     string
	baseOrigin  string
}

func NewExtractor(cfg *config.Config) *Extractor {
	return &Extractor{
		listingSel:  cfg.ContainerSelector + " > li",
		sentinelSel: "." + cfg.SentinelClass,
		titleSel:    cfg.TitleSelector,
		priceSel:    cfg.PriceSelector,
		linkSel:     cfg.LinkSelector,
		baseOrigin:  strings.TrimRight(cfg.BaseOrigin, "/"),
	}
}

// Extract reads every listing of doc in document order. Listings that fail to
// parse are logged and skipped; the load-more row is never returned.
func (e *Extractor) Extract(doc *goquery.Document) []models.Ad {
	if doc == nil {
		utils.Warn("No document to parse.")
		return []models.Ad{}
	}

	nodes := doc.Find(e.listingSel).Not(e.sentinelSel)
	if nodes.Length() == 0 {
		utils.Warn("No ad elements found on page.")
		return []models.Ad{}
	}
	utils.Info("Found %d ad elements on page.", nodes.Length())

	ads := make([]models.Ad, 0, nodes.Length())
	nodes.Each(func(i int, s *goquery.Selection) {
		ad, err := e.extractAd(s)
		if err != nil {
			utils.Warn("Error parsing ad %d: %v", i+1, err)
			return
		}
		utils.Debug("Extracted ad %d: %s | Price: %s | URL: %s", i+1, truncate(ad.Title, 50), ad.Price, ad.URL)
		ads = append(ads, ad)
	})

	return ads
}

func (e *Extractor) extractAd(s *goquery.Selection) (ad models.Ad, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newError(ErrListingParse, "extract", fmt.Errorf("%v", r))
		}
	}()

	link := models.NotAvailable
	if href, ok := s.Find(e.linkSel).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		link, err = e.absoluteURL(strings.TrimSpace(href))
		if err != nil {
			return models.Ad{}, newError(ErrListingParse, "extract", err)
		}
	}

	return models.Ad{
		Title: textOrNA(s.Find(e.titleSel)),
		Price: textOrNA(s.Find(e.priceSel)),
		URL:   link,
	}, nil
}

// absoluteURL prefixes relative links with the site origin. Links that
// already start with http are returned unchanged. A relative link without a
// leading slash gets one, so "item/1" becomes "<origin>/item/1" rather than
// "<origin>item/1".
func (e *Extractor) absoluteURL(href string) (string, error) {
	if _, err := url.Parse(href); err != nil {
		return "", fmt.Errorf("bad href %q: %w", href, err)
	}
	if strings.HasPrefix(href, "http") {
		return href, nil
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return e.baseOrigin + href, nil
}

func textOrNA(s *goquery.Selection) string {
	if s.Length() == 0 {
		return models.NotAvailable
	}
	text := strings.TrimSpace(s.First().Text())
	if text == "" {
		return models.NotAvailable
	}
	return text
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
