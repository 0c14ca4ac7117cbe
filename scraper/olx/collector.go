package olx

import (
	"errors"
	"olx-scraper/config"
	"olx-scraper/models"
	"olx-scraper/utils"
)

// Collector drives a PageDriver through the results until MaxAds ads are
// held or a snapshot yields nothing.
type Collector struct {
	driver    PageDriver
	extractor *Extractor
	searchURL string
	maxAds    int
}

func NewCollector(driver PageDriver, extractor *Extractor, cfg *config.Config) *Collector {
	return &Collector{
		driver:    driver,
		extractor: extractor,
		searchURL: cfg.SearchURL,
		maxAds:    cfg.MaxAds,
	}
}

type collectState struct {
	ads      []models.Ad
	advances int
}

// Run always returns what was collected, at most maxAds ads in page order,
// whatever stopped the loop.
func (c *Collector) Run() models.ScrapeResult {
	utils.Section("Collecting ads")
	st := &collectState{}
	reason := c.safeCollect(st)

	ads := st.ads
	if len(ads) > c.maxAds {
		ads = ads[:c.maxAds]
	}

	utils.Info("Collection stopped (%s) after %d load-more clicks | ads=%d", reason, st.advances, len(ads))
	return models.ScrapeResult{
		Ads:      ads,
		Advances: st.advances,
		Reason:   reason,
	}
}

func (c *Collector) safeCollect(st *collectState) (reason models.StopReason) {
	defer func() {
		if r := recover(); r != nil {
			utils.Error("Error in main loop: %v", r)
			reason = models.StopUnexpected
		}
	}()
	return c.collect(st)
}

func (c *Collector) collect(st *collectState) models.StopReason {
	doc, err := c.driver.LoadInitial(c.searchURL)
	if err != nil {
		utils.Error("Failed to retrieve first page content. Stopping: %v", err)
		return models.StopFirstPageFail
	}

	ads := c.extractor.Extract(doc)
	st.ads = append(st.ads, ads...)
	utils.Info("Collected %d ads from initial page. Total: %d", len(ads), len(st.ads))

	for len(st.ads) < c.maxAds {
		doc, err := c.driver.AdvancePage()
		if errors.Is(err, ErrControlNotFound) {
			utils.Info("No more 'Load More' button: %v", err)
			return models.StopExhausted
		}
		if err != nil {
			utils.Error("Failed to retrieve page content after clicking 'Load More'. Stopping: %v", err)
			return models.StopLoadFailed
		}
		st.advances++

		// appended as-is, no dedup
		ads := c.extractor.Extract(doc)
		if len(ads) == 0 {
			utils.Info("No new ads found after clicking 'Load More'. Stopping.")
			return models.StopNoNewAds
		}
		st.ads = append(st.ads, ads...)
		utils.Info("Collected %d new ads. Total: %d", len(ads), len(st.ads))
	}

	return models.StopCapReached
}
