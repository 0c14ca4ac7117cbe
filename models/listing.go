package models

// NotAvailable fills any field a listing did not carry.
const NotAvailable = "N/A"

// Ad is one classified-ad row as it appears in the search results.
// Values are kept exactly as rendered; Price is not parsed here.
type Ad struct {
	Title string
	Price string
	URL   string
}

// Columns is the fixed column order used by every writer.
var Columns = []string{"title", "price", "url"}

// Row returns the ad in Columns order.
func (a Ad) Row() []string {
	return []string{a.Title, a.Price, a.URL}
}

// HasPrice reports whether the listing rendered a price.
func (a Ad) HasPrice() bool {
	return a.Price != "" && a.Price != NotAvailable
}

// HasURL reports whether the listing carried a link.
func (a Ad) HasURL() bool {
	return a.URL != "" && a.URL != NotAvailable
}

type StopReason string

const (
	StopCapReached    StopReason = "cap_reached"
	StopExhausted     StopReason = "exhausted"
	StopNoNewAds      StopReason = "no_new_ads"
	StopLoadFailed    StopReason = "load_failed"
	StopFirstPageFail StopReason = "first_page_failed"
	StopUnexpected    StopReason = "unexpected_error"
)

// ScrapeResult is what one collection run produced.
type ScrapeResult struct {
	Ads      []Ad
	Advances int
	Reason   StopReason
}
