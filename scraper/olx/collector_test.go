package olx

import (
	"bytes"
	"fmt"
	"olx-scraper/config"
	"olx-scraper/models"
	"olx-scraper/utils"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedDriver replays canned snapshots instead of driving a browser.
type scriptedDriver struct {
	first    *goquery.Document
	firstErr error
	pages    []*goquery.Document
	// returned by AdvancePage once pages run out
	endErr       error
	panicAt      int
	loadCalls    int
	advanceCalls int
}

func (d *scriptedDriver) LoadInitial(url string) (*goquery.Document, error) {
	d.loadCalls++
	if d.firstErr != nil {
		return nil, d.firstErr
	}
	return d.first, nil
}

func (d *scriptedDriver) AdvancePage() (*goquery.Document, error) {
	d.advanceCalls++
	if d.panicAt > 0 && d.advanceCalls == d.panicAt {
		panic("tab crashed")
	}
	if len(d.pages) == 0 {
		if d.endErr != nil {
			return nil, d.endErr
		}
		return nil, newError(ErrControlNotFound, "find load more", nil)
	}
	doc := d.pages[0]
	d.pages = d.pages[1:]
	return doc, nil
}

// pagedDriver serves one document per call: the first page holds sizes[0]
// ads and every load-more document the next size, numbered on from the
// previous page.
func pagedDriver(t *testing.T, sizes ...int) *scriptedDriver {
	t.Helper()
	d := &scriptedDriver{first: numberedPage(t, 1, sizes[0])}
	next := sizes[0] + 1
	for _, n := range sizes[1:] {
		d.pages = append(d.pages, numberedPage(t, next, n))
		next += n
	}
	return d
}

func pageWithIDs(t *testing.T, ids ...int) *goquery.Document {
	t.Helper()
	var b strings.Builder
	b.WriteString(pageHead)
	for _, id := range ids {
		b.WriteString(listingHTML(id))
	}
	b.WriteString(pageTail)
	return parseHTML(t, b.String())
}

func titles(ads []models.Ad) []string {
	out := make([]string, len(ads))
	for i, ad := range ads {
		out[i] = ad.Title
	}
	return out
}

func newTestCollector(d PageDriver, maxAds int) *Collector {
	cfg := config.DefaultConfig()
	cfg.MaxAds = maxAds
	return NewCollector(d, NewExtractor(cfg), cfg)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	utils.SetLogOutput(&buf)
	return &buf
}

func countLevel(logs, level string) int {
	return strings.Count(logs, fmt.Sprintf(`"level":"%s"`, level))
}

func TestCollectorStopsWhenLoadMoreRunsOut(t *testing.T) {
	d := pagedDriver(t, 50, 50, 50, 9)

	res := newTestCollector(d, 309).Run()

	require.Len(t, res.Ads, 159)
	assert.Equal(t, 3, res.Advances)
	assert.Equal(t, 4, d.advanceCalls)
	assert.Equal(t, models.StopExhausted, res.Reason)
	for i, ad := range res.Ads {
		assert.Equal(t, fmt.Sprintf("Car cover %d", i+1), ad.Title)
	}
}

func TestCollectorNeverExceedsCap(t *testing.T) {
	tests := []struct {
		name  string
		cap   int
		sizes []int
		want  int
	}{
		{"first page above cap", 10, []int{50}, 10},
		{"cap hit mid page", 309, []int{50, 50, 50, 50, 50, 50, 50}, 309},
		{"cap exactly reached", 100, []int{50, 50, 50}, 100},
		{"single ad cap", 1, []int{3, 3}, 1},
		{"exhausted below cap", 500, []int{20, 7}, 27},
		{"uneven pages", 45, []int{12, 40, 3}, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := newTestCollector(pagedDriver(t, tt.sizes...), tt.cap).Run()

			require.Len(t, res.Ads, tt.want)
			assert.LessOrEqual(t, len(res.Ads), tt.cap)
			for i, ad := range res.Ads {
				assert.Equal(t, fmt.Sprintf("Car cover %d", i+1), ad.Title)
			}
		})
	}
}

func TestCollectorCapReached(t *testing.T) {
	d := pagedDriver(t, 50, 50, 50, 50, 50, 50, 50)

	res := newTestCollector(d, 309).Run()

	assert.Len(t, res.Ads, 309)
	assert.Equal(t, models.StopCapReached, res.Reason)
	assert.Equal(t, 6, res.Advances)
	assert.Equal(t, 6, d.advanceCalls)
	assert.Equal(t, "Car cover 309", res.Ads[308].Title)
}

func TestCollectorFirstPageFailure(t *testing.T) {
	logs := captureLogs(t)
	d := &scriptedDriver{firstErr: newError(ErrPageLoadTimeout, "load", nil)}

	res := newTestCollector(d, 309).Run()

	assert.Empty(t, res.Ads)
	assert.Equal(t, models.StopFirstPageFail, res.Reason)
	assert.Equal(t, 0, d.advanceCalls)
	assert.Equal(t, 1, countLevel(logs.String(), "error"))
}

func TestCollectorStopsOnEmptyDocument(t *testing.T) {
	d := pagedDriver(t, 40)
	d.pages = []*goquery.Document{numberedPage(t, 41, 0), numberedPage(t, 41, 10)}

	res := newTestCollector(d, 309).Run()

	assert.Len(t, res.Ads, 40)
	assert.Equal(t, models.StopNoNewAds, res.Reason)
	assert.Equal(t, 1, res.Advances)
	assert.Equal(t, 1, d.advanceCalls)
}

func TestCollectorAppendsWholeSnapshot(t *testing.T) {
	d := &scriptedDriver{
		first: pageWithIDs(t, 1, 2, 3),
		pages: []*goquery.Document{pageWithIDs(t, 101, 102, 1, 2, 3)},
	}

	res := newTestCollector(d, 309).Run()

	assert.Equal(t, []string{
		"Car cover 1", "Car cover 2", "Car cover 3",
		"Car cover 101", "Car cover 102", "Car cover 1", "Car cover 2", "Car cover 3",
	}, titles(res.Ads))
	assert.Equal(t, models.StopExhausted, res.Reason)
}

func TestCollectorKeepsAdsOnLoadMoreTimeout(t *testing.T) {
	logs := captureLogs(t)
	d := pagedDriver(t, 30, 30)
	d.endErr = newError(ErrPageLoadTimeout, "load more", nil)

	res := newTestCollector(d, 309).Run()

	assert.Len(t, res.Ads, 60)
	assert.Equal(t, models.StopLoadFailed, res.Reason)
	assert.Equal(t, 1, countLevel(logs.String(), "error"))
}

func TestCollectorRecoversFromPanic(t *testing.T) {
	d := pagedDriver(t, 25, 25, 25)
	d.panicAt = 2

	var res models.ScrapeResult
	require.NotPanics(t, func() {
		res = newTestCollector(d, 309).Run()
	})

	assert.Len(t, res.Ads, 50)
	assert.Equal(t, models.StopUnexpected, res.Reason)
}
