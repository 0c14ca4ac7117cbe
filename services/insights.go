package services

import (
	"io"
	"math"
	"olx-scraper/models"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Report struct {
	TotalAds      int
	WithPrice     int
	MissingPrice  int
	MissingURL    int
	DuplicateURLs int
	AveragePrice  float64
	MinPrice      float64
	MaxPrice      float64
	MostExpensive models.Ad
	Cheapest      []models.Ad
}

var amountRe = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)

// GenerateReport summarises a run. Prices are parsed from their display
// form ("₹ 1,299"); ads whose price has no number are left out of the stats.
func GenerateReport(ads []models.Ad) Report {
	report := Report{TotalAds: len(ads)}
	if len(ads) == 0 {
		return report
	}

	var (
		priceSum = 0.0
		maxPrice = -1.0
		minPrice = math.MaxFloat64
		priced   []models.Ad
		seen     = make(map[string]bool)
	)

	for _, ad := range ads {
		if !ad.HasURL() {
			report.MissingURL++
		} else if seen[ad.URL] {
			report.DuplicateURLs++
		} else {
			seen[ad.URL] = true
		}

		price, ok := ParsePrice(ad.Price)
		if !ok {
			report.MissingPrice++
			continue
		}
		report.WithPrice++
		priceSum += price
		priced = append(priced, ad)

		if price > maxPrice {
			maxPrice = price
			report.MostExpensive = ad
		}
		if price < minPrice {
			minPrice = price
		}
	}

	if report.WithPrice > 0 {
		report.AveragePrice = priceSum / float64(report.WithPrice)
		report.MinPrice = minPrice
		report.MaxPrice = maxPrice
	}

	sort.SliceStable(priced, func(i, j int) bool {
		pi, _ := ParsePrice(priced[i].Price)
		pj, _ := ParsePrice(priced[j].Price)
		return pi < pj
	})
	if len(priced) > 5 {
		priced = priced[:5]
	}
	report.Cheapest = priced

	return report
}

// ParsePrice pulls the first amount out of a displayed price.
func ParsePrice(raw string) (float64, bool) {
	if raw == "" || raw == models.NotAvailable {
		return 0, false
	}
	m := amountRe.FindString(raw)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func PrintReport(w io.Writer, report Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("OLX Search Insights")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Total ads", report.TotalAds},
		{"Ads with price", report.WithPrice},
		{"Ads without price", report.MissingPrice},
		{"Ads without link", report.MissingURL},
		{"Repeated links", report.DuplicateURLs},
		{"Average price", formatAmount(report.AveragePrice)},
		{"Minimum price", formatAmount(report.MinPrice)},
		{"Maximum price", formatAmount(report.MaxPrice)},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if report.MostExpensive.Title != "" {
		t = table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle("Most Expensive Ad")
		t.AppendRows([]table.Row{
			{"Title", truncateText(report.MostExpensive.Title, 60)},
			{"Price", report.MostExpensive.Price},
			{"URL", report.MostExpensive.URL},
		})
		t.SetStyle(table.StyleRounded)
		t.Render()
	}

	if len(report.Cheapest) > 0 {
		t = table.NewWriter()
		t.SetOutputMirror(w)
		t.SetTitle("Cheapest Ads")
		t.AppendHeader(table.Row{"#", "Title", "Price"})
		for i, ad := range report.Cheapest {
			t.AppendRow(table.Row{i + 1, truncateText(ad.Title, 44), ad.Price})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	}
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
