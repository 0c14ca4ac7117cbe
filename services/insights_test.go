package services

import (
	"bytes"
	"olx-scraper/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{"₹ 1,299", 1299, true},
		{"₹ 450", 450, true},
		{"Rs 12,50,000", 1250000, true},
		{"₹ 99.50", 99.5, true},
		{models.NotAvailable, 0, false},
		{"Free", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParsePrice(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestGenerateReport(t *testing.T) {
	ads := []models.Ad{
		{Title: "Cover A", Price: "₹ 1,000", URL: "https://www.olx.in/item/1"},
		{Title: "Cover B", Price: "₹ 3,000", URL: "https://www.olx.in/item/2"},
		{Title: "Cover A", Price: "₹ 1,000", URL: "https://www.olx.in/item/1"},
		{Title: "Cover C", Price: models.NotAvailable, URL: models.NotAvailable},
		{Title: "Cover D", Price: "₹ 500", URL: "https://www.olx.in/item/4"},
	}

	r := GenerateReport(ads)

	assert.Equal(t, 5, r.TotalAds)
	assert.Equal(t, 4, r.WithPrice)
	assert.Equal(t, 1, r.MissingPrice)
	assert.Equal(t, 1, r.MissingURL)
	assert.Equal(t, 1, r.DuplicateURLs)
	assert.InDelta(t, 1375.0, r.AveragePrice, 0.001)
	assert.Equal(t, 500.0, r.MinPrice)
	assert.Equal(t, 3000.0, r.MaxPrice)
	assert.Equal(t, "Cover B", r.MostExpensive.Title)
	assert.Equal(t, "Cover D", r.Cheapest[0].Title)
	assert.Len(t, r.Cheapest, 4)
}

func TestGenerateReportEmpty(t *testing.T) {
	r := GenerateReport(nil)
	assert.Equal(t, Report{}, r)
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, GenerateReport([]models.Ad{
		{Title: "Waterproof car cover", Price: "₹ 1,299", URL: "https://www.olx.in/item/1"},
	}))

	out := buf.String()
	assert.Contains(t, out, "Total ads")
	assert.Contains(t, out, "1299.00")
	assert.Contains(t, out, "Waterproof car cover")
}
