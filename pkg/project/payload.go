package project

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Status tells renderers whether a payload has content to draw.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNoData      Status = "no_data"
	StatusNoSelection Status = "no_selection"
	StatusUnavailable Status = "unavailable"
)

const (
	msgNoData      = "No data available. Load rows and map the origin and destination columns."
	msgNoMatch     = "No flows match the current filters."
	msgNoSelection = "Select a node to show its ego network."
	msgNoCoords    = "Map the coordinate columns to enable the map view."
)

// Default top-N limits.
const (
	DefaultFlowTopN  = 50
	DefaultForceTopN = 100
)

// Summary is the view-independent digest shown in a toolbar. State keeps
// one per view so switching views redisplays the last computed numbers.
type Summary struct {
	TotalLinks      int     `json:"totalLinks"`
	TotalWeight     float64 `json:"totalWeight"`
	DisplayedLinks  int     `json:"displayedLinks"`
	DisplayedWeight float64 `json:"displayedWeight"`
	Label           string  `json:"label"`
}

// TotalsSummary reports the graph totals with nothing displayed yet.
func TotalsSummary(totalLinks int, totalWeight float64) Summary {
	s := Summary{TotalLinks: totalLinks, TotalWeight: totalWeight}
	s.Label = printer.Sprintf("Links: -- / %d · Displayed weight: -- / %v", totalLinks, number.Decimal(totalWeight))
	return s
}

func displayedSummary(totalLinks int, totalWeight float64, shown int, shownWeight float64) Summary {
	return Summary{
		TotalLinks:      totalLinks,
		TotalWeight:     totalWeight,
		DisplayedLinks:  shown,
		DisplayedWeight: shownWeight,
		Label: printer.Sprintf("Displayed links: %d/%d · Displayed weight: %v / %v",
			shown, totalLinks, number.Decimal(shownWeight), number.Decimal(totalWeight)),
	}
}

// printer groups thousands in labels. Weights go through number.Decimal
// so large totals read 1,000,000 rather than 1e+06.
var printer = message.NewPrinter(language.English)
