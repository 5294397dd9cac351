package normalize

// townCorrections fixes town names the source publishes with their internal
// spaces dropped. Applied as exact-match substitution per row.
var townCorrections = map[string]string{
	"EastBridgewater":   "East Bridgewater",
	"EastBrookfield":    "East Brookfield",
	"EastLongmeadow":    "East Longmeadow",
	"FallRiver":         "Fall River",
	"GreatBarrington":   "Great Barrington",
	"MountWashington":   "Mount Washington",
	"NewAshford":        "New Ashford",
	"NewBedford":        "New Bedford",
	"NewBraintree":      "New Braintree",
	"NewMarlborough":    "New Marlborough",
	"NewSalem":          "New Salem",
	"NorthAdams":        "North Adams",
	"NorthAndover":      "North Andover",
	"NorthAttleborough": "North Attleborough",
	"NorthBrookfield":   "North Brookfield",
	"NorthReading":      "North Reading",
	"OakBluffs":         "Oak Bluffs",
	"SouthHadley":       "South Hadley",
	"WestBoylston":      "West Boylston",
	"WestBridgewater":   "West Bridgewater",
	"WestBrookfield":    "West Brookfield",
	"WestNewbury":       "West Newbury",
	"WestSpringfield":   "West Springfield",
	"WestStockbridge":   "West Stockbridge",
	"WestTisbury":       "West Tisbury",
}

// CorrectTown standardizes a town name, returning the input unchanged when
// it is not a known misspelling.
func CorrectTown(name string) string {
	if fixed, ok := townCorrections[name]; ok {
		return fixed
	}
	return name
}
