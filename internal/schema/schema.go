// Package schema holds the closed Category Schema: the single source of
// truth enumerated identically by the crawler's downstream consumers, the
// extractor, the refiner, and the record writer.
package schema

import "strings"

// Category describes one entry in the closed schema.
type Category struct {
	// Name is the stable identifier and also the JSON key / DB column name.
	Name string
	// Description is the human/LLM-facing description. It may contain the
	// placeholder "[hotelName]", substituted by callers before use.
	Description string
	// CaptureGuide, if non-empty, gives the extractor field-specific
	// instructions (e.g. "preserve Q&A verbatim").
	CaptureGuide string
	// MergeGuide, if non-empty, gives the refiner field-specific weighting
	// or consolidation instructions.
	MergeGuide string
}

// Other is the name of the special catch-all category. It has no
// field-specific prioritization rules and is the only category that also
// produces a derived "other_structured" JSON column.
const Other = "other"

// OtherStructuredColumn is the derived column name allowed in addition
// to the Category Schema's own columns.
const OtherStructuredColumn = "other_structured"

// Categories is the closed, ordered list of categories. Ordering is
// significant only for prompt construction determinism, not for any
// storage semantics.
var Categories = []Category{
	{
		Name:        "basic_information",
		Description: "General identifying facts about [hotelName]: star rating, brand affiliation, address, check-in/check-out times, languages spoken.",
	},
	{
		Name:        "contacts",
		Description: "Phone numbers, email addresses, and physical mailing address for [hotelName].",
		CaptureGuide: "Preserve phone numbers and emails exactly as written, including country codes and extensions.",
	},
	{
		Name:        "accessibility",
		Description: "Accessibility features of [hotelName]: wheelchair access, accessible rooms, elevators, hearing/visual aids.",
	},
	{
		Name:        "amenities",
		Description: "General amenities offered by [hotelName]: pools, spas, business centers, Wi-Fi, pet policy.",
	},
	{
		Name:        "cleanliness_enhancements",
		Description: "Enhanced cleaning or health-safety programs at [hotelName], e.g. branded sanitation protocols.",
	},
	{
		Name:        "food_beverage",
		Description: "Restaurants, bars, room service, and breakfast offerings at [hotelName].",
	},
	{
		Name:        "guest_rooms",
		Description: "Room types, bed configurations, views, and in-room amenities at [hotelName].",
		MergeGuide:  "Prefer the most specific pricing or configuration detail when multiple snippets describe the same room type.",
	},
	{
		Name:        "guest_services_front_desk",
		Description: "Front desk hours, concierge, luggage storage, and other guest services at [hotelName].",
	},
	{
		Name:        "housekeeping_laundry",
		Description: "Housekeeping schedule, laundry, and dry-cleaning services at [hotelName].",
	},
	{
		Name:        "local_area_information",
		Description: "Nearby attractions, transit, and points of interest around [hotelName].",
	},
	{
		Name:        "meeting_events",
		Description: "Meeting rooms, event spaces, and capacity details at [hotelName].",
	},
	{
		Name:        "on_property_convenience",
		Description: "Gift shops, ATMs, vending, and other on-property conveniences at [hotelName].",
	},
	{
		Name:        "parking_transportation",
		Description: "Parking, valet, shuttle, and airport transportation for [hotelName].",
	},
	{
		Name:        "policies",
		Description: "Cancellation, pet, smoking, age, and deposit policies at [hotelName].",
		CaptureGuide: "Preserve exact cutoff times, fees, and age thresholds; never round or generalize a stated number.",
	},
	{
		Name:        "recreation_fitness",
		Description: "Gym, fitness classes, sports courts, and recreational activities at [hotelName].",
	},
	{
		Name:        "safety_security",
		Description: "Safety equipment, security staffing, and emergency procedures at [hotelName].",
	},
	{
		Name:        "technology_business_services",
		Description: "Wi-Fi details, business center equipment, printing, and AV services at [hotelName].",
	},
	{
		Name:         "faq",
		Description:  "Explicit question-and-answer content published by [hotelName].",
		CaptureGuide: "Preserve each question and its answer verbatim; never paraphrase or summarize an explicit Q&A pair.",
	},
	{
		Name: Other,
		Description: "Anything else worth recording about [hotelName] that doesn't fit another category.",
	},
}

// byName is built once and used by Lookup.
var byName = func() map[string]Category {
	m := make(map[string]Category, len(Categories))
	for _, c := range Categories {
		m[c.Name] = c
	}
	return m
}()

// Lookup returns the Category for name and whether it exists in the
// closed schema.
func Lookup(name string) (Category, bool) {
	c, ok := byName[name]
	return c, ok
}

// Names returns every category name in schema order.
func Names() []string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = c.Name
	}
	return names
}

// IsValidColumn reports whether name is a category name or the derived
// other_structured column — the closed set of columns a write is ever
// allowed to touch.
func IsValidColumn(name string) bool {
	if name == OtherStructuredColumn {
		return true
	}
	_, ok := byName[name]
	return ok
}

// ResolveDescription substitutes [hotelName] into a category's
// description for prompt construction.
func ResolveDescription(c Category, hotelName string) string {
	return strings.ReplaceAll(c.Description, "[hotelName]", hotelName)
}
