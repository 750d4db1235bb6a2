package model

// Category identifies one kind of upstream data and its persisted artifact.
type Category string

const (
	CategoryProfile               Category = "profile"
	CategoryHistorical            Category = "historical"
	CategoryChart                 Category = "chart"
	CategoryFundamentalsQuarterly Category = "fundamentals-quarterly"
	CategoryFundamentalsAnnual    Category = "fundamentals-annual"
	CategoryBalanceSheet          Category = "balance-sheet"
	CategoryEnterpriseValue       Category = "enterprise-value"
	CategoryRatios                Category = "ratios"
	CategoryEarningsCalendar      Category = "earnings-calendar"
	CategoryDividendsHistoric     Category = "dividends-historic"
	CategoryDividendsUpcoming     Category = "dividends-upcoming"
	CategoryLogo                  Category = "logo"
)

// Layout describes where artifacts of a category are written.
type Layout struct {
	Dir     string // relative to the data (or logo) root
	Variant string // file name suffix after "_", empty for none
	Name    string // fixed file name for global categories
	Ext     string
}

var layouts = map[Category]Layout{
	CategoryProfile:               {Dir: "profiles", Ext: ".json"},
	CategoryHistorical:            {Dir: "historical", Ext: ".json"},
	CategoryChart:                 {Dir: "charts", Ext: ".json"},
	CategoryFundamentalsQuarterly: {Dir: "fundamentals", Ext: ".json"},
	CategoryFundamentalsAnnual:    {Dir: "fundamentals", Variant: "annual", Ext: ".json"},
	CategoryBalanceSheet:          {Dir: "balance", Ext: ".json"},
	CategoryEnterpriseValue:       {Dir: "ev", Ext: ".json"},
	CategoryRatios:                {Dir: "ratios", Ext: ".json"},
	CategoryEarningsCalendar:      {Dir: "events/earnings", Ext: ".json"},
	CategoryDividendsHistoric:     {Dir: "events/dividendsHistoric", Ext: ".json"},
	CategoryDividendsUpcoming:     {Dir: "events", Name: "upcomingDividends", Ext: ".json"},
	CategoryLogo:                  {Ext: ".png"},
}

// Categories lists every known category in ingestion order.
func Categories() []Category {
	return []Category{
		CategoryProfile, CategoryHistorical, CategoryChart,
		CategoryFundamentalsQuarterly, CategoryFundamentalsAnnual, CategoryBalanceSheet,
		CategoryEnterpriseValue, CategoryRatios, CategoryEarningsCalendar, CategoryDividendsHistoric,
		CategoryDividendsUpcoming, CategoryLogo,
	}
}

// Layout returns the on-disk layout of the category.
func (c Category) Layout() (Layout, bool) {
	l, ok := layouts[c]
	return l, ok
}

// Global reports whether the category is fetched once per run rather than per ticker.
func (c Category) Global() bool { return c == CategoryDividendsUpcoming }

// Binary reports whether artifacts are stored as raw bytes.
func (c Category) Binary() bool { return c == CategoryLogo }

// SkipIfExists reports whether an existing artifact suppresses the fetch.
// Series and fundamentals are always refetched to pick up new data.
func (c Category) SkipIfExists() bool { return c == CategoryLogo }

// Artifact is one fetched and normalized result, ready to persist.
type Artifact struct {
	Category Category
	Ticker   string
	Payload  any    // JSON-serializable content
	Binary   []byte // raw content for binary categories
}
