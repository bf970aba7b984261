package config

// DomainConfig holds the tunable business rules for layout, reparenting
// and tracking. Values live here rather than as literals in the services
// so environments can adjust them without code changes.
type DomainConfig struct {
	// Layout geometry (canvas pixels)
	NodeWidth         float64
	NodeHeight        float64
	HorizontalSpacing float64
	VerticalSpacing   float64
	MinXOffset        float64

	// Reparenting constraints
	MaxBulkReparentItems int
	MaxTreeDepth         int

	// Tracking lifecycle
	MaxTrackingDays    int
	SnapshotHourUTC    int
	TrendWindowShort   int
	TrendWindowLong    int
	TrendWindowCutover int

	// Impact heuristics
	TrendThresholdPct    float64
	VolatilityCV         float64
	BaseEffectiveness    float64
	AIConfidenceWeight   float64
	FallbackConfidence   float64
	ImpressionsWeight    float64
	ClicksWeight         float64
	CTRWeight            float64
	PositionWeight       float64
	SEOScoreWeight       float64
	HealthScoreWeight    float64
	MaxMetricContribPct  float64

	// Feature flags
	EnableAISummaries   bool
	EnableAutoComplete  bool
	EnableEventEmission bool
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Layout geometry
		NodeWidth:         220,
		NodeHeight:        80,
		HorizontalSpacing: 40,
		VerticalSpacing:   140,
		MinXOffset:        50,

		// Reparenting constraints
		MaxBulkReparentItems: 100,
		MaxTreeDepth:         25,

		// Tracking lifecycle
		MaxTrackingDays:    90,
		SnapshotHourUTC:    4,
		TrendWindowShort:   3,
		TrendWindowLong:    7,
		TrendWindowCutover: 7,

		// Impact heuristics
		TrendThresholdPct:   10,
		VolatilityCV:        0.3,
		BaseEffectiveness:   50,
		AIConfidenceWeight:  5,
		FallbackConfidence:  0.5,
		ImpressionsWeight:   25,
		ClicksWeight:        25,
		CTRWeight:           20,
		PositionWeight:      15,
		SEOScoreWeight:      10,
		HealthScoreWeight:   5,
		MaxMetricContribPct: 0.5,

		// Feature flags
		EnableAISummaries:   true,
		EnableAutoComplete:  true,
		EnableEventEmission: true,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxBulkReparentItems = 50
	config.MaxTreeDepth = 15

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Shorter cycles so tracking flows can be exercised locally
	config.MaxTrackingDays = 7
	config.EnableAutoComplete = false
	config.EnableEventEmission = false

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}
