// Package constants provides shared constants for the finance-dashboard application.
package constants

import "time"

// DateTimeLayout is the month layout used for generated period starts and
// configuration values.
const DateTimeLayout = "2006-01"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// CurrencyFractionDigits is the maximum number of fraction digits shown by
	// currency formatters.
	CurrencyFractionDigits = 2

	// RatioFractionDigits is the number of fraction digits shown by ratio formatters.
	RatioFractionDigits = 1

	// DefaultCurrency is the ISO 4217 code used when no currency is configured.
	DefaultCurrency = "KZT"
)

// Rendering constants
const (
	// PlaceholderGlyph is rendered in table cells without a value.
	PlaceholderGlyph = "—"

	// TotalLabel captions the aggregate row of a table.
	TotalLabel = "Итого"

	// DefaultChartWidth is the default SVG chart width in pixels.
	DefaultChartWidth = 960

	// DefaultChartHeight is the default SVG chart height in pixels.
	DefaultChartHeight = 350

	// DefaultTickCount is the number of Y-axis ticks produced for a chart.
	DefaultTickCount = 5
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON view-model output format
	OutputFormatJSON = "json"

	// OutputFormatSVG is the SVG chart output format
	OutputFormatSVG = "svg"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"

	// EnvPrefix prefixes environment overrides of configuration keys.
	EnvPrefix = "FDASH"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the dashboard API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size (10 MB)
	DefaultMaxUploadSizeBytes int64 = 10 * 1024 * 1024

	// DefaultSessionIdleTimeout is how long an untouched upload session or
	// conversation is kept.
	DefaultSessionIdleTimeout = 30 * time.Minute
)

// Upload constants
var (
	// SupportedUploadExtensions lists the accepted spreadsheet extensions.
	SupportedUploadExtensions = []string{".xlsx", ".xls", ".csv", ".gsheet"}
)

// Simulated delays
const (
	// DefaultProgressInterval is the tick of the simulated upload progress.
	DefaultProgressInterval = 100 * time.Millisecond

	// DefaultProgressStep is added to the upload progress on every tick.
	DefaultProgressStep = 10

	// InitialProgress is the progress value right after a file is accepted.
	InitialProgress = 10

	// CompleteProgress is the progress value that ends the upload phase.
	CompleteProgress = 100

	// DefaultAnalysisDelay is the simulated analysis duration.
	DefaultAnalysisDelay = 3 * time.Second

	// DefaultTypingDelay is the simulated assistant typing duration.
	DefaultTypingDelay = 2 * time.Second
)
