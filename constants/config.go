package constants

import "time"

// Default configuration values
const (
	// Loading
	DefaultFetchConcurrency = 4
	DefaultFetchTimeout     = 30 * time.Second
	DefaultFetchRetries     = 3
	DefaultFetchBackoff     = 500 * time.Millisecond
	DefaultFetchMaxBackoff  = 5 * time.Second

	// Server
	DefaultListenAddress = "127.0.0.1:8080"
	DefaultReadTimeout   = 10 * time.Second
	DefaultWriteTimeout  = 30 * time.Second
	DefaultIdleTimeout   = 60 * time.Second
	ShutdownTimeout      = 5 * time.Second

	// Presentation
	ExcerptLength = 150

	// File and data constants
	DefaultFilePermissions = 0644
	DefaultDataDir         = "."
)

// Default filenames
const (
	DefaultHTMLReportFile = "consulate-reports.html"
	DefaultDataJSONFile   = "consulate-reports-data.json"
	DefaultXLSXReportFile = "consulate-reports.xlsx"
)

// DefaultReportFiles is the fixed batch loaded when no explicit file set is given.
var DefaultReportFiles = []string{
	"karta_polaka_processed_2025-09-26_21-09-10.json",
	"karta_polaka_processed_2025-09-26_21-38-03.json",
	"karta_polaka_processed_2025-09-26_22-12-39.json",
	"karta_polaka_processed_2025-09-27_05-30-38.json",
	"karta_polaka_processed_2025-09-27_08-42-30.json",
	"karta_polaka_processed_2025-09-27_15-44-01.json",
	"karta_polaka_processed_2025-09-27_17-32-03.json",
}

// KnownConsulates are the hashtag fragments that identify a consulate.
// Matching is a case-sensitive substring test.
var KnownConsulates = []string{
	"белосток",
	"варшава",
	"краков",
	"гданьск",
	"вроцлав",
	"катовице",
}

// Questions filter values, as accepted by the viewer.
const (
	QuestionsFilterWith = "with_questions"
	QuestionsFilterAll  = "all"
)

// Error messages
const (
	ErrNothingLoaded         = "no report files could be loaded"
	ErrInvalidQuestionsValue = "invalid questions filter: must be 'with_questions' or 'all'"
	ErrConflictingSources    = "a base URL and explicit input files are mutually exclusive"
	ErrInvalidDate           = "invalid date %q: expected YYYY-MM-DD"
	ErrInvalidMode           = "invalid mode %q: must be 'render', 'export' or 'serve'"
	ErrInvalidDateRange      = "date from must not be after date to"
)
