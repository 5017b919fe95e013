package constants

// Failure kinds recorded for files that could not be loaded.
const (
	FailureFetch = "fetch"
	FailureParse = "parse"
)

// Placeholders used by the presenter.
const (
	NotAvailable      = "N/A"
	NoDetailsMessage  = "No detailed analysis available"
	NoResultsMessage  = "No reports found matching your criteria"
	NothingLoadedHint = "Could not load files. Files may not be available or the base location is wrong."
)
