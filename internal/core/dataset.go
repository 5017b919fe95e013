package core

import (
	"time"

	"github.com/ethpandaops/consulate-reports/internal/ingest"
	"github.com/ethpandaops/consulate-reports/internal/loader"
)

// Dataset is one published load result. It is never modified after publication.
type Dataset struct {
	LoadID        string
	LoadedAt      time.Time
	Files         int
	Reports       []ingest.Report
	Consulates    []string
	Stats         ingest.Stats
	Failures      []loader.FileError
	Warnings      []string
	NothingLoaded bool
}

func emptyDataset() *Dataset {
	return &Dataset{
		Reports:    []ingest.Report{},
		Consulates: []string{},
	}
}

// Empty reports whether nothing has been loaded yet or the data was cleared.
func (d *Dataset) Empty() bool {
	return d.LoadID == "" && !d.NothingLoaded
}
