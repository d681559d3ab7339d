// Package importer brings datasets up to date with the historical logfiles.
package importer

import (
	"path/filepath"

	"github.com/ccollicutt/speedlog/pkg/fsutil"
)

// periodKeyLen is the length of the YYYYMM prefix of a logfile name.
const periodKeyLen = 6

// Reason explains why a logfile was selected for merging.
type Reason string

const (
	// ReasonNoDataset means the target dataset does not exist yet.
	ReasonNoDataset Reason = "no_dataset"
	// ReasonLogNewer means the logfile changed after the dataset was written.
	ReasonLogNewer Reason = "log_newer"
)

// Job maps one logfile to the dataset it is merged into.
type Job struct {
	Log     fsutil.FileHandle `json:"log"`
	Dataset string            `json:"dataset"`
	Reason  Reason            `json:"reason"`
}

// DatasetName derives the dataset file name for a logfile: the period key
// (first six characters of the name) plus ext.
func DatasetName(logName, ext string) string {
	key := []rune(logName)
	if len(key) > periodKeyLen {
		key = key[:periodKeyLen]
	}
	return string(key) + ext
}

// Plan selects the logfiles that need merging. A logfile qualifies when its
// dataset does not exist or is older than the logfile. Jobs keep the order
// of logs.
func Plan(logs, datasets []fsutil.FileHandle, datasetDir, ext string) []Job {
	var jobs []Job
	for _, log := range logs {
		name := DatasetName(log.Name, ext)
		job := Job{Log: log, Dataset: filepath.Join(datasetDir, name)}

		existing, ok := fsutil.FindByName(datasets, name)
		switch {
		case !ok:
			job.Reason = ReasonNoDataset
		case log.IsNewer(existing):
			job.Reason = ReasonLogNewer
		default:
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}
