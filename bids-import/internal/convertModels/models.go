// Licensed to NASA JPL under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. NASA JPL licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

// Data structures shared between the PAR/XML readers, the BIDS name
// classifier and the sidecar writer
package convertModels

import "strings"

// Modality - the BIDS modality class an acquisition was classified as
type Modality string

const (
	ModalityAnat    Modality = "anat"
	ModalityFunc    Modality = "func"
	ModalityFmap    Modality = "fmap"
	ModalityUnknown Modality = "unknown"
)

// ScanInfo - everything we know about one acquisition from its file name
// and the directory it sits in. Built once per source file, read-only after.
type ScanInfo struct {
	PatientID         string
	ExamNumber        string
	SeriesNumber      string
	AcquisitionNumber string
	Timestamp         string
	ProtocolName      string

	// From the containing directory, not the file name
	SubjectID string

	// The .PAR file plus its .REC/.XML/.V41 siblings
	SourceFiles []string
}

// ScanParameters - typed values pulled out of known PAR header lines.
// Pointers so a missing header line stays absent from the sidecar instead
// of showing up as 0. Times are in seconds (BIDS raw convention), converted
// from the milliseconds the PAR format stores.
type ScanParameters struct {
	RepetitionTimeSec *float64  `json:"RepetitionTime,omitempty"`
	EchoTimeSec       *float64  `json:"EchoTime,omitempty"`
	FieldOfViewMM     []float64 `json:"FieldOfView,omitempty"`
	ScanResolution    []int     `json:"ScanResolution,omitempty"`
	Technique         string    `json:"Technique,omitempty"`
	PatientPosition   string    `json:"PatientPosition,omitempty"`
	AngulationDeg     []float64 `json:"Angulation,omitempty"`
	OffCentreMM       []float64 `json:"OffCentre,omitempty"`
	SliceCount        *int      `json:"NumberOfSlices,omitempty"`
	DynamicsCount     *int      `json:"NumberOfDynamics,omitempty"`

	// Derived: uniform linear slice acquisition, seconds
	SliceTimingSec []float64 `json:"SliceTiming,omitempty"`
}

// HeaderMetadata - output of the PAR general-information parser
type HeaderMetadata struct {
	// Key/value pairs from the "." prefixed general information lines
	Fields map[string]string

	Scan ScanParameters
}

// BidsEntities - the entity labels making up a BIDS file name. Task and Run
// are only set for the rules that derive them, never implied.
type BidsEntities struct {
	Subject     string
	Session     string // optional
	Acquisition string // optional, anatomical T1w only
	Task        string // optional, functional only
	Run         string // optional
	Suffix      string
	Modality    Modality
}

// BaseName - assembles the BIDS file name (without extension). Entity order
// is fixed: sub, ses, acq, task, run, then the suffix.
func (e BidsEntities) BaseName() string {
	parts := []string{"sub-" + e.Subject}

	if len(e.Session) > 0 {
		parts = append(parts, "ses-"+e.Session)
	}
	if len(e.Acquisition) > 0 {
		parts = append(parts, "acq-"+e.Acquisition)
	}
	if len(e.Task) > 0 {
		parts = append(parts, "task-"+e.Task)
	}
	if len(e.Run) > 0 {
		parts = append(parts, "run-"+e.Run)
	}

	parts = append(parts, e.Suffix)
	return strings.Join(parts, "_")
}

// WithSuffix - copy of the entities with a different suffix, used when a
// fieldmap conversion produces a magnitude artifact next to the phasediff
func (e BidsEntities) WithSuffix(suffix string) BidsEntities {
	out := e
	out.Suffix = suffix
	return out
}

// RunCounter - per-subject counter of repeated acquisitions, keyed by
// normalised acquisition label. Must be reset for each subject pass.
type RunCounter map[string]int

// Next - increments and returns the run number for a label, starting at 1
func (r RunCounter) Next(acqLabel string) int {
	r[acqLabel] = r[acqLabel] + 1
	return r[acqLabel]
}
