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

package output

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parbids/core/bids-import/internal/convertModels"
	"github.com/parbids/core/core/timestamper"
)

func makeScan() convertModels.ScanInfo {
	return convertModels.ScanInfo{
		PatientID:    "VA003",
		ExamNumber:   "19",
		ProtocolName: "Functional_8min",
		SubjectID:    "VA003",
		SourceFiles:  []string{"a.PAR", "a.REC", "a.XML", "a.V41"},
	}
}

func makeStamper() *timestamper.MockTimeNowStamper {
	return &timestamper.MockTimeNowStamper{QueuedTimeStamps: []int64{1700000000}}
}

func TestMakeSidecarProvenance(t *testing.T) {
	tr := 2.0
	header := convertModels.HeaderMetadata{
		Fields: map[string]string{
			"Patient name": "VA003",
			// Colliding key, must NOT overwrite provenance
			"ConversionSoftware": "scanner-says-otherwise",
		},
		Scan: convertModels.ScanParameters{RepetitionTimeSec: &tr},
	}

	entities := convertModels.BidsEntities{Subject: "VA003", Suffix: "T1w", Modality: convertModels.ModalityAnat}
	xmlMeta := map[string]string{"Protocol Name": "WIP_T1W"}

	doc := MakeSidecar(makeScan(), entities, header, xmlMeta, makeStamper())

	assert.Equal(t, "parbids", doc["ConversionSoftware"])
	assert.Equal(t, "2.0.0", doc["ConversionSoftwareVersion"])
	assert.Equal(t, "2023-11-14T22:13:20Z", doc["ConversionDate"])
	assert.Equal(t, "Philips PAR/REC", doc["SourceFormat"])
	assert.Equal(t, []string{"a.PAR", "a.REC", "a.XML", "a.V41"}, doc["SourceFiles"])
	assert.Equal(t, "anat", doc["BIDSModality"])
	assert.Equal(t, "VA003", doc["SubjectID"])

	// Non-colliding header fields come through as-is
	assert.Equal(t, "VA003", doc["Patient name"])

	assert.Equal(t, header.Scan, doc["ScanParameters"])
	assert.Equal(t, xmlMeta, doc["XMLMetadata"])

	// Anatomical scans get none of the functional timing keys
	assert.NotContains(t, doc, "SliceTiming")
	assert.NotContains(t, doc, "Units")
}

func TestMakeSidecarFunctional(t *testing.T) {
	tr := 2.0
	header := convertModels.HeaderMetadata{
		Fields: map[string]string{},
		Scan: convertModels.ScanParameters{
			RepetitionTimeSec: &tr,
			SliceTimingSec:    []float64{0, 0.5, 1.0, 1.5},
		},
	}

	entities := convertModels.BidsEntities{Subject: "VA003", Task: "rest", Suffix: "bold", Modality: convertModels.ModalityFunc}

	doc := MakeSidecar(makeScan(), entities, header, nil, makeStamper())

	assert.Equal(t, []float64{0, 0.5, 1.0, 1.5}, doc["SliceTiming"])
	assert.Equal(t, "k", doc["SliceEncodingDirection"])
	assert.Equal(t, "j-", doc["PhaseEncodingDirection"])
	assert.Equal(t, 0.00051, doc["EffectiveEchoSpacing"])
	assert.Equal(t, 1, doc["EchoTrainLength"])
	assert.Equal(t, []string{"EffectiveEchoSpacing", "EchoTrainLength"}, doc["ApproximateFields"])
}

func TestMakeSidecarFunctionalWithoutTiming(t *testing.T) {
	// No slice timing could be derived, don't emit half the timing block
	header := convertModels.HeaderMetadata{Fields: map[string]string{}}
	entities := convertModels.BidsEntities{Subject: "VA003", Task: "rest", Suffix: "bold", Modality: convertModels.ModalityFunc}

	doc := MakeSidecar(makeScan(), entities, header, nil, makeStamper())

	assert.NotContains(t, doc, "SliceTiming")
	assert.NotContains(t, doc, "PhaseEncodingDirection")
	assert.NotContains(t, doc, "EffectiveEchoSpacing")
}

func TestMakeSidecarFieldmap(t *testing.T) {
	header := convertModels.HeaderMetadata{Fields: map[string]string{}}
	entities := convertModels.BidsEntities{Subject: "VA003", Suffix: "phasediff", Modality: convertModels.ModalityFmap}

	doc := MakeSidecar(makeScan(), entities, header, nil, makeStamper())

	assert.Equal(t, "Hz", doc["Units"])
	assert.Equal(t, []string{}, doc["IntendedFor"])
	assert.NotContains(t, doc, "SliceTiming")
}

func TestBatchSummary(t *testing.T) {
	s := BatchSummary{}
	s.SubjectsProcessed = 1
	s.AddConverted()
	s.AddConverted()
	s.AddSkipped()
	s.AddFailed("bad_file.PAR")

	other := BatchSummary{SubjectsProcessed: 1, Converted: 3}
	other.AddFailed("worse_file.PAR")

	s.Merge(other)

	assert.Equal(t, 2, s.SubjectsProcessed)
	assert.Equal(t, 5, s.Converted)
	assert.Equal(t, 2, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, []string{"bad_file.PAR", "worse_file.PAR"}, s.FailedFiles)
	assert.Equal(t, "2 subject(s): 5 converted, 2 failed, 1 skipped", s.String())
}
