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

// Assembles the JSON sidecar written next to each converted image
package output

import (
	"time"

	"github.com/parbids/core/bids-import/internal/convertModels"
	"github.com/parbids/core/core/timestamper"
)

const ConversionSoftware = "parbids"
const ConversionSoftwareVersion = "2.0.0"
const SourceFormat = "Philips PAR/REC"

// Values that are scanner-typical assumptions rather than measured from this
// acquisition. They are listed in the sidecar under ApproximateFields so
// downstream pipelines know not to trust them blindly.
const assumedEffectiveEchoSpacingSec = 0.00051
const assumedEchoTrainLength = 1

// Fieldmap phase-difference values come out of the scanner in Hz
const fieldmapUnits = "Hz"

// MakeSidecar - Merges provenance, scan identity, PAR header metadata and
// XML metadata into one JSON document. Provenance and identity keys are set
// first and a header field with a colliding name never overwrites them.
func MakeSidecar(
	scan convertModels.ScanInfo,
	entities convertModels.BidsEntities,
	header convertModels.HeaderMetadata,
	xmlMeta map[string]string,
	ts timestamper.ITimeStamper,
) map[string]interface{} {
	doc := map[string]interface{}{
		"ConversionSoftware":        ConversionSoftware,
		"ConversionSoftwareVersion": ConversionSoftwareVersion,
		"ConversionDate":            time.Unix(ts.GetTimeNowSec(), 0).UTC().Format(time.RFC3339),
		"SourceFormat":              SourceFormat,
		"SourceFiles":               scan.SourceFiles,
		"BIDSModality":              string(entities.Modality),
		"SubjectID":                 scan.SubjectID,
	}

	for key, value := range header.Fields {
		if _, exists := doc[key]; !exists {
			doc[key] = value
		}
	}

	doc["ScanParameters"] = header.Scan
	doc["XMLMetadata"] = xmlMeta

	if entities.Modality == convertModels.ModalityFunc && len(header.Scan.SliceTimingSec) > 0 {
		doc["SliceTiming"] = header.Scan.SliceTimingSec
		doc["SliceEncodingDirection"] = "k"
		doc["PhaseEncodingDirection"] = "j-"
		doc["EffectiveEchoSpacing"] = assumedEffectiveEchoSpacingSec
		doc["EchoTrainLength"] = assumedEchoTrainLength
		doc["ApproximateFields"] = []string{"EffectiveEchoSpacing", "EchoTrainLength"}
	}

	if entities.Modality == convertModels.ModalityFmap {
		doc["Units"] = fieldmapUnits
		// Populated by the preprocessing pipeline once it knows which runs
		// this fieldmap corrects
		doc["IntendedFor"] = []string{}
	}

	return doc
}
