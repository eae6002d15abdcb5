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

// Conversion run parameters. Earlier versions of this tool existed as
// several near-copies differing only in a few behaviours; those differences
// are now flags on one parameter struct.
package importparams

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type ConversionParams struct {
	// Directory containing one subdirectory per subject
	DataDir string `yaml:"dataDir"`

	// Name of the raw-input subdirectory within each subject directory
	RawDirName string `yaml:"rawDirName"`

	// Name of the BIDS output subdirectory within each subject directory
	OutputDirName string `yaml:"outputDirName"`

	// Path to the external converter, empty means find it on PATH
	ConverterPath string `yaml:"converterPath"`

	// Insert a ses-<examNumber> entity into output names
	IncludeSessionEntity bool `yaml:"includeSessionEntity"`

	// Assign sequential run numbers to repeated T1w acquisitions
	DisambiguateT1wRuns bool `yaml:"disambiguateT1wRuns"`

	// Split the magnitude sub-volume out of converted fieldmaps
	ExtractFieldmapMagnitude bool `yaml:"extractFieldmapMagnitude"`

	// Source files whose name contains any of these (case-insensitive) are
	// not converted at all
	SkipProtocolSubstrings []string `yaml:"skipProtocolSubstrings"`

	// S3 bucket to archive each subject's output directory to, empty disables
	ArchiveBucket string `yaml:"archiveBucket"`
}

// DefaultParams - the behaviour of the most recent conversion scripts
func DefaultParams() ConversionParams {
	return ConversionParams{
		DataDir:                  "Data",
		RawDirName:               "XMLPARREC",
		OutputDirName:            "NIfTI_BIDS",
		DisambiguateT1wRuns:      true,
		ExtractFieldmapMagnitude: true,
		SkipProtocolSubstrings:   []string{"survey", "coil"},
	}
}

// Load - Reads a YAML parameter file over the top of the defaults
func Load(filePath string) (ConversionParams, error) {
	params := DefaultParams()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return params, errors.Wrapf(err, "failed to read parameter file %v", filePath)
	}

	err = yaml.Unmarshal(data, &params)
	if err != nil {
		return params, errors.Wrapf(err, "failed to parse parameter file %v", filePath)
	}

	return params, nil
}
