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

// B0 fieldmap acquisitions store magnitude and phase-difference images in
// one PAR/REC pair. This splits the magnitude volumes back out of the
// converted image so they can be written as a separate BIDS artifact.
package fieldmap

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/parbids/core/bids-import/converter"
	"github.com/parbids/core/bids-import/nifti"
	"github.com/parbids/core/core/logger"
)

// image_type_mr codes from the PAR image information table
const (
	ImageTypeMagnitude = 0
	ImageTypePhaseDiff = 18
)

// Column of image_type_mr in an image information row
const imageTypeColumn = 4

// Minimum columns for a row to be considered part of the image table
const minImageTableColumns = 13

// ImageTypeCounts - how many image slots of each type the PAR file declares
type ImageTypeCounts struct {
	Magnitude int
	PhaseDiff int
}

// CountImageTypes - Scans the image information table at the bottom of a PAR
// file and tallies slots by image type code. Header and comment lines are
// identified by their leading marker characters; anything else with enough
// numeric columns is a table row.
func CountImageTypes(parContent string) ImageTypeCounts {
	counts := ImageTypeCounts{}

	for _, line := range strings.Split(parContent, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) <= 0 || strings.HasPrefix(trimmed, ".") || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "*") {
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) < minImageTableColumns {
			continue
		}

		// Guard against stray text lines: the leading columns must be numeric
		if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
			continue
		}

		imageType, err := strconv.Atoi(fields[imageTypeColumn])
		if err != nil {
			continue
		}

		switch imageType {
		case ImageTypeMagnitude:
			counts.Magnitude++
		case ImageTypePhaseDiff:
			counts.PhaseDiff++
		}
	}

	return counts
}

// Extractor - converts a fieldmap acquisition and splits out its magnitude
// sub-volume
type Extractor struct {
	Converter converter.NiftiConverter
	Log       logger.ILogger
}

// Process - Converts the full fieldmap, then writes the first N volumes
// (N = magnitude slot count) as a separate magnitude image. Returns the
// converted path and the magnitude path; the magnitude path is empty when
// no magnitude slots were found.
func (e *Extractor) Process(parPath string, outputDir string) (string, string, error) {
	parData, err := os.ReadFile(parPath)
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to read fieldmap header %v", parPath)
	}

	counts := CountImageTypes(string(parData))
	e.Log.Debugf("Fieldmap %v: %v magnitude, %v phase-difference slots", parPath, counts.Magnitude, counts.PhaseDiff)

	convertedPath, err := e.Converter.Convert(parPath, outputDir)
	if err != nil {
		return "", "", err
	}

	if counts.Magnitude <= 0 {
		e.Log.Infof("No magnitude slots in %v, keeping phase-difference image only", parPath)
		return convertedPath, "", nil
	}

	img, err := nifti.ReadImage(convertedPath)
	if err != nil {
		return "", "", err
	}

	magnitude := img
	if img.NumVolumes() > 1 {
		magnitude, err = img.FirstVolumes(counts.Magnitude)
		if err != nil {
			return "", "", errors.Wrapf(err, "failed to split magnitude volumes from %v", convertedPath)
		}
	}

	magnitudePath := magnitudeFileName(convertedPath)
	err = nifti.WriteImage(magnitudePath, magnitude)
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to write magnitude image %v", magnitudePath)
	}

	return convertedPath, magnitudePath, nil
}

func magnitudeFileName(convertedPath string) string {
	base := convertedPath
	for _, suffix := range []string{".gz", ".nii"} {
		base = strings.TrimSuffix(base, suffix)
	}
	return base + "_magnitude1.nii.gz"
}
