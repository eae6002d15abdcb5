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

// Readers for the two metadata files exported next to the REC pixel data:
// the PAR text header and the extended-metadata XML
package importerutils

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/parbids/core/bids-import/internal/convertModels"
	"github.com/parbids/core/core/logger"
)

// PAR stores times in milliseconds, BIDS raw sidecars want seconds
const msecToSec = 0.001

// ReadPARHeaderFile - Reads and parses a PAR header file
func ReadPARHeaderFile(filePath string, jobLog logger.ILogger) (convertModels.HeaderMetadata, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return convertModels.HeaderMetadata{}, errors.Wrapf(err, "failed to read PAR header %v", filePath)
	}

	return ParsePARHeader(string(data), jobLog), nil
}

// ParsePARHeader - Scans PAR header text. General-information lines (leading
// "." with a colon) are captured as string key/values. Known labels are
// additionally parsed into typed scan parameters; a label that's absent
// leaves its field unset, and a label whose value won't parse is logged and
// left unset rather than failing the file.
func ParsePARHeader(content string, jobLog logger.ILogger) convertModels.HeaderMetadata {
	meta := convertModels.HeaderMetadata{
		Fields: map[string]string{},
	}

	lines := strings.Split(content, "\n")

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, ".") && strings.Contains(trimmed, ":") {
			parts := strings.SplitN(trimmed, ":", 2)
			key := strings.TrimSpace(strings.ReplaceAll(parts[0], ".", ""))
			value := strings.TrimSpace(parts[1])
			if len(key) > 0 {
				meta.Fields[key] = value
			}
		}
	}

	// Labels are matched independently of line order
	for _, line := range lines {
		switch {
		case strings.Contains(line, "Repetition time [ms]"):
			if v, ok := parseFloatValue(line, jobLog); ok {
				sec := v * msecToSec
				meta.Scan.RepetitionTimeSec = &sec
			}
		case strings.Contains(line, "Echo time [ms]"):
			if v, ok := parseFloatValue(line, jobLog); ok {
				sec := v * msecToSec
				meta.Scan.EchoTimeSec = &sec
			}
		case strings.Contains(line, "FOV (ap,fh,rl) [mm]"):
			if v, ok := parseFloatsValue(line, 3, jobLog); ok {
				meta.Scan.FieldOfViewMM = v
			}
		case strings.Contains(line, "Scan resolution  (x, y)"):
			if v, ok := parseIntsValue(line, 2, jobLog); ok {
				meta.Scan.ScanResolution = v
			}
		case strings.Contains(line, "Angulation midslice(ap,fh,rl)[degr]"):
			if v, ok := parseFloatsValue(line, 3, jobLog); ok {
				meta.Scan.AngulationDeg = v
			}
		case strings.Contains(line, "Off Centre midslice(ap,fh,rl) [mm]"):
			if v, ok := parseFloatsValue(line, 3, jobLog); ok {
				meta.Scan.OffCentreMM = v
			}
		case strings.Contains(line, "Max. number of slices/locations"):
			if v, ok := parseIntsValue(line, 1, jobLog); ok {
				meta.Scan.SliceCount = &v[0]
			}
		case strings.Contains(line, "Max. number of dynamics"):
			if v, ok := parseIntsValue(line, 1, jobLog); ok {
				meta.Scan.DynamicsCount = &v[0]
			}
		case strings.Contains(line, "Patient position"):
			meta.Scan.PatientPosition = rawValue(line)
		case strings.Contains(line, "Technique"):
			meta.Scan.Technique = rawValue(line)
		}
	}

	meta.Scan.SliceTimingSec = deriveSliceTiming(meta.Scan)

	return meta
}

// deriveSliceTiming - Assumes uniform linear slice acquisition:
// timing(i) = (i-1) * TR / sliceCount, in seconds
func deriveSliceTiming(scan convertModels.ScanParameters) []float64 {
	if scan.RepetitionTimeSec == nil || scan.SliceCount == nil || *scan.SliceCount <= 0 {
		return nil
	}

	n := *scan.SliceCount
	timing := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		timing = append(timing, float64(i)*(*scan.RepetitionTimeSec/float64(n)))
	}
	return timing
}

func rawValue(line string) string {
	colonPos := strings.Index(line, ":")
	if colonPos < 0 {
		return ""
	}
	return strings.TrimSpace(line[colonPos+1:])
}

func parseFloatValue(line string, jobLog logger.ILogger) (float64, bool) {
	str := rawValue(line)
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		jobLog.Errorf("Failed to parse \"%v\" from header line \"%v\", field skipped", str, strings.TrimSpace(line))
		return 0, false
	}
	return v, true
}

func parseFloatsValue(line string, expected int, jobLog logger.ILogger) ([]float64, bool) {
	fields := strings.Fields(rawValue(line))
	if len(fields) < expected {
		jobLog.Errorf("Expected %v values on header line \"%v\", field skipped", expected, strings.TrimSpace(line))
		return nil, false
	}

	result := make([]float64, 0, expected)
	for _, f := range fields[0:expected] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			jobLog.Errorf("Failed to parse \"%v\" from header line \"%v\", field skipped", f, strings.TrimSpace(line))
			return nil, false
		}
		result = append(result, v)
	}
	return result, true
}

func parseIntsValue(line string, expected int, jobLog logger.ILogger) ([]int, bool) {
	fields := strings.Fields(rawValue(line))
	if len(fields) < expected {
		jobLog.Errorf("Expected %v values on header line \"%v\", field skipped", expected, strings.TrimSpace(line))
		return nil, false
	}

	result := make([]int, 0, expected)
	for _, f := range fields[0:expected] {
		v, err := strconv.Atoi(f)
		if err != nil {
			jobLog.Errorf("Failed to parse \"%v\" from header line \"%v\", field skipped", f, strings.TrimSpace(line))
			return nil, false
		}
		result = append(result, v)
	}
	return result, true
}
