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

// File name parser and classifier, extracting acquisition metadata from the
// scanner's export naming convention and mapping free-text protocol names
// to BIDS entities
package bidsname

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/parbids/core/bids-import/internal/convertModels"
	"github.com/parbids/core/core/utils"
)

// Exported PAR files are named:
// <patientId>_<exam>_<series>_<acquisition>_<H.MM.SS>_(<protocol>).PAR
var scanFileNameRe = regexp.MustCompile(`^(.+?)_(\d+)_(\d+)_(\d+)_(\d+\.\d+\.\d+)_\((.+)\)\.(?i:PAR)$`)

// ParseScanFileName - Splits a PAR file name into its acquisition fields.
// Names not following the convention return ErrScanFileNameMismatch, the
// caller is expected to skip those files, not fail the batch.
func ParseScanFileName(fileName string) (convertModels.ScanInfo, error) {
	// We often get passed paths so here we ensure we're just dealing with the file name at the end
	fileName = filepath.Base(fileName)

	result := convertModels.ScanInfo{}

	match := scanFileNameRe.FindStringSubmatch(fileName)
	if match == nil {
		return result, fmt.Errorf("%w: %v", convertModels.ErrScanFileNameMismatch, fileName)
	}

	result.PatientID = match[1]
	result.ExamNumber = match[2]
	result.SeriesNumber = match[3]
	result.AcquisitionNumber = match[4]
	result.Timestamp = match[5]
	result.ProtocolName = match[6]

	return result, nil
}

// ClassifyOptions - which variant behaviours are enabled for a run
type ClassifyOptions struct {
	IncludeSessionEntity bool
	DisambiguateT1wRuns  bool
}

// One entry in the ordered protocol rule table. The first rule whose
// substrings match the lower-cased protocol name wins.
type protocolRule struct {
	substrings []string
	suffix     string
	modality   convertModels.Modality
	task       string
}

var protocolRules = []protocolRule{
	{[]string{"t1w", "t1"}, "T1w", convertModels.ModalityAnat, ""},
	{[]string{"t2w", "t2"}, "T2w", convertModels.ModalityAnat, ""},
	{[]string{"funct", "resting"}, "bold", convertModels.ModalityFunc, "rest"},
	{[]string{"anticipation"}, "bold", convertModels.ModalityFunc, "anticipation"},
	{[]string{"test_epi"}, "bold", convertModels.ModalityFunc, "test"},
	{[]string{"b0map"}, "phasediff", convertModels.ModalityFmap, ""},
	{[]string{"survey"}, "scout", convertModels.ModalityAnat, ""},
}

// Classify - Maps a scan's protocol name to BIDS entities. Repeated T1w
// acquisitions with the same normalised label get sequential run numbers
// from the counter, which must span exactly one subject's processing pass.
func Classify(scan convertModels.ScanInfo, opts ClassifyOptions, runs convertModels.RunCounter) convertModels.BidsEntities {
	entities := convertModels.BidsEntities{
		Subject:  scan.SubjectID,
		Suffix:   "unknown",
		Modality: convertModels.ModalityUnknown,
	}
	if len(entities.Subject) <= 0 {
		entities.Subject = "unknown"
	}

	if opts.IncludeSessionEntity && len(scan.ExamNumber) > 0 {
		entities.Session = scan.ExamNumber
	}

	protocol := strings.ToLower(scan.ProtocolName)

	for _, rule := range protocolRules {
		if !containsAny(protocol, rule.substrings) {
			continue
		}

		entities.Suffix = rule.suffix
		entities.Modality = rule.modality
		entities.Task = rule.task

		switch {
		case rule.suffix == "T1w":
			entities.Acquisition = MakeAcquisitionLabel(scan.ProtocolName)
			if opts.DisambiguateT1wRuns && runs != nil {
				entities.Run = strconv.Itoa(runs.Next(entities.Acquisition))
			}
		case rule.task == "anticipation":
			entities.Run = anticipationRun(protocol)
		}
		break
	}

	return entities
}

// MakeAcquisitionLabel - Normalises a protocol name into a BIDS acq label:
// lower-cased, alphanumeric only, with the scanner's WIP/VIP markers removed
func MakeAcquisitionLabel(protocolName string) string {
	label := strings.ToLower(protocolName)

	var b strings.Builder
	for _, c := range label {
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}

	label = b.String()
	label = strings.ReplaceAll(label, "wip", "")
	label = strings.ReplaceAll(label, "vip", "")
	return label
}

// anticipationRun - The run number is embedded in the protocol text after
// the task name, eg "Anticipation_run2". Falls back to "01" when there are
// no digits to read.
func anticipationRun(protocolLower string) string {
	idx := strings.LastIndex(protocolLower, "anticipation")
	remainder := protocolLower[idx+len("anticipation"):]

	digits := ""
	for _, c := range remainder {
		if c >= '0' && c <= '9' {
			digits += string(c)
		}
	}

	num, err := strconv.Atoi(digits)
	if err != nil || num <= 0 {
		return "01"
	}
	return fmt.Sprintf("%02d", num)
}

// ShouldSkip - Exclusion test applied before classification. The substring
// list is configuration, by default it drops survey/coil acquisitions which
// have no BIDS home.
func ShouldSkip(fileName string, skipSubstrings []string) bool {
	return utils.ContainsAnyFold(fileName, skipSubstrings)
}

func containsAny(str string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(str, sub) {
			return true
		}
	}
	return false
}
