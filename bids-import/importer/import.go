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

// Batch driver: walks subject directories, converts each PAR/REC acquisition
// and writes BIDS-named images with JSON sidecars. Strictly sequential, one
// subject at a time, one file at a time; a failure on one file is logged and
// counted, never fatal to the batch.
package importer

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parbids/core/bids-import/bidsname"
	"github.com/parbids/core/bids-import/converter"
	"github.com/parbids/core/bids-import/fieldmap"
	"github.com/parbids/core/bids-import/importparams"
	"github.com/parbids/core/bids-import/internal/convertModels"
	"github.com/parbids/core/bids-import/internal/importerutils"
	"github.com/parbids/core/bids-import/output"
	"github.com/parbids/core/core/fileaccess"
	"github.com/parbids/core/core/logger"
	"github.com/parbids/core/core/timestamper"
)

// ErrNoSubjects - nothing to process, either the data directory is empty or
// none of the requested subjects exist
var ErrNoSubjects = errors.New("no subject directories to process")

// BIDSImporter - one conversion run over a data directory
type BIDSImporter struct {
	LocalFS     fileaccess.FileAccess
	RemoteFS    fileaccess.FileAccess // only needed when archiving to a bucket
	Converter   converter.NiftiConverter
	TimeStamper timestamper.ITimeStamper
	Params      importparams.ConversionParams
	Log         logger.ILogger
}

// ImportSubjects - Processes the requested subjects (all discovered ones if
// the list is empty) and returns the accumulated batch summary. The only
// error returned is failure to enumerate the data directory or having no
// subjects at all; per-file failures are counted in the summary.
func (imp *BIDSImporter) ImportSubjects(requestedSubjects []string) (output.BatchSummary, error) {
	summary := output.BatchSummary{}

	entries, err := os.ReadDir(imp.Params.DataDir)
	if err != nil {
		return summary, err
	}

	allSubjects := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			allSubjects = append(allSubjects, entry.Name())
		}
	}
	// Deterministic order so run numbering is reproducible between runs
	sort.Strings(allSubjects)

	subjects := allSubjects
	if len(requestedSubjects) > 0 {
		requested := map[string]bool{}
		for _, s := range requestedSubjects {
			requested[s] = true
		}

		subjects = []string{}
		found := map[string]bool{}
		for _, s := range allSubjects {
			if requested[s] {
				subjects = append(subjects, s)
				found[s] = true
			}
		}

		for _, s := range requestedSubjects {
			if !found[s] {
				imp.Log.Errorf("Requested subject %v not found. Available subjects: %v", s, strings.Join(allSubjects, ", "))
			}
		}
	}

	if len(subjects) <= 0 {
		return summary, ErrNoSubjects
	}

	imp.Log.Infof("Found %v subject(s) to process", len(subjects))

	for _, subjectID := range subjects {
		imp.Log.Infof("Processing subject: %v", subjectID)
		subjectSummary := imp.processSubject(subjectID)
		summary.Merge(subjectSummary)
	}

	return summary, nil
}

func (imp *BIDSImporter) processSubject(subjectID string) output.BatchSummary {
	summary := output.BatchSummary{}

	rawDir := filepath.Join(imp.Params.DataDir, subjectID, imp.Params.RawDirName)
	outDir := filepath.Join(imp.Params.DataDir, subjectID, imp.Params.OutputDirName)

	entries, err := os.ReadDir(rawDir)
	if err != nil {
		imp.Log.Errorf("No %v directory found for subject %v, skipping", imp.Params.RawDirName, subjectID)
		return summary
	}

	parFiles := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".par") {
			parFiles = append(parFiles, entry.Name())
		}
	}
	// Directory listing order is not specified anywhere, sort so repeated
	// acquisitions always get the same run numbers
	sort.Strings(parFiles)

	if len(parFiles) <= 0 {
		imp.Log.Errorf("No PAR files found in %v", rawDir)
		return summary
	}

	summary.SubjectsProcessed = 1
	imp.Log.Infof("Subject %v: found %v PAR files", subjectID, len(parFiles))

	err = os.MkdirAll(outDir, 0777)
	if err != nil {
		imp.Log.Errorf("Failed to create output directory %v: %v", outDir, err)
		for _, f := range parFiles {
			summary.AddFailed(f)
		}
		return summary
	}

	// Run numbering restarts with every subject
	runs := convertModels.RunCounter{}

	for _, fileName := range parFiles {
		imp.Log.Infof("Processing: %v", fileName)

		skipped, err := imp.processFile(subjectID, rawDir, outDir, fileName, runs)
		if err != nil {
			imp.Log.Errorf("Failed to convert %v: %v", fileName, err)
			summary.AddFailed(fileName)
		} else if skipped {
			summary.AddSkipped()
		} else {
			summary.AddConverted()
		}
	}

	if len(imp.Params.ArchiveBucket) > 0 {
		imp.archiveSubjectOutput(subjectID, outDir)
	}

	return summary
}

// processFile - One source file end to end. Returns skipped=true for files
// excluded before conversion (skip rule or unparseable name).
func (imp *BIDSImporter) processFile(subjectID string, rawDir string, outDir string, fileName string, runs convertModels.RunCounter) (bool, error) {
	if bidsname.ShouldSkip(fileName, imp.Params.SkipProtocolSubstrings) {
		imp.Log.Infof("Skipping %v, matches exclusion rule", fileName)
		return true, nil
	}

	scan, err := bidsname.ParseScanFileName(fileName)
	if err != nil {
		imp.Log.Errorf("Skipping %v: %v", fileName, err)
		return true, nil
	}

	parPath := filepath.Join(rawDir, fileName)
	baseName := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	scan.SubjectID = subjectID
	scan.SourceFiles = []string{
		parPath,
		filepath.Join(rawDir, baseName+".REC"),
		filepath.Join(rawDir, baseName+".XML"),
		filepath.Join(rawDir, baseName+".V41"),
	}

	entities := bidsname.Classify(scan, bidsname.ClassifyOptions{
		IncludeSessionEntity: imp.Params.IncludeSessionEntity,
		DisambiguateT1wRuns:  imp.Params.DisambiguateT1wRuns,
	}, runs)

	header, err := importerutils.ReadPARHeaderFile(parPath, imp.Log)
	if err != nil {
		return false, err
	}

	xmlMeta := importerutils.ReadXMLMetadataFile(filepath.Join(rawDir, baseName+".XML"), imp.Log)

	if entities.Modality == convertModels.ModalityFmap && imp.Params.ExtractFieldmapMagnitude {
		extractor := fieldmap.Extractor{Converter: imp.Converter, Log: imp.Log}

		fullPath, magnitudePath, err := extractor.Process(parPath, outDir)
		if err != nil {
			return false, err
		}

		err = imp.finishArtifact(outDir, fullPath, entities, scan, header, xmlMeta)
		if err != nil {
			return false, err
		}

		if len(magnitudePath) > 0 {
			err = imp.finishArtifact(outDir, magnitudePath, entities.WithSuffix("magnitude1"), scan, header, xmlMeta)
			if err != nil {
				return false, err
			}
		}

		return false, nil
	}

	convertedPath, err := imp.Converter.Convert(parPath, outDir)
	if err != nil {
		return false, err
	}

	return false, imp.finishArtifact(outDir, convertedPath, entities, scan, header, xmlMeta)
}

// finishArtifact - Renames a converted image to its BIDS name and writes the
// JSON sidecar next to it. Output is always named .nii.gz since the external
// tool is run with compression on.
func (imp *BIDSImporter) finishArtifact(
	outDir string,
	convertedPath string,
	entities convertModels.BidsEntities,
	scan convertModels.ScanInfo,
	header convertModels.HeaderMetadata,
	xmlMeta map[string]string,
) error {
	bidsBase := entities.BaseName()

	err := imp.LocalFS.RenameObject(outDir, filepath.Base(convertedPath), bidsBase+".nii.gz")
	if err != nil {
		return err
	}

	sidecar := output.MakeSidecar(scan, entities, header, xmlMeta, imp.TimeStamper)
	err = imp.LocalFS.WriteJSON(outDir, bidsBase+".json", sidecar)
	if err != nil {
		return err
	}

	imp.Log.Infof("BIDS conversion complete: %v.nii.gz + %v.json", bidsBase, bidsBase)
	return nil
}

// archiveSubjectOutput - Copies a subject's finished output directory to the
// archive bucket. Archive failures are logged but don't fail the batch, the
// local output is still complete.
func (imp *BIDSImporter) archiveSubjectOutput(subjectID string, outDir string) {
	if imp.RemoteFS == nil {
		imp.Log.Errorf("Archive bucket %v configured but no remote file access available", imp.Params.ArchiveBucket)
		return
	}

	files, err := imp.LocalFS.ListObjects(outDir, "")
	if err != nil {
		imp.Log.Errorf("Failed to list output of subject %v for archiving: %v", subjectID, err)
		return
	}

	imp.Log.Infof("Archiving %v output file(s) for subject %v to bucket %v", len(files), subjectID, imp.Params.ArchiveBucket)

	for _, file := range files {
		data, err := imp.LocalFS.ReadObject(outDir, file)
		if err != nil {
			imp.Log.Errorf("Failed to read %v for archiving: %v", file, err)
			continue
		}

		dstPath := path.Join(subjectID, imp.Params.OutputDirName, file)
		err = imp.RemoteFS.WriteObject(imp.Params.ArchiveBucket, dstPath, data)
		if err != nil {
			imp.Log.Errorf("Failed to archive %v: %v", dstPath, err)
		}
	}
}
