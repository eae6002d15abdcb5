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

package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parbids/core/bids-import/converter"
	"github.com/parbids/core/bids-import/importparams"
	"github.com/parbids/core/bids-import/nifti"
	"github.com/parbids/core/core/fileaccess"
	"github.com/parbids/core/core/logger"
	"github.com/parbids/core/core/timestamper"
)

const anatHeader = `# === GENERAL INFORMATION ===
.    Patient name                       :   VA003
.    Technique                          :   T1TFE
.    Max. number of slices/locations    :   4
.    Repetition time [ms]               :   2000.00
`

func fieldmapHeader(magnitudeRows int, phaseRows int) string {
	lines := []string{
		".    Patient name                       :   VA003",
		".    Technique                          :   B0map",
		"# === IMAGE INFORMATION ===",
	}

	row := 1
	addRows := func(count int, imageType int) {
		for i := 0; i < count; i++ {
			lines = append(lines, fmt.Sprintf("  %d   1    1  1 %d 0    %d  16   100  64  64  0.0  1.0  4.0", row, imageType, row-1))
			row++
		}
	}
	addRows(magnitudeRows, 0)
	addRows(phaseRows, 18)

	return strings.Join(lines, "\n") + "\n"
}

// Builds a data directory with one complete subject covering every
// classification path, plus one subject with no raw data at all
func buildDataDir(t *testing.T) string {
	dataDir := t.TempDir()

	rawDir := filepath.Join(dataDir, "VA003", "XMLPARREC")
	require.NoError(t, os.MkdirAll(rawDir, 0777))

	files := map[string]string{
		"VA003_19_1_2_19.14.32_(WIP_T1W_3D_TFE).PAR":   anatHeader,
		"VA003_19_2_2_19.20.00_(T1W_3D_TFE).PAR":       anatHeader,
		"VA003_19_3_1_19.30.00_(Functional_Rest).PAR":  anatHeader,
		"VA003_19_4_1_19.40.00_(T2W_TSE).PAR":          anatHeader,
		"VA003_19_5_1_19.50.00_(B0map_shimmed).PAR":    fieldmapHeader(2, 2),
		"VA003_19_6_1_19.55.00_(Survey_32ch).PAR":      anatHeader,
		"notes.PAR":                                    "not a scan",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(rawDir, name), []byte(content), 0644))
	}

	// Sidecar metadata for the first T1
	xmlContent := `<PRIDE_V5><Series_Info><Attribute Name="Protocol Name">WIP_T1W_3D_TFE</Attribute></Series_Info></PRIDE_V5>`
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "VA003_19_1_2_19.14.32_(WIP_T1W_3D_TFE).XML"), []byte(xmlContent), 0644))

	// A subject directory with no raw data, gets logged and skipped
	require.NoError(t, os.MkdirAll(filepath.Join(dataDir, "VA004"), 0777))

	return dataDir
}

func makeImporter(dataDir string, mock *converter.MockNiftiConverter) (*BIDSImporter, *logger.NullLogger) {
	params := importparams.DefaultParams()
	params.DataDir = dataDir

	jobLog := &logger.NullLogger{RecordLines: true}

	return &BIDSImporter{
		LocalFS:     &fileaccess.FSAccess{},
		Converter:   mock,
		TimeStamper: &timestamper.UnixTimeNowStamper{},
		Params:      params,
		Log:         jobLog,
	}, jobLog
}

func TestImportSubjects(t *testing.T) {
	dataDir := buildDataDir(t)

	mock := &converter.MockNiftiConverter{
		NumVolumes: 4,
		FailOn:     map[string]bool{"VA003_19_4_1_19.40.00_(T2W_TSE)": true},
	}
	imp, _ := makeImporter(dataDir, mock)

	summary, err := imp.ImportSubjects(nil)
	require.NoError(t, err)

	// Two T1s, one bold, one fieldmap converted; the T2 fails; the survey
	// and the unparseable name are skipped. One failure never stops the rest.
	assert.Equal(t, 1, summary.SubjectsProcessed)
	assert.Equal(t, 4, summary.Converted)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, []string{"VA003_19_4_1_19.40.00_(T2W_TSE).PAR"}, summary.FailedFiles)

	outDir := filepath.Join(dataDir, "VA003", "NIfTI_BIDS")
	expectedFiles := []string{
		"sub-VA003_acq-t1w3dtfe_run-1_T1w.nii.gz",
		"sub-VA003_acq-t1w3dtfe_run-1_T1w.json",
		"sub-VA003_acq-t1w3dtfe_run-2_T1w.nii.gz",
		"sub-VA003_acq-t1w3dtfe_run-2_T1w.json",
		"sub-VA003_task-rest_bold.nii.gz",
		"sub-VA003_task-rest_bold.json",
		"sub-VA003_phasediff.nii.gz",
		"sub-VA003_phasediff.json",
		"sub-VA003_magnitude1.nii.gz",
		"sub-VA003_magnitude1.json",
	}
	for _, f := range expectedFiles {
		_, statErr := os.Stat(filepath.Join(outDir, f))
		assert.NoError(t, statErr, "expected output file: %v", f)
	}

	// The magnitude image carries only the 2 magnitude volumes of the 4
	mag, err := nifti.ReadImage(filepath.Join(outDir, "sub-VA003_magnitude1.nii.gz"))
	require.NoError(t, err)
	assert.Equal(t, 2, mag.NumVolumes())
}

func TestImportSubjectsSidecarContent(t *testing.T) {
	dataDir := buildDataDir(t)

	mock := &converter.MockNiftiConverter{NumVolumes: 4}
	imp, _ := makeImporter(dataDir, mock)

	_, err := imp.ImportSubjects([]string{"VA003"})
	require.NoError(t, err)

	outDir := filepath.Join(dataDir, "VA003", "NIfTI_BIDS")

	bold := map[string]interface{}{}
	require.NoError(t, imp.LocalFS.ReadJSON(outDir, "sub-VA003_task-rest_bold.json", &bold, false))

	assert.Equal(t, "func", bold["BIDSModality"])
	assert.Equal(t, "VA003", bold["SubjectID"])
	assert.Equal(t, "parbids", bold["ConversionSoftware"])
	// TR 2000ms over 4 slices
	assert.Equal(t, []interface{}{0.0, 0.5, 1.0, 1.5}, bold["SliceTiming"])

	// The source file list names all four sibling files
	sources, ok := bold["SourceFiles"].([]interface{})
	require.True(t, ok)
	require.Equal(t, 4, len(sources))
	assert.True(t, strings.HasSuffix(sources[0].(string), ".PAR"))
	assert.True(t, strings.HasSuffix(sources[1].(string), ".REC"))
	assert.True(t, strings.HasSuffix(sources[2].(string), ".XML"))
	assert.True(t, strings.HasSuffix(sources[3].(string), ".V41"))

	// XML metadata made it into the T1's sidecar
	t1 := map[string]interface{}{}
	require.NoError(t, imp.LocalFS.ReadJSON(outDir, "sub-VA003_acq-t1w3dtfe_run-1_T1w.json", &t1, false))
	xmlMeta, ok := t1["XMLMetadata"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "WIP_T1W_3D_TFE", xmlMeta["Protocol Name"])

	fmap := map[string]interface{}{}
	require.NoError(t, imp.LocalFS.ReadJSON(outDir, "sub-VA003_phasediff.json", &fmap, false))
	assert.Equal(t, "Hz", fmap["Units"])
}

func TestImportSubjectsRequested(t *testing.T) {
	dataDir := buildDataDir(t)

	mock := &converter.MockNiftiConverter{NumVolumes: 4}
	imp, jobLog := makeImporter(dataDir, mock)

	// Requesting only the subject with no raw data processes nothing but
	// isn't the no-subjects error
	summary, err := imp.ImportSubjects([]string{"VA004"})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.SubjectsProcessed)

	// Unknown subjects are logged with the available ones listed
	summary, err = imp.ImportSubjects([]string{"NOPE"})
	assert.ErrorIs(t, err, ErrNoSubjects)
	assert.Equal(t, 0, summary.SubjectsProcessed)

	found := false
	for _, line := range jobLog.Lines {
		if strings.Contains(line, "NOPE") && strings.Contains(line, "VA003") {
			found = true
		}
	}
	assert.True(t, found, "expected a log line naming the missing subject and the available ones")
}

func TestImportSubjectsEmptyDataDir(t *testing.T) {
	mock := &converter.MockNiftiConverter{NumVolumes: 1}
	imp, _ := makeImporter(t.TempDir(), mock)

	_, err := imp.ImportSubjects(nil)
	assert.ErrorIs(t, err, ErrNoSubjects)

	imp.Params.DataDir = filepath.Join(imp.Params.DataDir, "does-not-exist")
	_, err = imp.ImportSubjects(nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSubjects)
}

func TestImportSubjectsArchive(t *testing.T) {
	dataDir := buildDataDir(t)

	mock := &converter.MockNiftiConverter{NumVolumes: 4}
	imp, _ := makeImporter(dataDir, mock)

	remote := fileaccess.MakeMemFileAccess()
	imp.RemoteFS = remote
	imp.Params.ArchiveBucket = "test-archive"

	_, err := imp.ImportSubjects([]string{"VA003"})
	require.NoError(t, err)

	exists, err := remote.ObjectExists("test-archive", "VA003/NIfTI_BIDS/sub-VA003_task-rest_bold.nii.gz")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = remote.ObjectExists("test-archive", "VA003/NIfTI_BIDS/sub-VA003_task-rest_bold.json")
	require.NoError(t, err)
	assert.True(t, exists)
}
