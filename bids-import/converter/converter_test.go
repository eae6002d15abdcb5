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

package converter

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parbids/core/bids-import/internal/convertModels"
	"github.com/parbids/core/bids-import/nifti"
	"github.com/parbids/core/core/logger"
)

func TestResolveOutputFile(t *testing.T) {
	dir := t.TempDir()
	parPath := "/somewhere/VA003_19_1_2_19.14.32_(WIP_T1W).PAR"

	// Nothing written yet
	_, err := ResolveOutputFile(dir, parPath)
	assert.ErrorIs(t, err, convertModels.ErrOutputFileMissing)

	// Compressed variant
	gzPath := filepath.Join(dir, "VA003_19_1_2_19.14.32_(WIP_T1W).nii.gz")
	require.NoError(t, os.WriteFile(gzPath, []byte("x"), 0644))
	found, err := ResolveOutputFile(dir, parPath)
	require.NoError(t, err)
	assert.Equal(t, gzPath, found)

	// Plain .nii wins when both exist, matching older tool versions
	plainPath := filepath.Join(dir, "VA003_19_1_2_19.14.32_(WIP_T1W).nii")
	require.NoError(t, os.WriteFile(plainPath, []byte("x"), 0644))
	found, err = ResolveOutputFile(dir, parPath)
	require.NoError(t, err)
	assert.Equal(t, plainPath, found)
}

func TestMockConverter(t *testing.T) {
	dir := t.TempDir()
	parPath := filepath.Join(dir, "VA003_19_1_2_19.14.32_(WIP_T1W).PAR")

	mock := &MockNiftiConverter{NumVolumes: 2}

	outPath, err := mock.Convert(parPath, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "VA003_19_1_2_19.14.32_(WIP_T1W).nii.gz"), outPath)
	assert.Equal(t, []string{parPath}, mock.Calls)

	img, err := nifti.ReadImage(outPath)
	require.NoError(t, err)
	assert.Equal(t, 2, img.NumVolumes())
}

func TestMockConverterFailure(t *testing.T) {
	dir := t.TempDir()
	parPath := filepath.Join(dir, "VA003_19_1_2_19.14.32_(WIP_T1W).PAR")

	mock := &MockNiftiConverter{
		NumVolumes: 1,
		FailOn:     map[string]bool{"VA003_19_1_2_19.14.32_(WIP_T1W)": true},
	}

	_, err := mock.Convert(parPath, dir)
	require.Error(t, err)

	var toolErr *convertModels.ExternalToolError
	require.True(t, errors.As(err, &toolErr))
	assert.Equal(t, "mock-converter", toolErr.Tool)
	assert.Contains(t, toolErr.Stderr, "synthetic failure")
}

func TestParrec2NiiMissingExecutable(t *testing.T) {
	dir := t.TempDir()

	c := &Parrec2Nii{ExecPath: filepath.Join(dir, "no-such-tool"), Log: &logger.NullLogger{}}

	_, err := c.Convert(filepath.Join(dir, "scan.PAR"), dir)
	require.Error(t, err)

	var toolErr *convertModels.ExternalToolError
	assert.True(t, errors.As(err, &toolErr))
}
