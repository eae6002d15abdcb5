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
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/parbids/core/bids-import/internal/convertModels"
	"github.com/parbids/core/bids-import/nifti"
)

// MockNiftiConverter - writes a tiny synthetic image instead of invoking
// any external process, for unit testing the pipeline around it
type MockNiftiConverter struct {
	// Volumes in the synthetic image's time dimension, 1 makes it 3-D
	NumVolumes int

	// Produce a bare .nii instead of .nii.gz, exercising output resolution
	Uncompressed bool

	// Source file base names (without extension) that fail to convert
	FailOn map[string]bool

	// Records the PAR paths Convert was called with
	Calls []string
}

const mockDimXYZ = 2

func (m *MockNiftiConverter) Convert(parPath string, outputDir string) (string, error) {
	m.Calls = append(m.Calls, parPath)

	base := filepath.Base(parPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if m.FailOn[base] {
		return "", &convertModels.ExternalToolError{
			Tool:   "mock-converter",
			Stderr: "synthetic failure for " + base,
			Err:    fmt.Errorf("exit status 1"),
		}
	}

	img := MakeTestImage(m.NumVolumes)

	outName := base + ".nii.gz"
	if m.Uncompressed {
		outName = base + ".nii"
	}
	outPath := filepath.Join(outputDir, outName)

	err := nifti.WriteImage(outPath, img)
	if err != nil {
		return "", err
	}

	return ResolveOutputFile(outputDir, parPath)
}

// MakeTestImage - a valid 2x2x2 uint8 image with the given number of
// volumes, each volume filled with its own index so slicing is verifiable
func MakeTestImage(numVolumes int) *nifti.Image {
	if numVolumes <= 0 {
		numVolumes = 1
	}

	img := &nifti.Image{ByteOrder: binary.LittleEndian}
	img.Header.Dim = [8]int16{3, mockDimXYZ, mockDimXYZ, mockDimXYZ, 1, 1, 1, 1}
	if numVolumes > 1 {
		img.Header.Dim[0] = 4
		img.Header.Dim[4] = int16(numVolumes)
	}
	img.Header.Datatype = 2 // DT_UNSIGNED_CHAR
	img.Header.Bitpix = 8
	img.Header.Pixdim = [8]float32{1, 1, 1, 1, 1, 1, 1, 1}
	copy(img.Header.Magic[:], []int8{'n', '+', '1', 0})

	volSize := mockDimXYZ * mockDimXYZ * mockDimXYZ
	img.Data = make([]byte, volSize*numVolumes)
	for v := 0; v < numVolumes; v++ {
		for i := 0; i < volSize; i++ {
			img.Data[v*volSize+i] = byte(v)
		}
	}

	return img
}
