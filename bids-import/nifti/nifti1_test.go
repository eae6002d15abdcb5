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

package nifti

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2x2x2 uint8 image with numVolumes time points, volume v filled with v+1
func makeTestImage(numVolumes int) *Image {
	img := &Image{ByteOrder: binary.LittleEndian}

	img.Header.SizeofHdr = headerSize
	img.Header.Dim = [8]int16{4, 2, 2, 2, int16(numVolumes), 1, 1, 1}
	img.Header.Datatype = 2 // DT_UNSIGNED_CHAR
	img.Header.Bitpix = 8
	img.Header.Pixdim = [8]float32{1, 1, 1, 1, 2, 1, 1, 1}
	copy(img.Header.Magic[:], []int8{'n', '+', '1', 0})

	img.Data = make([]byte, 8*numVolumes)
	for v := 0; v < numVolumes; v++ {
		for i := 0; i < 8; i++ {
			img.Data[v*8+i] = byte(v + 1)
		}
	}
	return img
}

func TestRoundTripCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.nii.gz")
	src := makeTestImage(4)

	require.NoError(t, WriteImage(path, src))

	img, err := ReadImage(path)
	require.NoError(t, err)

	assert.Equal(t, src.Header.Dim, img.Header.Dim)
	assert.Equal(t, float32(voxelDataOffset), img.Header.VoxOffset)
	assert.Equal(t, src.Data, img.Data)
	assert.Equal(t, 4, img.NumVolumes())
	assert.Equal(t, 8, img.VolumeSizeBytes())
}

func TestRoundTripUncompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.nii")
	src := makeTestImage(2)

	require.NoError(t, WriteImage(path, src))

	img, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, src.Data, img.Data)
}

func TestReadBigEndian(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.nii")
	src := makeTestImage(3)
	src.ByteOrder = binary.BigEndian

	require.NoError(t, WriteImage(path, src))

	// Decoding starts little-endian and falls back when dim[0] is garbage
	img, err := ReadImage(path)
	require.NoError(t, err)
	assert.Equal(t, binary.BigEndian, img.ByteOrder)
	assert.Equal(t, 3, img.NumVolumes())
	assert.Equal(t, src.Data, img.Data)
}

func TestFirstVolumes(t *testing.T) {
	src := makeTestImage(4)

	mag, err := src.FirstVolumes(2)
	require.NoError(t, err)

	assert.Equal(t, 2, mag.NumVolumes())
	assert.Equal(t, src.Data[0:16], mag.Data)

	// Source is untouched
	assert.Equal(t, 4, src.NumVolumes())
	assert.Equal(t, 32, len(src.Data))

	_, err = src.FirstVolumes(0)
	assert.Error(t, err)
	_, err = src.FirstVolumes(5)
	assert.Error(t, err)
}

func TestNumVolumes3D(t *testing.T) {
	img := makeTestImage(1)
	img.Header.Dim[0] = 3
	img.Header.Dim[4] = 1

	assert.Equal(t, 1, img.NumVolumes())
}

func TestReadImageBadFile(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadImage(filepath.Join(dir, "missing.nii"))
	assert.Error(t, err)

	short := filepath.Join(dir, "short.nii")
	require.NoError(t, os.WriteFile(short, []byte("not a nifti"), 0644))
	_, err = ReadImage(short)
	assert.Error(t, err)
}
