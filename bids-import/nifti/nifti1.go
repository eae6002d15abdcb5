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

// Minimal NIfTI-1 reading/writing, just enough to split volumes out of a
// converted 4-D image. Header layout follows the official nifti1.h
// definition, see https://nifti.nimh.nih.gov/pub/dist/src/niftilib/nifti1.h
package nifti

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Header defines the structure of the NIfTI-1 header. Must be 348 bytes.
type Header struct {
	SizeofHdr          int32      // Must be 348
	UnusedDataType     [10]int8   // Unused
	UnusedDbName       [18]int8   // Unused
	UnusedExtents      int32      // Unused
	UnusedSessionError int16      // Unused
	UnusedRegular      int8       // Unused
	DimInfo            int8       // MRI slice ordering
	Dim                [8]int16   // Data array dimensions
	IntentP1           float32    // 1st intent parameter
	IntentP2           float32    // 2nd intent parameter
	IntentP3           float32    // 3rd intent parameter
	IntentCode         int16      // NIFTI_INTENT_* code
	Datatype           int16      // Defines data type
	Bitpix             int16      // Number bits/voxel
	SliceStart         int16      // First slice index
	Pixdim             [8]float32 // Grid spacing
	VoxOffset          float32    // Offset into .nii file
	SclSlope           float32    // Data scaling: slope
	SclInter           float32    // Data scaling: offset
	SliceEnd           int16      // Last slice index
	SliceCode          int8       // Slice timing order
	XyztUnits          int8       // Units of pixdim[1..4]
	CalMax             float32    // Max display intensity
	CalMin             float32    // Min display intensity
	SliceDuration      float32    // Time for 1 slice
	Toffset            float32    // Time axis shift
	UnusedGlmax        int32      // Unused
	UnusedGlmin        int32      // Unused
	Descrip            [80]int8   // Any text you like
	AuxFile            [24]int8   // Auxiliary filename
	QformCode          int16      // NIFTI_XFORM_* code
	SformCode          int16      // NIFTI_XFORM_* code
	QuaternB           float32    // Quaternion b param
	QuaternC           float32    // Quaternion c param
	QuaternD           float32    // Quaternion d param
	QoffsetX           float32    // Quaternion x shift
	QoffsetY           float32    // Quaternion y shift
	QoffsetZ           float32    // Quaternion z shift
	SrowX              [4]float32 // 1st row affine transform
	SrowY              [4]float32 // 2nd row affine transform
	SrowZ              [4]float32 // 3rd row affine transform
	IntentName         [16]int8   // 'name' or meaning of data
	Magic              [4]int8    // Must be "ni1\0" or "n+1\0"
}

const headerSize = 348

// Single-file images store voxel data after the header + 4 byte extension flag
const voxelDataOffset = headerSize + 4

// Image - a NIfTI-1 header plus its raw voxel bytes
type Image struct {
	Header    Header
	ByteOrder binary.ByteOrder
	Data      []byte
}

// ReadImage - Reads a .nii or .nii.gz single-file image
func ReadImage(filePath string) (*Image, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(strings.ToLower(filePath), ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decompress %v", filePath)
		}
		defer gz.Close()
		reader = gz
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %v", filePath)
	}

	img, err := decodeImage(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %v", filePath)
	}
	return img, nil
}

func decodeImage(raw []byte) (*Image, error) {
	if len(raw) < headerSize {
		return nil, fmt.Errorf("file too short for NIfTI-1 header: %v bytes", len(raw))
	}

	img := &Image{ByteOrder: binary.LittleEndian}

	err := binary.Read(bytes.NewReader(raw[0:headerSize]), img.ByteOrder, &img.Header)
	if err != nil {
		return nil, err
	}

	// dim[0] out of range means the file was written on a machine with the
	// other byte order
	if img.Header.Dim[0] < 1 || img.Header.Dim[0] > 7 {
		img.Header = Header{}
		img.ByteOrder = binary.BigEndian
		err = binary.Read(bytes.NewReader(raw[0:headerSize]), img.ByteOrder, &img.Header)
		if err != nil {
			return nil, err
		}
		if img.Header.Dim[0] < 1 || img.Header.Dim[0] > 7 {
			return nil, fmt.Errorf("bad dim[0]: %v", img.Header.Dim[0])
		}
	}

	offset := int(img.Header.VoxOffset)
	if offset < headerSize || offset > len(raw) {
		return nil, fmt.Errorf("bad vox_offset: %v", img.Header.VoxOffset)
	}

	img.Data = raw[offset:]
	return img, nil
}

// WriteImage - Writes a single-file image, gzip compressed if the path ends
// in .gz. Extensions aren't carried over, voxel data lands at offset 352.
func WriteImage(filePath string, img *Image) error {
	f, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	var writer io.Writer = f
	var gz *gzip.Writer
	if strings.HasSuffix(strings.ToLower(filePath), ".gz") {
		gz = gzip.NewWriter(f)
		defer gz.Close()
		writer = gz
	}

	hdr := img.Header
	hdr.SizeofHdr = headerSize
	hdr.VoxOffset = voxelDataOffset

	err = binary.Write(writer, img.ByteOrder, &hdr)
	if err != nil {
		return err
	}

	// 4 byte extension flag, all zero = no extensions
	_, err = writer.Write([]byte{0, 0, 0, 0})
	if err != nil {
		return err
	}

	_, err = writer.Write(img.Data)
	if err != nil {
		return err
	}

	if gz != nil {
		return gz.Close()
	}
	return nil
}

// NumVolumes - Number of volumes in the time dimension, 1 for 3-D images
func (img *Image) NumVolumes() int {
	if img.Header.Dim[0] >= 4 {
		return int(img.Header.Dim[4])
	}
	return 1
}

// VolumeSizeBytes - Byte size of one 3-D volume
func (img *Image) VolumeSizeBytes() int {
	voxels := int(img.Header.Dim[1]) * int(img.Header.Dim[2]) * int(img.Header.Dim[3])
	return voxels * int(img.Header.Bitpix) / 8
}

// FirstVolumes - Returns a new image containing only the first n volumes of
// a 4-D image. Volumes are contiguous in the time dimension so this is a
// byte-range slice plus a patched dim[4].
func (img *Image) FirstVolumes(n int) (*Image, error) {
	total := img.NumVolumes()
	if n <= 0 || n > total {
		return nil, fmt.Errorf("cannot take %v volumes from image with %v", n, total)
	}

	volSize := img.VolumeSizeBytes()
	want := n * volSize
	if want > len(img.Data) {
		return nil, fmt.Errorf("image data truncated: need %v bytes, have %v", want, len(img.Data))
	}

	out := &Image{
		Header:    img.Header,
		ByteOrder: img.ByteOrder,
		Data:      img.Data[0:want],
	}
	out.Header.Dim[4] = int16(n)
	return out, nil
}
