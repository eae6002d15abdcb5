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

package convertModels

import (
	"errors"
	"fmt"
)

// Failures while processing one source file never abort the batch, the
// driver logs them and moves to the next file. These types exist so tests
// and the driver can tell the failure classes apart.

// ErrScanFileNameMismatch - file name doesn't follow the exported PAR naming
// grammar, the file is skipped rather than failed
var ErrScanFileNameMismatch = errors.New("file name does not match scan naming pattern")

// ErrOutputFileMissing - the external converter exited 0 but neither the
// .nii nor the .nii.gz output appeared
var ErrOutputFileMissing = errors.New("converted output file not found")

// ExternalToolError - non-zero exit from the external converter, with
// whatever it printed to stderr
type ExternalToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("%v failed: %v, stderr: %v", e.Tool, e.Err, e.Stderr)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}
