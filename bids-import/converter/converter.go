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

// Wraps the external PAR/REC to NIfTI converter so the rest of the pipeline
// only sees one operation, and tests can substitute a fake
package converter

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/parbids/core/bids-import/internal/convertModels"
	"github.com/parbids/core/core/logger"
)

// NiftiConverter - the one capability the pipeline needs: turn a PAR/REC
// pair into a NIfTI file in the output directory, returning its path
type NiftiConverter interface {
	Convert(parPath string, outputDir string) (string, error)
}

const defaultConverterExe = "parrec2nii"

// Parrec2Nii - runs the parrec2nii tool, which must be on the path (or
// pointed at by ExecPath). Always overwrites, always compresses, and embeds
// the PAR header into the output.
type Parrec2Nii struct {
	ExecPath string
	Log      logger.ILogger
}

func (c *Parrec2Nii) Convert(parPath string, outputDir string) (string, error) {
	exe := c.ExecPath
	if len(exe) <= 0 {
		exe = defaultConverterExe
	}

	cmd := exec.Command(exe,
		"--overwrite",
		"--output-dir", outputDir,
		"--compressed",
		"--store-header",
		parPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	c.Log.Debugf("Running: %v", strings.Join(cmd.Args, " "))

	if err := cmd.Run(); err != nil {
		return "", &convertModels.ExternalToolError{
			Tool:   exe,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return ResolveOutputFile(outputDir, parPath)
}

// ResolveOutputFile - The external tool names its output after the source
// file, but depending on version the compression extension may or may not be
// added. Resolve to whichever actually exists.
func ResolveOutputFile(outputDir string, parPath string) (string, error) {
	base := filepath.Base(parPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	plain := filepath.Join(outputDir, base+".nii")
	for _, candidate := range []string{plain, plain + ".gz"} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: no %v or %v.gz", convertModels.ErrOutputFileMissing, plain, plain)
}
