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

package output

import "fmt"

// BatchSummary - what happened across one conversion run. One source file
// failing never stops the batch, so the driver accumulates results here and
// reports at the end.
type BatchSummary struct {
	SubjectsProcessed int
	Converted         int
	Failed            int
	Skipped           int

	// Source files that failed, for the final report
	FailedFiles []string
}

func (s *BatchSummary) AddConverted() {
	s.Converted++
}

func (s *BatchSummary) AddSkipped() {
	s.Skipped++
}

func (s *BatchSummary) AddFailed(sourceFile string) {
	s.Failed++
	s.FailedFiles = append(s.FailedFiles, sourceFile)
}

func (s *BatchSummary) Merge(other BatchSummary) {
	s.SubjectsProcessed += other.SubjectsProcessed
	s.Converted += other.Converted
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	s.FailedFiles = append(s.FailedFiles, other.FailedFiles...)
}

func (s BatchSummary) String() string {
	return fmt.Sprintf("%v subject(s): %v converted, %v failed, %v skipped", s.SubjectsProcessed, s.Converted, s.Failed, s.Skipped)
}
