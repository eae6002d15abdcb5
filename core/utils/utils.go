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

package utils

import "strings"

// PrettyPrintIndentForJSON Pretty-print indenting of JSON
const PrettyPrintIndentForJSON = "    "

// ContainsAnyFold - True if str contains any of the given substrings,
// compared case-insensitively
func ContainsAnyFold(str string, substrings []string) bool {
	lower := strings.ToLower(str)
	for _, sub := range substrings {
		if len(sub) > 0 && strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
