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

package fileaccess

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/parbids/core/core/utils"
)

// In-memory file access implementation for unit tests. Keys are root+"/"+path.
type MemFileAccess struct {
	Files map[string][]byte
}

func MakeMemFileAccess() *MemFileAccess {
	return &MemFileAccess{Files: map[string][]byte{}}
}

var errMemNotFound = fmt.Errorf("object not found")

func (m *MemFileAccess) key(root string, path string) string {
	return root + "/" + path
}

func (m *MemFileAccess) ListObjects(root string, prefix string) ([]string, error) {
	result := []string{}
	find := m.key(root, prefix)
	for k := range m.Files {
		if strings.HasPrefix(k, find) {
			result = append(result, strings.TrimPrefix(k, root+"/"))
		}
	}
	// Map iteration order is random, tests want something stable
	sort.Strings(result)
	return result, nil
}

func (m *MemFileAccess) ObjectExists(root string, path string) (bool, error) {
	_, ok := m.Files[m.key(root, path)]
	return ok, nil
}

func (m *MemFileAccess) ReadObject(root string, path string) ([]byte, error) {
	data, ok := m.Files[m.key(root, path)]
	if !ok {
		return nil, errMemNotFound
	}
	return data, nil
}

func (m *MemFileAccess) WriteObject(root string, path string, data []byte) error {
	m.Files[m.key(root, path)] = data
	return nil
}

func (m *MemFileAccess) ReadJSON(root string, path string, itemsPtr interface{}, emptyIfNotFound bool) error {
	data, err := m.ReadObject(root, path)
	if err != nil {
		if emptyIfNotFound && m.IsNotFoundError(err) {
			return nil
		}
		return err
	}
	return json.Unmarshal(data, itemsPtr)
}

func (m *MemFileAccess) WriteJSON(root string, path string, itemsPtr interface{}) error {
	data, err := json.MarshalIndent(itemsPtr, "", utils.PrettyPrintIndentForJSON)
	if err != nil {
		return err
	}
	return m.WriteObject(root, path, data)
}

func (m *MemFileAccess) DeleteObject(root string, path string) error {
	k := m.key(root, path)
	if _, ok := m.Files[k]; !ok {
		return errMemNotFound
	}
	delete(m.Files, k)
	return nil
}

func (m *MemFileAccess) CopyObject(srcRoot string, srcPath string, dstRoot string, dstPath string) error {
	data, err := m.ReadObject(srcRoot, srcPath)
	if err != nil {
		return err
	}
	return m.WriteObject(dstRoot, dstPath, data)
}

func (m *MemFileAccess) RenameObject(root string, srcPath string, dstPath string) error {
	err := m.CopyObject(root, srcPath, root, dstPath)
	if err != nil {
		return err
	}
	return m.DeleteObject(root, srcPath)
}

func (m *MemFileAccess) IsNotFoundError(err error) bool {
	return err == errMemNotFound
}
