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

package importerutils

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/parbids/core/core/logger"
)

const seriesInfoElement = "Series_Info"
const imageInfoElement = "Image_Info"

// Image-level attribute names get this prefix so they can't overwrite a
// series-level attribute of the same name
const imageKeyPrefix = "Image_"

// ReadXMLMetadataFile - Reads the extended-metadata XML next to a PAR file.
// A missing or malformed file degrades to an empty mapping with a log
// message, XML metadata is never required for conversion to proceed.
func ReadXMLMetadataFile(filePath string, jobLog logger.ILogger) map[string]string {
	data, err := os.ReadFile(filePath)
	if err != nil {
		jobLog.Debugf("No XML metadata read from %v: %v", filePath, err)
		return map[string]string{}
	}

	return ParseXMLMetadata(data, filePath, jobLog)
}

// ParseXMLMetadata - Flattens the first Series_Info and first Image_Info
// sections into one mapping of attribute name to text value. Attributes with
// an empty name or value are dropped. A parse error part-way keeps whatever
// was collected up to that point.
func ParseXMLMetadata(data []byte, filePath string, jobLog logger.ILogger) map[string]string {
	metadata := map[string]string{}

	decoder := xml.NewDecoder(bytes.NewReader(data))

	section := ""      // which section we're inside, if any
	sectionDepth := 0  // element depth the section started at
	depth := 0
	seriesDone := false
	imageDone := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			jobLog.Errorf("Could not parse XML file %v: %v", filePath, err)
			return metadata
		}

		switch elem := tok.(type) {
		case xml.StartElement:
			depth++

			if len(section) <= 0 {
				if elem.Name.Local == seriesInfoElement && !seriesDone {
					section = seriesInfoElement
					sectionDepth = depth
				} else if elem.Name.Local == imageInfoElement && !imageDone {
					section = imageInfoElement
					sectionDepth = depth
				}
				continue
			}

			if elem.Name.Local != "Attribute" {
				continue
			}

			var attr struct {
				Name  string `xml:"Name,attr"`
				Value string `xml:",chardata"`
			}
			if err := decoder.DecodeElement(&attr, &elem); err != nil {
				jobLog.Errorf("Could not parse XML file %v: %v", filePath, err)
				return metadata
			}
			// DecodeElement consumed the end element too
			depth--

			name := attr.Name
			value := strings.TrimSpace(attr.Value)
			if len(name) <= 0 || len(value) <= 0 {
				continue
			}

			if section == imageInfoElement {
				name = imageKeyPrefix + name
			}
			metadata[name] = value

		case xml.EndElement:
			if len(section) > 0 && depth == sectionDepth {
				if section == seriesInfoElement {
					seriesDone = true
				} else {
					imageDone = true
				}
				section = ""
			}
			depth--
		}
	}

	return metadata
}
