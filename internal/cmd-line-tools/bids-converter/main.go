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

package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/parbids/core/bids-import/converter"
	"github.com/parbids/core/bids-import/importer"
	"github.com/parbids/core/bids-import/importparams"
	"github.com/parbids/core/core/awsutil"
	"github.com/parbids/core/core/fileaccess"
	"github.com/parbids/core/core/logger"
	"github.com/parbids/core/core/timestamper"
)

func main() {
	fmt.Println("==================================")
	fmt.Println("=  PAR/REC to BIDS converter     =")
	fmt.Println("==================================")

	var argParamsFile = flag.String("params", "", "YAML parameter file, defaults are used if not given")
	var argDataDir = flag.String("data-dir", "", "Base data directory, overrides parameter file")
	var argConverter = flag.String("converter", "", "Path to parrec2nii, overrides parameter file")
	var argArchiveBucket = flag.String("archive-bucket", "", "S3 bucket to archive output to, overrides parameter file")
	var argVerbose = flag.Bool("v", false, "Verbose output")

	flag.Parse()

	level := logger.LogInfo
	if *argVerbose {
		level = logger.LogDebug
	}
	ilog := logger.NewLogrusLogger(level)

	if dsn := os.Getenv("SENTRY_DSN"); len(dsn) > 0 {
		err := sentry.Init(sentry.ClientOptions{Dsn: dsn})
		if err != nil {
			log.Fatalf("Sentry init failed: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	params := importparams.DefaultParams()
	if len(*argParamsFile) > 0 {
		var err error
		params, err = importparams.Load(*argParamsFile)
		if err != nil {
			log.Fatalf("%v", err)
		}
	}

	if len(*argDataDir) > 0 {
		params.DataDir = *argDataDir
	}
	if len(*argConverter) > 0 {
		params.ConverterPath = *argConverter
	}
	if len(*argArchiveBucket) > 0 {
		params.ArchiveBucket = *argArchiveBucket
	}

	if _, err := os.Stat(params.DataDir); err != nil {
		printExpectedLayout(params)
		os.Exit(1)
	}

	var remoteFS fileaccess.FileAccess
	if len(params.ArchiveBucket) > 0 {
		sess, err := awsutil.GetSession()
		if err != nil {
			log.Fatalf("AWS GetSession failed: %v", err)
		}
		svc, err := awsutil.GetS3(sess)
		if err != nil {
			log.Fatalf("AWS GetS3 failed: %v", err)
		}
		s3Access := fileaccess.MakeS3Access(svc)
		remoteFS = s3Access
	}

	imp := importer.BIDSImporter{
		LocalFS:     &fileaccess.FSAccess{},
		RemoteFS:    remoteFS,
		Converter:   &converter.Parrec2Nii{ExecPath: params.ConverterPath, Log: ilog},
		TimeStamper: &timestamper.UnixTimeNowStamper{},
		Params:      params,
		Log:         ilog,
	}

	// Positional arguments restrict processing to these subjects
	summary, err := imp.ImportSubjects(flag.Args())

	if err != nil {
		if errors.Is(err, importer.ErrNoSubjects) {
			ilog.Errorf("%v", err)
		} else {
			ilog.Errorf("Import failed: %v", err)
			sentry.CaptureException(err)
			printExpectedLayout(params)
		}
		os.Exit(1)
	}

	ilog.Infof("Conversion complete: %v", summary)

	if summary.Failed > 0 {
		for _, f := range summary.FailedFiles {
			ilog.Errorf("Failed: %v", f)
		}
		os.Exit(2)
	}
}

func printExpectedLayout(params importparams.ConversionParams) {
	fmt.Printf("Data directory \"%v\" not usable. Expected layout:\n", params.DataDir)
	fmt.Printf("%v/\n", params.DataDir)
	fmt.Println("├── [SubjectID]/")
	fmt.Printf("│   ├── %v/\n", params.RawDirName)
	fmt.Println("│   │   ├── *.PAR")
	fmt.Println("│   │   ├── *.REC")
	fmt.Println("│   │   ├── *.XML")
	fmt.Println("│   │   └── *.V41")
	fmt.Printf("│   └── %v/ (will be created)\n", params.OutputDirName)
}
