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

package logger

import (
	"github.com/sirupsen/logrus"
)

// LogrusLogger - ILogger backed by logrus, used by the CLI tools so output
// is timestamped and level-coloured consistently
type LogrusLogger struct {
	log *logrus.Logger
}

func NewLogrusLogger(level LogLevel) *LogrusLogger {
	l := logrus.New()

	switch level {
	case LogDebug:
		l.SetLevel(logrus.DebugLevel)
	case LogError:
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &LogrusLogger{log: l}
}

func (l *LogrusLogger) Printf(level LogLevel, format string, a ...interface{}) {
	switch level {
	case LogDebug:
		l.log.Debugf(format, a...)
	case LogError:
		l.log.Errorf(format, a...)
	default:
		l.log.Infof(format, a...)
	}
}
func (l *LogrusLogger) Debugf(format string, a ...interface{}) {
	l.log.Debugf(format, a...)
}
func (l *LogrusLogger) Infof(format string, a ...interface{}) {
	l.log.Infof(format, a...)
}
func (l *LogrusLogger) Errorf(format string, a ...interface{}) {
	l.log.Errorf(format, a...)
}
