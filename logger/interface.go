/*
 * MIT License
 *
 * Copyright (c) 2026 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package logger is a trimmed facade over sirupsen/logrus: the part of the
// teacher's logger/ package sigflow's single process actually needs --
// level filtering, structured fields, and an output writer -- without the
// teacher's multi-hook (file/syslog/gorm/hclog) fan-out.
//
// Every subsystem that can fail outside the realtime cycle path takes a
// FuncLog lazily rather than a Logger directly, so a subsystem built
// before the final logger is configured (log level from config, output
// target) never has to special-case a nil logger.
package logger

import "github.com/sirupsen/logrus"

// FuncLog returns the Logger a subsystem should log through. Resolved
// lazily -- once per call site, not cached -- so a SetLevel after
// construction is picked up everywhere without re-wiring.
type FuncLog func() Logger

// Logger is sigflow's structured logging surface. It never panics or
// exits the process; Fatal-severity conditions are the caller's to act
// on, matching spec.md's rule that only the main loop and bootstrap code
// log or fail the process, never node/cycle code.
type Logger interface {
	// SetLevel changes the minimum level this Logger emits at.
	SetLevel(lvl logrus.Level)

	// GetLevel returns the minimum level this Logger emits at.
	GetLevel() logrus.Level

	// WithField returns a derived Logger carrying one extra structured
	// field (spec.md §2: node.id, link.id, cycle).
	WithField(key string, value interface{}) Logger

	// WithFields returns a derived Logger carrying several extra
	// structured fields at once.
	WithFields(fields logrus.Fields) Logger

	// WithError returns a derived Logger carrying err under the
	// conventional "error" field.
	WithError(err error) Logger

	Debug(message string, args ...interface{})
	Info(message string, args ...interface{})
	Warning(message string, args ...interface{})
	Error(message string, args ...interface{})

	// CheckError logs err at lvlKO and returns false if err is non-nil;
	// otherwise, if lvlOK is not NilLevel, logs
	// message at lvlOK and returns true.
	CheckError(lvlKO, lvlOK logrus.Level, message string, err error) bool
}

// NilLevel is the sentinel CheckError treats as "do not log on success".
const NilLevel = logrus.Level(100)
