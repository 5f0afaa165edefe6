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

package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

type lgr struct {
	e *logrus.Entry
}

// New returns a Logger writing to out at InfoLevel, with logrus's
// default text formatter -- the same starting point the teacher's
// logger.New gives a fresh instance before SetOptions/SetLevel are
// applied from config.
func New(out io.Writer) Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	return &lgr{e: logrus.NewEntry(l)}
}

// NewFrom wraps an already-configured *logrus.Logger, for callers (tests,
// cobra commands) that built one through logrus/viper glue directly.
func NewFrom(base *logrus.Logger) Logger {
	return &lgr{e: logrus.NewEntry(base)}
}

// NewNop returns a Logger that discards everything, the zero-value
// fallback every subsystem uses when its FuncLog hasn't been set.
func NewNop() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &lgr{e: logrus.NewEntry(l)}
}

// Nop is a ready-made FuncLog returning NewNop(), for subsystems
// constructed without a logger wired in yet.
func Nop() Logger { return NewNop() }

func (l *lgr) SetLevel(lvl logrus.Level) { l.e.Logger.SetLevel(lvl) }
func (l *lgr) GetLevel() logrus.Level    { return l.e.Logger.GetLevel() }

func (l *lgr) WithField(key string, value interface{}) Logger {
	return &lgr{e: l.e.WithField(key, value)}
}

func (l *lgr) WithFields(fields logrus.Fields) Logger {
	return &lgr{e: l.e.WithFields(fields)}
}

func (l *lgr) WithError(err error) Logger {
	return &lgr{e: l.e.WithError(err)}
}

func (l *lgr) Debug(message string, args ...interface{})   { l.e.Debugf(message, args...) }
func (l *lgr) Info(message string, args ...interface{})    { l.e.Infof(message, args...) }
func (l *lgr) Warning(message string, args ...interface{}) { l.e.Warnf(message, args...) }
func (l *lgr) Error(message string, args ...interface{})   { l.e.Errorf(message, args...) }

func (l *lgr) CheckError(lvlKO, lvlOK logrus.Level, message string, err error) bool {
	if err != nil {
		l.e.WithError(err).Log(lvlKO, message)
		return false
	}
	if lvlOK != NilLevel {
		l.e.Log(lvlOK, message)
	}
	return true
}
