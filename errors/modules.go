/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package errors

// Code ranges, one block per package that raises its own domain errors.
// Kept HTTP-status-like so low codes (under 600) overlap conventional
// meanings and every other package gets a disjoint block to add onto.
const (
	MinPkgTypeID     = 100
	MinPkgPropDict   = 200
	MinPkgPOD        = 300
	MinPkgMemBlock   = 400
	MinPkgWorkQueue  = 500
	MinPkgLoop       = 600
	MinPkgCoreReg    = 700
	MinPkgGraph      = 800
	MinPkgNegotiate  = 900
	MinPkgEngine     = 1000
	MinPkgNodeFact   = 1100
	MinPkgTransport  = 1200
	MinPkgMonitor    = 1300
	MinPkgDebugAPI   = 1400
	MinPkgSandbox    = 1500
	MinPkgBootstrap  = 1600
	MinPkgConfig     = 1700

	MinAvailable = 2000
)
