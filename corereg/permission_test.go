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

package corereg_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/sigflow/sigflow/corereg"
	"github.com/sigflow/sigflow/propdict"
)

var _ = Describe("SameUIDPermissions", func() {
	var core *Core

	BeforeEach(func() {
		core = New()
	})

	It("hides a Link Global when one endpoint is owned by a different uid", func() {
		typ := core.Types.Intern("sigflow:Interface:Link")
		ownerA := core.AddClient(Creds{UID: 1000}, propdict.New())
		other := core.AddClient(Creds{UID: 2000}, propdict.New())

		props := propdict.New(PropLinkEndpointOwnerUIDs, fmt.Sprintf("%d,%d", 1000, 2000))
		g := core.AddGlobal(typ, 0, ownerA, props, noopBind)

		Expect(SameUIDPermissions(g, ownerA)).To(Equal(PermNone))
		Expect(SameUIDPermissions(g, other)).To(Equal(PermNone))
	})

	It("grants a Link Global visible to a client matching every endpoint uid", func() {
		typ := core.Types.Intern("sigflow:Interface:Link")
		owner := core.AddClient(Creds{UID: 1000}, propdict.New())

		props := propdict.New(PropLinkEndpointOwnerUIDs, fmt.Sprintf("%d,%d", 1000, 1000))
		g := core.AddGlobal(typ, 0, owner, props, noopBind)

		Expect(SameUIDPermissions(g, owner)).To(Equal(PermAll))
	})

	It("falls back to the plain owner check when a Global carries no endpoint uids", func() {
		typ := core.Types.Intern("sigflow:Interface:Node")
		owner := core.AddClient(Creds{UID: 1000}, propdict.New())
		other := core.AddClient(Creds{UID: 1001}, propdict.New())

		g := core.AddGlobal(typ, 0, owner, propdict.New(), noopBind)

		Expect(SameUIDPermissions(g, owner)).To(Equal(PermAll))
		Expect(SameUIDPermissions(g, other)).To(Equal(PermNone))
	})
})
