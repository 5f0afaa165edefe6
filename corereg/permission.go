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

package corereg

import (
	"strconv"
	"strings"
)

// Permission is a bitmask of what a Resource may do to its Global
// (spec.md §4.3): R(see) W(modify) X(execute methods) L(create links
// involving this object).
type Permission uint8

const (
	PermRead Permission = 1 << iota
	PermWrite
	PermExecute
	PermLink

	PermAll  = PermRead | PermWrite | PermExecute | PermLink
	PermNone = Permission(0)
)

func (p Permission) Has(bit Permission) bool { return p&bit == bit }

// PermissionFunc is the Core's pluggable global permission function
// (spec.md §4.3): invoked whenever a Global is exposed to a Client (a
// registry's initial snapshot, a global-added notification, a bind). A
// change of the client's properties does not re-run it.
type PermissionFunc func(g *Global, c *Client) Permission

// DefaultPermissions grants every bit to every client, unconditionally.
func DefaultPermissions(g *Global, c *Client) Permission {
	return PermAll
}

// PropLinkEndpointOwnerUIDs is the well-known prop key a Link Global's
// Props carries its two endpoint nodes' owning clients' uids under, as a
// comma-separated list. bootstrap.CoreGlobal.createLink populates it;
// SameUIDPermissions is the only reader.
const PropLinkEndpointOwnerUIDs = "link.endpoint.owner.uids"

// SameUIDPermissions implements the sandboxing policy of spec.md §4.3:
// a client only sees Globals owned by a client with the same uid as
// itself, or Globals with no owner (server-created). Link Globals are
// additionally visible only when both endpoints' owners (carried in the
// Global's props under PropLinkEndpointOwnerUIDs) are themselves visible
// -- a link between two nodes owned by other uids must not leak through
// even when the link itself happens to be creatable by a third client.
func SameUIDPermissions(g *Global, c *Client) Permission {
	if g.Owner != nil && g.Owner.Creds.UID != c.Creds.UID {
		return PermNone
	}

	if raw, ok := g.Props[PropLinkEndpointOwnerUIDs]; ok {
		for _, s := range strings.Split(raw, ",") {
			if s == "" {
				continue
			}
			uid, err := strconv.ParseUint(s, 10, 32)
			if err != nil || uint32(uid) != c.Creds.UID {
				return PermNone
			}
		}
	}

	return PermAll
}

// NetworkOriginPermissions implements the read-only network-origin
// policy of spec.md §4.3: grants R only; a session manager may elevate
// specific clients by installing a different PermissionFunc or by
// overriding a bound Resource's permission mask directly.
func NetworkOriginPermissions(g *Global, c *Client) Permission {
	return PermRead
}
