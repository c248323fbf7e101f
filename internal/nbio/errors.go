// SPDX-License-Identifier: MIT
package nbio

import "errors"

// ErrClosed is returned by Wait once the adapter has been closed.
var ErrClosed = errors.New("adapter closed")
