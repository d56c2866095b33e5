// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coins

import "github.com/decred/slog"

// log is the package-wide logger used by CacheView and the leveldb-backed
// BaseView.  It defaults to a disabled backend so importers that never call
// UseLogger get silence instead of a nil-pointer panic.
var log = slog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger slog.Logger) {
	log = logger
}
