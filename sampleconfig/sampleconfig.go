// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sampleconfig

import (
	_ "embed"
)

// sampleCoincachedConf is a string containing the commented example config
// for coincached.
//
//go:embed sample-coincached.conf
var sampleCoincachedConf string

// Coincached returns a string containing the commented example config for
// coincached.
func Coincached() string {
	return sampleCoincachedConf
}
