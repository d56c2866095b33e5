// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/decred/slog"

	"github.com/hodlinator/bitcoin/internal/coins"
)

var backendLog = slog.NewBackend(os.Stdout)

var log = backendLog.Logger("CCHD")

// initLogging wires the coins package's logger to backendLog at the
// requested level. It must be called once, after config parsing, before
// any coins.CacheView or coins.LevelDBBaseView work begins.
func initLogging(debugLevel string) {
	level, ok := slog.LevelFromString(debugLevel)
	if !ok {
		level = slog.LevelInfo
	}
	log.SetLevel(level)
	coinsLog := backendLog.Logger("COIN")
	coinsLog.SetLevel(level)
	coins.UseLogger(coinsLog)
}
