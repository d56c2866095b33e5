// Copyright (c) 2025 The hodlinator developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/decred/slog"
	flags "github.com/jessevdk/go-flags"

	"github.com/hodlinator/bitcoin/internal/cachebudget"
	"github.com/hodlinator/bitcoin/sampleconfig"
)

const (
	defaultConfigFilename = "coincached.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
)

// config defines the configuration options for coincached.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	HomeDir     string `short:"A" long:"appdata" description:"Directory to store data and logs"`
	DataDir     string `short:"b" long:"datadir" description:"Directory to store the coin database"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	DBCacheMiB  int64  `long:"dbcache" description:"Total cache budget in MiB, split among the block-tree index, the coin database, and the in-memory coin cache"`
	ShowVersion bool   `short:"V" long:"version" description:"Exit without running any command (no version information is printed)"`
}

// errSuppressUsage is used to signal that the usage message should not be
// shown when an error is returned, because it was already shown or isn't
// relevant (e.g. -V was passed).
type errSuppressUsage struct {
	err error
}

func (e errSuppressUsage) Error() string {
	return e.err.Error()
}

func (e errSuppressUsage) Unwrap() error {
	return e.err
}

// defaultHomeDir returns the default application data directory, under the
// user's home directory, the same way dcrd's dcrutil.AppDataDir resolves
// its own default.
func defaultHomeDir(appName string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + appName
	}
	return filepath.Join(home, "."+appName)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}

// loadConfig initializes and parses the config using command line options
// and, if present, a configuration file. It first establishes default
// settings, then parses the command line to see if a configuration file or
// home directory was specified, loads the configuration file (writing a
// default one from sampleconfig if none is found), then parses the command
// line again to let flags override anything the file set. This mirrors the
// two-pass convention decred/dcrd's own config.go uses with go-flags.
func loadConfig(appName string) (*config, []string, error) {
	cfg := config{
		HomeDir:    defaultHomeDir(appName),
		DebugLevel: defaultLogLevel,
		DBCacheMiB: cachebudget.DefaultTotalMiB,
	}

	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag|flags.PassDoubleDash)
	_, err := preParser.Parse()
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			return nil, nil, errSuppressUsage{err}
		}
		return nil, nil, err
	}

	if preCfg.ShowVersion {
		return nil, nil, errSuppressUsage{errors.New("version requested")}
	}

	homeDir := cleanAndExpandPath(preCfg.HomeDir)
	if homeDir == "" {
		homeDir = defaultHomeDir(appName)
	}
	cfg.HomeDir = homeDir

	configFile := preCfg.ConfigFile
	if configFile == "" {
		configFile = filepath.Join(homeDir, defaultConfigFilename)
	}
	configFile = cleanAndExpandPath(configFile)
	cfg.ConfigFile = configFile

	if _, statErr := os.Stat(configFile); os.IsNotExist(statErr) {
		if err := createDefaultConfigFile(configFile); err != nil {
			return nil, nil, fmt.Errorf("failed to create default config file at %q: %w",
				configFile, err)
		}
	}

	parser := flags.NewParser(&cfg, flags.Default)
	if err := flags.NewIniParser(parser).ParseFile(configFile); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file %q: %w", configFile, err)
	}

	remainingArgs, err := parser.Parse()
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) {
			if e.Type == flags.ErrHelp {
				return nil, nil, errSuppressUsage{err}
			}
		}
		return nil, nil, err
	}

	if cfg.ShowVersion {
		return nil, nil, errSuppressUsage{errors.New("version requested")}
	}

	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(cfg.HomeDir, defaultDataDirname)
	}
	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)

	if _, ok := slog.LevelFromString(cfg.DebugLevel); !ok {
		return nil, nil, fmt.Errorf("the specified debug level %q is invalid", cfg.DebugLevel)
	}

	if cfg.DBCacheMiB < cachebudget.MinTotalMiB {
		cfg.DBCacheMiB = cachebudget.MinTotalMiB
	}

	return &cfg, remainingArgs, nil
}

// createDefaultConfigFile copies the embedded sample configuration to
// destinationPath, creating any missing parent directories along the way.
func createDefaultConfigFile(destinationPath string) error {
	if err := os.MkdirAll(filepath.Dir(destinationPath), 0700); err != nil {
		return err
	}
	return os.WriteFile(destinationPath, []byte(sampleconfig.Coincached()), 0600)
}
