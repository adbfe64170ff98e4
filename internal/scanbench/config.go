// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package scanbench drives the external SIMD scan benchmark binary and
// reshapes its output into CSV.
//
// The binary is invoked as
//
//	<binary> <data size> <repetitions> <mode> <predicate count>
//
// once per data size and predicate count. Every line of its standard output
// of the form
//
//	* <variant>: <runtime>ms; ...
//
// becomes one Result.
package scanbench

import (
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes the environment variables read by LoadConfig, e.g.
// BITUNPACK_SCAN_BINARY.
const EnvPrefix = "BITUNPACK"

// Config describes a benchmark sweep.
type Config struct {
	// Binary is the path of the scan benchmark executable.
	Binary string `envconfig:"SCAN_BINARY"`
	// DataSizes are passed verbatim as the binary's first argument.
	DataSizes   []int  `envconfig:"DATA_SIZES" default:"40"`
	Repetitions int    `envconfig:"REPETITIONS" default:"1"`
	Mode        string `envconfig:"MODE" default:"sharedscan"`
	// The sweep covers predicate counts MinPredicates, MinPredicates+PredicateStep,
	// ... up to and including MaxPredicates.
	MinPredicates int `envconfig:"MIN_PREDICATES" default:"1"`
	MaxPredicates int `envconfig:"MAX_PREDICATES" default:"512"`
	PredicateStep int `envconfig:"PREDICATE_STEP" default:"1"`
	// Concurrency bounds the number of binaries running at once.
	Concurrency int `envconfig:"CONCURRENCY" default:"1"`
}

// LoadConfig loads the given .env files, if any, and then reads the
// configuration from the environment. Variables already set in the
// environment take precedence over the files.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return Config{}, errors.Wrap(err, "scanbench: loading env files")
		}
	}
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "scanbench: reading environment")
	}
	return cfg, nil
}

// Validate returns an error describing the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Binary == "":
		return errors.New("scanbench: no benchmark binary configured")
	case len(c.DataSizes) == 0:
		return errors.New("scanbench: no data sizes configured")
	case c.Repetitions < 1:
		return errors.Newf("scanbench: repetitions must be positive, got %d", c.Repetitions)
	case c.Mode == "":
		return errors.New("scanbench: empty mode")
	case c.MinPredicates < 1:
		return errors.Newf("scanbench: min predicates must be positive, got %d", c.MinPredicates)
	case c.MaxPredicates < c.MinPredicates:
		return errors.Newf("scanbench: max predicates %d below min predicates %d", c.MaxPredicates, c.MinPredicates)
	case c.PredicateStep < 1:
		return errors.Newf("scanbench: predicate step must be positive, got %d", c.PredicateStep)
	case c.Concurrency < 1:
		return errors.Newf("scanbench: concurrency must be positive, got %d", c.Concurrency)
	}
	for _, s := range c.DataSizes {
		if s < 1 {
			return errors.Newf("scanbench: data size must be positive, got %d", s)
		}
	}
	return nil
}
