// Copyright (c) Flowbridge Authors.
// Licensed under the MIT License.

// Package config defines the flowbridge configuration model and its
// loader. Values resolve from built-in defaults, then an optional YAML
// file, then FLOWBRIDGE_-prefixed environment variables:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("FLOWBRIDGE").
//	    Load()
package config
