package config

import (
	_ "embed"
)

// DefaultSchemaFile is the conventional schema file name, colocated with the
// configuration file.
const DefaultSchemaFile = "config.schema.json"

// DefaultSchema is the JSON Schema for the configuration document.
//
//go:embed config.schema.json
var DefaultSchema []byte

// SampleConfig is a complete two-session configuration used by init.
//
//go:embed sample.yaml
var SampleConfig []byte
