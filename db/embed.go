// Package db provides the embedded inventory schema.
package db

import _ "embed"

// Schema creates the suppliers and products tables when they do not exist.
//
//go:embed migrations/001_schema.sql
var Schema string
