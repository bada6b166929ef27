// Package db embeds the schema and the default seed catalog.
package db

import _ "embed"

// Schema is the idempotent DDL applied on every start.
//
//go:embed migrations/001_schema.sql
var Schema string

// SeedProducts is the starter catalog loaded by seed-db when no products
// file is given.
//
//go:embed seed/products.json
var SeedProducts []byte
