package data

import (
	_ "embed"
)

// SeedRoles is the JSON array of role names created at startup
//
//go:embed seed/roles.json
var SeedRoles []byte
