package abacus

import (
	_ "embed"
)

// Version is the release of the abacus module, read from the VERSION file.
//
//go:embed VERSION
var Version string
