package properties

import "errors"

// Error kinds specific to parsing a BV .properties record (spec §7).
var (
	ErrPropertyFile       = errors.New("properties: malformed property file")
	ErrUnsupportedVersion = errors.New("properties: unsupported version")
	ErrCompressionFlag    = errors.New("properties: unknown compression flag")
)
