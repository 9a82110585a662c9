package config

import "errors"

// ErrInvalidConfig wraps every error from Load and Validate: an unreadable
// or unparsable config file, unknown layout, empty archive root, empty
// whitelist, or a non-positive processing timeout.
var ErrInvalidConfig = errors.New("config: invalid configuration")
