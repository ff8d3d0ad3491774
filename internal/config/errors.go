package config

import "errors"

// Error variables for configuration loading.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrNegativeValue      = errors.New("value cannot be negative")
	ErrNotInteger         = errors.New("value must be an integer")
	ErrDuplicateStrategy  = errors.New("strategy listed twice")
	ErrWorkDir            = errors.New("invalid working directory")
)
