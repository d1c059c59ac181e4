package service

import "errors"

// ErrAlreadyRegistered indicates a plugin name was registered twice.
var ErrAlreadyRegistered = errors.New("plugin already registered")

// ErrEmptyPluginName indicates a registration without a plugin name.
var ErrEmptyPluginName = errors.New("empty plugin name")
