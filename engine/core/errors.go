package core

import (
	"errors"
)

var (
	ErrEventSystemNotInitialized = errors.New("event system not initialized")
)
