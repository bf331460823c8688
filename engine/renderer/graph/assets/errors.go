package assets

import "errors"

var (
	ErrTerminalInput = errors.New("terminal asset cannot be read from")
	ErrNoFrameTarget = errors.New("no frame target set")
	ErrNotPingPong   = errors.New("render target has a single attachment")
	ErrNoAttachments = errors.New("render target has no attachments")
)
