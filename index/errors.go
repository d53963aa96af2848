package index

import "errors"

// ErrIndexUnavailable indicates an index cannot serve queries or accept
// writes right now. The index may recover after a rebuild.
var ErrIndexUnavailable = errors.New("index unavailable")
