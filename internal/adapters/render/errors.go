package render

import "errors"

// ErrEncode reports a failure to encode a preview image.
var ErrEncode = errors.New("encode preview")
