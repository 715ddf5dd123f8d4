package flatjson

import "unicode/utf8"

// utf8Valid backs defaultValidator. Kept in its own file so swapping
// the default implementation never touches options.go.
func utf8Valid(b []byte) bool { return utf8.Valid(b) }
