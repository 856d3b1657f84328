package reactor

import (
	"reflect"

	"github.com/vireldb/core/ael"
)

// funcEqual reports whether a and b are the same underlying function,
// used to suppress a second dispatch when one FileProc is registered for
// both directions of an fd. Go func values are not otherwise comparable.
func funcEqual(a, b ael.FileProc) bool {
	if a == nil || b == nil {
		return false
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
