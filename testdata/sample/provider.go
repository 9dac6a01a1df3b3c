package store

import "errors"

// asLookupError funnels arbitrary errors into LookupError and passes an
// existing LookupError through unchanged.
//
//errgen:from
func asLookupError(err error) *LookupError {
	var le *LookupError
	if errors.As(err, &le) {
		return le
	}
	return NewLookupError().Msg(err.Error())
}
