package indicator

import "errors"

var (
	ErrJSONUnmarshalFailed = errors.New("failed to unmarshal indicator record")
	ErrMalformedRecord     = errors.New("malformed indicator record")
	ErrDecimalArithmetic   = errors.New("decimal arithmetic failed")
)
