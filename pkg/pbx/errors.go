package pbx

import "errors"

var (
	errNoToken              = errors.New("login response contained no token")
	errUnexpectedStatusCode = errors.New("unexpected status code")
)
