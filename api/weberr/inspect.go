package weberr

import "errors"

type responder interface {
	Response() (body interface{}, status int)
}

type fielder interface {
	Fields() map[string]interface{}
}

// Response finds the outermost response attached to err, if any.
func Response(err error) (body interface{}, status int, ok bool) {
	var re responder
	if !errors.As(err, &re) {
		return nil, 0, false
	}
	body, status = re.Response()
	return body, status, true
}

// Fields returns the log fields attached to err, if any.
func Fields(err error) (map[string]interface{}, bool) {
	var fe fielder
	if !errors.As(err, &fe) {
		return nil, false
	}
	return fe.Fields(), true
}

type responseError struct {
	error
	body   interface{}
	status int
}

func (e *responseError) Response() (interface{}, int) { return e.body, e.status }

func (e *responseError) Unwrap() error { return e.error }

type fieldsError struct {
	error
	fields map[string]interface{}
}

func (e *fieldsError) Fields() map[string]interface{} { return e.fields }

func (e *fieldsError) Unwrap() error { return e.error }
