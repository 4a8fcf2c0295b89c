package weberr

// Opt attaches something to an error on its way to the error middleware.
type Opt func(error) error

// Wrap applies opts to err in order. A nil err stays nil.
func Wrap(err error, opts ...Opt) error {
	if err == nil {
		return nil
	}
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

// WithResponse sets the body and status written to the client.
func WithResponse(body interface{}, status int) Opt {
	return func(err error) error {
		return &responseError{error: err, body: body, status: status}
	}
}

// WithFields adds log fields. Fields already on err are kept unless
// overridden by the same key.
func WithFields(fields map[string]interface{}) Opt {
	return func(err error) error {
		merged := make(map[string]interface{}, len(fields))
		if prev, ok := Fields(err); ok {
			for k, v := range prev {
				merged[k] = v
			}
		}
		for k, v := range fields {
			merged[k] = v
		}
		return &fieldsError{error: err, fields: merged}
	}
}
