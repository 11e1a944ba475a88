package testutil

import (
	"net/http"

	"punsj/pkg/requestcontext"
)

// WithEditor marks the request as made by the case worker ident, as the auth
// middleware would.
func WithEditor(req *http.Request, ident string) *http.Request {
	return req.WithContext(requestcontext.WithEditor(req.Context(), ident))
}

// WithCorrelationID sets the correlation id forwarded to downstream calls.
func WithCorrelationID(req *http.Request, id string) *http.Request {
	return req.WithContext(requestcontext.WithCorrelationID(req.Context(), id))
}
