// Package httpclient is the HTTP transport used to reach a Sleepy.Mongoose
// gateway. It resolves paths against a base URL, sends pre-encoded query
// strings and form bodies, applies auth and TLS, tags every request with an
// X-Request-ID header and W3C trace context, and classifies non-2xx replies
// into *Error values.
//
//	adapter, err := httpclient.New(httpclient.Config{
//	    BaseURL: "http://localhost:27080",
//	    Timeout: 10 * time.Second,
//	})
//
//	resp, err := adapter.Do(ctx, httpclient.Request{
//	    Method:   http.MethodGet,
//	    Path:     "/db/coll/_find",
//	    RawQuery: "limit=5",
//	})
//
// Concurrency and request rate can be capped with MaxInFlight and
// RateLimit. Nothing is retried.
package httpclient
