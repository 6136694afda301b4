// Package sleepy is a client for the Sleepy.Mongoose REST gateway.
//
// A Client is bound to a gateway URL and to the address of the database
// server the gateway should talk to. Each operation becomes one HTTP
// request: reads (find, more, hello) are GETs with the options in the
// query string, writes (connect, remove, update, insert, command) are
// form-encoded POSTs.
//
// Options are serialized in order. Structured values (maps, slices,
// structs) are JSON-encoded and percent-encoded; scalars are written as-is:
//
//	client, err := sleepy.New(sleepy.Config{})
//	res, err := client.Find(ctx, "db", "coll", &sleepy.FindOptions{
//	    Criteria: map[string]any{"x": 1},
//	    Limit:    5,
//	})
//	// GET /db/coll/_find?criteria=%7B%22x%22%3A1%7D&limit=5
//
// The client never interprets "ok". Replies are returned as they come and
// callers check Status.Err. Asynchronous use goes through Go and Future,
// which fire in completion order.
package sleepy
