// Package sleepytest serves the Sleepy.Mongoose HTTP surface from memory
// for tests. It is not a database: criteria match by equality on top-level
// fields, updates support $set or whole-document replacement, and commands
// cover ping, count, drop, listCollections and listDatabases.
//
//	srv := sleepytest.NewServer(t)
//	client, _ := sleepy.New(sleepy.Config{Gateway: httpclient.Config{BaseURL: srv.URL}})
//	...
//	req := srv.LastRequest()
package sleepytest
