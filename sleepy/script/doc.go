// Package script runs JavaScript against a gateway using the browser
// client's callback API:
//
//	mongoose.find("db", "coll", {criteria: {x: 1}, limit: 5}, function (res, err) {
//	    if (err) { print("failed:", err); return; }
//	    print(res.results.length, "documents");
//	});
//
//	var other = new Mongoose("db2:27017", false);
//	other.command(null, {ping: 1}).then(function (res) { print(res.ok); });
//
// The global mongoose is bound to the runner's client. Every method accepts
// an optional trailing callback, called as callback(response, error), and
// returns a Promise for the response. A callback that is not a function
// throws a TypeError before anything is sent. Requests run concurrently and
// complete in any order.
package script
