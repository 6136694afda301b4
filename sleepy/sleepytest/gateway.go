package sleepytest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

// HelloMessage is the msg field of a /_hello reply.
const HelloMessage = "Uh, we had a slight weapons malfunction, but uh... everything's perfectly all right now. We're fine. We're all fine here now, thank you. How are you?"

const defaultBatchSize = 15

// Request is a recorded inbound request.
type Request struct {
	Method      string
	Path        string
	RawQuery    string
	Body        string
	ContentType string
	Header      http.Header
}

// Connection is a recorded _connect call.
type Connection struct {
	Server string
	Name   string
}

type failure struct {
	status int
	errmsg string
}

type cursor struct {
	db, coll string
	pending  []Document
}

// Gateway is an in-memory Sleepy.Mongoose gateway. It implements http.Handler.
type Gateway struct {
	engine *gin.Engine

	mu          sync.Mutex
	store       *store
	cursors     map[int64]*cursor
	nextCursor  int64
	requests    []Request
	connections []Connection
	failures    map[string]failure
}

// New creates an empty gateway.
func New() *Gateway {
	gin.SetMode(gin.TestMode)
	g := &Gateway{
		engine:   gin.New(),
		store:    newStore(),
		cursors:  make(map[int64]*cursor),
		failures: make(map[string]failure),
	}
	g.routes()
	return g
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.engine.ServeHTTP(w, r)
}

// Server is a Gateway listening on a local httptest server.
type Server struct {
	*Gateway
	URL string
	srv *httptest.Server
}

// NewServer starts a gateway that is closed when tb finishes.
func NewServer(tb testing.TB) *Server {
	tb.Helper()
	g := New()
	srv := httptest.NewServer(g)
	tb.Cleanup(srv.Close)
	return &Server{Gateway: g, URL: srv.URL, srv: srv}
}

// Close stops the listener early.
func (s *Server) Close() { s.srv.Close() }

func (g *Gateway) routes() {
	g.engine.Use(g.record)

	g.engine.POST("/_connect", g.handleConnect)
	g.engine.GET("/_hello", g.handleHello)
	g.engine.POST("/_cmd", g.handleCommand)
	g.engine.POST("/:db/_cmd", g.handleCommand)

	g.engine.GET("/:db/:coll/_find", g.handleFind)
	g.engine.GET("/:db/:coll/_more", g.handleMore)
	g.engine.POST("/:db/:coll/_remove", g.handleRemove)
	g.engine.POST("/:db/:coll/_update", g.handleUpdate)
	g.engine.POST("/:db/:coll/_insert", g.handleInsert)

	g.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"ok": 0, "errmsg": "no such route " + c.Request.URL.Path})
	})
}

// record stores the request and answers configured failures.
func (g *Gateway) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	g.mu.Lock()
	g.requests = append(g.requests, Request{
		Method:      c.Request.Method,
		Path:        c.Request.URL.EscapedPath(),
		RawQuery:    c.Request.URL.RawQuery,
		Body:        string(body),
		ContentType: c.GetHeader("Content-Type"),
		Header:      c.Request.Header.Clone(),
	})
	f, failing := g.failures[opName(c.Request.URL.Path)]
	g.mu.Unlock()

	if failing {
		c.AbortWithStatusJSON(f.status, gin.H{"ok": 0, "errmsg": f.errmsg})
		return
	}
	c.Next()
}

// Fail makes every following request for op (e.g. "_find") answer with
// status and {"ok":0,"errmsg":errmsg}.
func (g *Gateway) Fail(op string, status int, errmsg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures[op] = failure{status: status, errmsg: errmsg}
}

// Recover clears a failure set with Fail.
func (g *Gateway) Recover(op string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.failures, op)
}

// Requests returns every request received so far.
func (g *Gateway) Requests() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Request(nil), g.requests...)
}

// LastRequest returns the most recent request. It panics if there is none.
func (g *Gateway) LastRequest() Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

// Connections returns every recorded _connect call.
func (g *Gateway) Connections() []Connection {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Connection(nil), g.connections...)
}

// Seed inserts docs directly, generating _id where missing.
func (g *Gateway) Seed(db, coll string, docs ...Document) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.store.insert(db, coll, docs)
}

// Documents returns a copy of a collection's documents.
func (g *Gateway) Documents(db, coll string) []Document {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Document(nil), g.store.collection(db, coll)...)
}

func (g *Gateway) handleConnect(c *gin.Context) {
	args := formArgs(c)
	server := args.Get("server")
	if server == "" {
		badRequest(c, "server is required")
		return
	}
	g.mu.Lock()
	g.connections = append(g.connections, Connection{Server: server, Name: args.Get("name")})
	g.mu.Unlock()

	reply := gin.H{"ok": 1, "host": server}
	if name := args.Get("name"); name != "" {
		reply["name"] = name
	}
	c.JSON(http.StatusOK, reply)
}

func (g *Gateway) handleHello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": 1, "msg": HelloMessage})
}

func (g *Gateway) handleFind(c *gin.Context) {
	args := c.Request.URL.Query()
	criteria, err := objectArg(args, "criteria")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	fields, err := objectArg(args, "fields")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	skip, err1 := intArg(args, "skip", 0)
	limit, err2 := intArg(args, "limit", 0)
	batchSize, err3 := intArg(args, "batch_size", defaultBatchSize)
	if err := firstErr(err1, err2, err3); err != nil {
		badRequest(c, err.Error())
		return
	}

	db, coll := c.Param("db"), c.Param("coll")

	g.mu.Lock()
	defer g.mu.Unlock()

	matched := g.store.find(db, coll, criteria)
	matched = matched[min(skip, len(matched)):]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	docs := make([]Document, 0, len(matched))
	for _, d := range matched {
		docs = append(docs, project(d, fields))
	}
	g.replyBatch(c, &cursor{db: db, coll: coll, pending: docs}, batchSize)
}

func (g *Gateway) handleMore(c *gin.Context) {
	args := c.Request.URL.Query()
	if !args.Has("id") {
		badRequest(c, "id is required")
		return
	}
	id, err := strconv.ParseInt(args.Get("id"), 10, 64)
	if err != nil {
		badRequest(c, "id must be an integer")
		return
	}
	batchSize, err := intArg(args, "batch_size", defaultBatchSize)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	cur, ok := g.cursors[id]
	if !ok || cur.db != c.Param("db") || cur.coll != c.Param("coll") {
		c.JSON(http.StatusOK, gin.H{"ok": 0, "errmsg": fmt.Sprintf("couldn't find the cursor with id %d", id)})
		return
	}
	delete(g.cursors, id)
	g.replyBatch(c, cur, batchSize)
}

// replyBatch answers with up to batchSize documents and parks the rest
// under a new cursor id. Callers hold g.mu.
func (g *Gateway) replyBatch(c *gin.Context, cur *cursor, batchSize int) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	n := min(batchSize, len(cur.pending))
	batch := cur.pending[:n]
	var id int64
	if rest := cur.pending[n:]; len(rest) > 0 {
		g.nextCursor++
		id = g.nextCursor
		g.cursors[id] = &cursor{db: cur.db, coll: cur.coll, pending: rest}
	}
	c.JSON(http.StatusOK, gin.H{"ok": 1, "results": batch, "id": id})
}

func (g *Gateway) handleRemove(c *gin.Context) {
	args := formArgs(c)
	criteria, err := objectArg(args, "criteria")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	g.mu.Lock()
	g.store.remove(c.Param("db"), c.Param("coll"), criteria)
	g.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"ok": 1})
}

func (g *Gateway) handleUpdate(c *gin.Context) {
	args := formArgs(c)
	if !args.Has("criteria") || !args.Has("newobj") {
		badRequest(c, "criteria and newobj are required")
		return
	}
	criteria, err := objectArg(args, "criteria")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	newobj, err := objectArg(args, "newobj")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	g.mu.Lock()
	g.store.update(c.Param("db"), c.Param("coll"), criteria, newobj)
	g.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"ok": 1})
}

func (g *Gateway) handleInsert(c *gin.Context) {
	args := formArgs(c)
	if !args.Has("docs") {
		badRequest(c, "docs is required")
		return
	}
	docs, err := docsArg(args.Get("docs"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	g.mu.Lock()
	g.store.insert(c.Param("db"), c.Param("coll"), docs)
	g.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"ok": 1})
}

func formArgs(c *gin.Context) url.Values {
	_ = c.Request.ParseForm()
	return c.Request.PostForm
}

func objectArg(args url.Values, key string) (Document, error) {
	raw := args.Get(key)
	if raw == "" {
		return nil, nil
	}
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("couldn't parse json: %s", raw)
	}
	return doc, nil
}

// docsArg accepts a JSON array of objects or a single object.
func docsArg(raw string) ([]Document, error) {
	var docs []Document
	if err := json.Unmarshal([]byte(raw), &docs); err == nil {
		return docs, nil
	}
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("couldn't parse json: %s", raw)
	}
	return []Document{doc}, nil
}

func intArg(args url.Values, key string, def int) (int, error) {
	raw := args.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	if n < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return n, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": 0, "errmsg": msg})
}

// opName returns the last path segment, e.g. "_find".
func opName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
