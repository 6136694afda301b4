package sleepytest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// adminDB is the database /_cmd runs against.
const adminDB = "admin"

func (g *Gateway) handleCommand(c *gin.Context) {
	raw := formArgs(c).Get("obj")
	if raw == "" {
		badRequest(c, "obj is required")
		return
	}
	name, err := commandName(raw)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var obj Document
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		badRequest(c, fmt.Sprintf("couldn't parse json: %s", raw))
		return
	}

	db := c.Param("db")
	if db == "" {
		db = adminDB
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch name {
	case "ping":
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	case "count":
		coll, _ := obj["count"].(string)
		query, _ := obj["query"].(Document)
		c.JSON(http.StatusOK, gin.H{"ok": 1, "n": len(g.store.find(db, coll, query))})
	case "drop":
		coll, _ := obj["drop"].(string)
		if !g.store.drop(db, coll) {
			c.JSON(http.StatusOK, gin.H{"ok": 0, "errmsg": "ns not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1, "ns": db + "." + coll})
	case "listCollections":
		c.JSON(http.StatusOK, gin.H{"ok": 1, "collections": nonNil(g.store.collections(db))})
	case "listDatabases":
		var dbs []gin.H
		for _, name := range g.store.databases() {
			dbs = append(dbs, gin.H{"name": name})
		}
		if dbs == nil {
			dbs = []gin.H{}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1, "databases": dbs})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": 0, "errmsg": "no such cmd: " + name})
	}
}

// commandName returns the first key of a JSON object, which names the command.
func commandName(raw string) (string, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return "", fmt.Errorf("command must be a JSON object")
	}
	tok, err = dec.Token()
	if err != nil {
		return "", fmt.Errorf("command must be a JSON object")
	}
	name, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("empty command")
	}
	return name, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
