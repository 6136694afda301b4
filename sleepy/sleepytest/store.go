package sleepytest

import (
	"maps"
	"reflect"
	"slices"

	"github.com/google/uuid"
)

// Document is a stored document.
type Document = map[string]any

type store struct {
	dbs map[string]map[string][]Document
}

func newStore() *store {
	return &store{dbs: make(map[string]map[string][]Document)}
}

func (s *store) collection(db, coll string) []Document {
	return s.dbs[db][coll]
}

func (s *store) insert(db, coll string, docs []Document) {
	if s.dbs[db] == nil {
		s.dbs[db] = make(map[string][]Document)
	}
	for _, d := range docs {
		d = maps.Clone(d)
		if _, ok := d["_id"]; !ok {
			d["_id"] = uuid.NewString()
		}
		s.dbs[db][coll] = append(s.dbs[db][coll], d)
	}
}

func (s *store) find(db, coll string, criteria Document) []Document {
	var out []Document
	for _, d := range s.collection(db, coll) {
		if matches(d, criteria) {
			out = append(out, d)
		}
	}
	return out
}

func (s *store) remove(db, coll string, criteria Document) int {
	docs := s.collection(db, coll)
	kept := docs[:0]
	for _, d := range docs {
		if !matches(d, criteria) {
			kept = append(kept, d)
		}
	}
	removed := len(docs) - len(kept)
	if s.dbs[db] != nil {
		s.dbs[db][coll] = kept
	}
	return removed
}

// update changes the first matching document.
func (s *store) update(db, coll string, criteria, newobj Document) bool {
	docs := s.collection(db, coll)
	for i, d := range docs {
		if !matches(d, criteria) {
			continue
		}
		if set, ok := newobj["$set"].(Document); ok {
			for k, v := range set {
				d[k] = v
			}
			return true
		}
		replacement := maps.Clone(newobj)
		replacement["_id"] = d["_id"]
		docs[i] = replacement
		return true
	}
	return false
}

func (s *store) drop(db, coll string) bool {
	if _, ok := s.dbs[db][coll]; !ok {
		return false
	}
	delete(s.dbs[db], coll)
	return true
}

func (s *store) collections(db string) []string {
	return slices.Sorted(maps.Keys(s.dbs[db]))
}

func (s *store) databases() []string {
	return slices.Sorted(maps.Keys(s.dbs))
}

func matches(doc, criteria Document) bool {
	for k, want := range criteria {
		got, ok := doc[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// project keeps _id plus the truthy fields, or drops the falsy ones when
// every listed field is falsy.
func project(doc, fields Document) Document {
	if len(fields) == 0 {
		return doc
	}
	exclude := true
	for _, v := range fields {
		if truthy(v) {
			exclude = false
			break
		}
	}
	out := make(Document)
	if exclude {
		for k, v := range doc {
			if _, listed := fields[k]; !listed {
				out[k] = v
			}
		}
		return out
	}
	if id, ok := doc["_id"]; ok {
		out["_id"] = id
	}
	for k, v := range fields {
		if dv, ok := doc[k]; ok && truthy(v) {
			out[k] = dv
		}
	}
	return out
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case nil:
		return false
	default:
		return true
	}
}
