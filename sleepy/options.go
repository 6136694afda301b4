package sleepy

// CursorID is the opaque cursor token returned by find and resupplied to more.
type CursorID int64

// DefaultBatchSize is the batch size the gateway uses when none is sent.
// The client never fills it in.
const DefaultBatchSize = 15

// FindOptions selects documents for Find. Zero values are not sent.
type FindOptions struct {
	// Criteria is the filter document.
	Criteria any
	// Fields is the projection; _id is always returned.
	Fields    any
	Skip      int
	Limit     int
	BatchSize int
}

// Params converts o in the order criteria, fields, skip, limit, batch_size.
func (o *FindOptions) Params() *Params {
	p := &Params{}
	if o == nil {
		return p
	}
	if o.Criteria != nil {
		p.Set("criteria", o.Criteria)
	}
	if o.Fields != nil {
		p.Set("fields", o.Fields)
	}
	if o.Skip != 0 {
		p.Set("skip", o.Skip)
	}
	if o.Limit != 0 {
		p.Set("limit", o.Limit)
	}
	if o.BatchSize != 0 {
		p.Set("batch_size", o.BatchSize)
	}
	return p
}

// MoreOptions continues a cursor. ID is always sent.
type MoreOptions struct {
	ID        CursorID
	BatchSize int
}

// Params converts o.
func (o MoreOptions) Params() *Params {
	p := NewParams("id", o.ID)
	if o.BatchSize != 0 {
		p.Set("batch_size", o.BatchSize)
	}
	return p
}

// RemoveOptions selects documents to delete. A nil Criteria removes all.
type RemoveOptions struct {
	Criteria any
}

// Params converts o.
func (o *RemoveOptions) Params() *Params {
	p := &Params{}
	if o != nil && o.Criteria != nil {
		p.Set("criteria", o.Criteria)
	}
	return p
}

// UpdateOptions describes an update. Both fields are always sent.
type UpdateOptions struct {
	Criteria any
	NewObj   any
}

// Params converts o.
func (o UpdateOptions) Params() *Params {
	return NewParams("criteria", o.Criteria, "newobj", o.NewObj)
}

// InsertOptions carries documents to insert. Docs is always sent and should
// be a slice.
type InsertOptions struct {
	Docs any
}

// Params converts o.
func (o InsertOptions) Params() *Params {
	return NewParams("docs", o.Docs)
}
