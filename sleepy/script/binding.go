package script

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dop251/goja"

	"github.com/kbukum/sleepy/errors"
	"github.com/kbukum/sleepy/logger"
	"github.com/kbukum/sleepy/sleepy"
)

// binding exposes one client to the runtime. All methods run on the loop.
type binding struct {
	run    *run
	client *sleepy.Client
}

// collectionOp describes a db/collection operation.
type collectionOp struct {
	name   string
	method string
	op     string
}

var collectionOps = []collectionOp{
	{"find", http.MethodGet, "_find"},
	{"more", http.MethodGet, "_more"},
	{"remove", http.MethodPost, "_remove"},
	{"update", http.MethodPost, "_update"},
	{"insert", http.MethodPost, "_insert"},
}

// object builds the JS object for this client.
func (b *binding) object() *goja.Object {
	vm := b.run.vm
	obj := vm.NewObject()
	_ = obj.Set("server", b.client.Server())
	_ = obj.Set("connect", b.connect)
	_ = obj.Set("hello", b.hello)
	_ = obj.Set("command", b.command)
	for _, op := range collectionOps {
		_ = obj.Set(op.name, b.collectionMethod(op))
	}
	return obj
}

// connect(name?, callback?)
func (b *binding) connect(call goja.FunctionCall) goja.Value {
	cb := b.run.callback(call.Argument(1))
	name := ""
	if v := call.Argument(0); isString(v) {
		name = v.String()
	}
	return b.dispatch(cb, http.MethodPost, "", "", "_connect", b.client.ConnectParams(name))
}

// hello(callback?)
func (b *binding) hello(call goja.FunctionCall) goja.Value {
	cb := b.run.callback(call.Argument(0))
	return b.dispatch(cb, http.MethodGet, "", "", "_hello", nil)
}

// command(db?, obj, callback?)
func (b *binding) command(call goja.FunctionCall) goja.Value {
	cb := b.run.callback(call.Argument(2))
	db := ""
	if v := call.Argument(0); isString(v) {
		db = v.String()
	}
	raw := b.run.toJSON(call.Argument(1))
	return b.dispatch(cb, http.MethodPost, db, "", "_cmd", sleepy.NewParams("obj", raw))
}

// <op>(db, collection, options?, callback?)
func (b *binding) collectionMethod(op collectionOp) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		cb := b.run.callback(call.Argument(3))
		db := call.Argument(0).String()
		coll := call.Argument(1).String()
		params := b.run.params(call.Argument(2))
		return b.dispatch(cb, op.method, db, coll, op.op, params)
	}
}

// dispatch sends the request on its own goroutine and settles the callback
// and the returned promise back on the loop.
func (b *binding) dispatch(cb goja.Callable, method, db, coll, op string, params *sleepy.Params) goja.Value {
	r := b.run
	promise, resolve, reject := r.vm.NewPromise()
	r.pending.Add(1)

	go func() {
		var raw json.RawMessage
		err := b.client.Call(r.ctx, method, db, coll, op, params, &raw)
		if err != nil && cb == nil {
			r.log.Warn("script request failed", logger.Fields(
				logger.FieldOperation, op,
				logger.FieldDB, db,
				logger.FieldCollection, coll,
				logger.FieldError, err.Error(),
			))
		}
		r.loop.RunOnLoop(func(vm *goja.Runtime) {
			defer r.pending.Done()
			if r.ctx.Err() != nil {
				return
			}
			resp := r.parse(raw)
			errVal := goja.Null()
			if err != nil {
				errVal = vm.NewGoError(err)
			}
			if cb != nil {
				if _, cbErr := cb(goja.Undefined(), resp, errVal); cbErr != nil {
					r.fail(cbErr)
				}
			}
			if err != nil {
				reject(errVal)
			} else {
				resolve(resp)
			}
		})
	}()

	return r.vm.ToValue(promise)
}

// callback validates an optional callback argument. It throws a TypeError
// for anything that is provided but not callable.
func (r *run) callback(v goja.Value) goja.Callable {
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		panic(r.vm.NewTypeError(errors.InvalidArgument("callback", "must be a function").Error()))
	}
	return fn
}

// params serializes an options object in property order. Objects and
// arrays are passed as JSON, everything else as its JS string form.
func (r *run) params(v goja.Value) *sleepy.Params {
	p := &sleepy.Params{}
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return p
	}
	obj := v.ToObject(r.vm)
	for _, key := range obj.Keys() {
		p.Set(key, r.optionValue(obj.Get(key)))
	}
	return p
}

func (r *run) optionValue(v goja.Value) any {
	if goja.IsNull(v) {
		return nil
	}
	if obj, ok := v.(*goja.Object); ok {
		if _, isFn := goja.AssertFunction(v); !isFn {
			return r.objectJSON(obj)
		}
	}
	return v.String()
}

// toJSON serializes any value the way JSON.stringify would.
func (r *run) toJSON(v goja.Value) json.RawMessage {
	if obj, ok := v.(*goja.Object); ok {
		return r.objectJSON(obj)
	}
	data, err := json.Marshal(v.Export())
	if err != nil {
		panic(r.vm.NewTypeError(errors.EncodeFailed("obj", err).Error()))
	}
	return data
}

func (r *run) objectJSON(obj *goja.Object) json.RawMessage {
	data, err := obj.MarshalJSON()
	if err != nil {
		panic(r.vm.NewTypeError(errors.EncodeFailed("option", err).Error()))
	}
	return data
}

// parse turns a reply body into a JS value with JSON.parse, keeping key order.
func (r *run) parse(raw json.RawMessage) goja.Value {
	if len(raw) == 0 {
		return goja.Null()
	}
	parse, ok := goja.AssertFunction(r.vm.Get("JSON").ToObject(r.vm).Get("parse"))
	if !ok {
		return goja.Null()
	}
	v, err := parse(goja.Undefined(), r.vm.ToValue(string(raw)))
	if err != nil {
		return goja.Null()
	}
	return v
}

func isString(v goja.Value) bool {
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return false
	}
	_, ok := v.Export().(string)
	return ok && strings.TrimSpace(v.String()) != ""
}
