// Package value is a reference Observer built entirely on top of
// jtok.Parse's public contract: it proves that contract is enough to
// reconstruct full Go values without re-tokenizing, and it recovers
// the tree-decoding convenience the core tokenizer deliberately
// leaves out (see SPEC_FULL.md §10.2). Its Decoder reproduces the
// teacher decoder's depth-gated emission, KV pairs and ordered-object
// feature set, rebuilt around jtok's flat callback instead of a
// recursive-descent scanner the decoder itself drove.
package value

import (
	"bytes"
	"encoding/json"
	"strconv"
	"unicode/utf16"

	"github.com/xenking/jtok"
	valerrors "github.com/xenking/jtok/value/internal/errors"
	"github.com/xenking/jtok/value/internal/scratch"
)

// ValueType identifies the Go shape a MetaValue.Value holds.
type ValueType int

const (
	Unknown ValueType = iota
	Null
	String
	Number
	Boolean
	Array
	Object
)

// MetaValue wraps a decoded value with the document position and
// nesting depth at which it was found.
type MetaValue struct {
	Offset    int
	Length    int
	Depth     int
	Keys      []string
	Value     interface{}
	ValueType ValueType
}

// KV is a key/value pair parsed from an object, used when a Decoder
// has EmitKV enabled.
type KV struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// KVS represents an object's members in input order, an alternative
// to map[string]interface{} for callers that need to preserve key
// order (see Decoder.ObjectAsKVS).
type KVS []KV

// MarshalJSON renders kvs as a JSON object with its keys in order.
func (kvs KVS) MarshalJSON() ([]byte, error) {
	b := new(bytes.Buffer)
	b.WriteByte('{')
	for i, kv := range kvs {
		valBuf, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		if i > 0 {
			b.WriteByte(',')
		}
		key, _ := json.Marshal(kv.Key)
		b.Write(key)
		b.WriteByte(':')
		b.Write(valBuf)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// frame is one open array/object on the assembly stack.
type frame struct {
	kind     ValueType // Array or Object
	ownDepth int
	ownKeys  []string

	childDepth int
	childKeys  []string // array elements only; object children use per-key keys

	arr []interface{}
	obj map[string]interface{}
	kvs KVS

	pendingKey       string
	pendingKeyOffset int
}

// Decoder drives jtok.Parse over one or more whitespace-separated
// top-level JSON documents, reassembling native values and emitting a
// MetaValue for each one found at the configured depth.
type Decoder struct {
	emitDepth     int
	emitKV        bool
	emitRecursive bool
	objectAsKVS   bool

	scratch *scratch.Scratch
	metaCh  chan *MetaValue
	err     error

	input    []byte
	stack    []*frame
	curDepth int
	curKeys  []string
}

// NewDecoder creates a Decoder that emits values found at emitDepth.
// If emitDepth < 0, values at every depth are emitted (equivalent to
// also calling Recursive).
func NewDecoder(emitDepth int) *Decoder {
	d := &Decoder{
		emitDepth: emitDepth,
		scratch:   &scratch.Scratch{Data: make([]byte, 256)},
	}
	if emitDepth < 0 {
		d.emitDepth = 0
		d.emitRecursive = true
	}
	return d
}

// ObjectAsKVS preserves object key order via KVS instead of
// collapsing members into a map[string]interface{}.
func (d *Decoder) ObjectAsKVS() *Decoder {
	d.objectAsKVS = true
	return d
}

// EmitKV wraps values found directly inside an object in a KV pair
// instead of emitting the bare value.
func (d *Decoder) EmitKV() *Decoder {
	d.emitKV = true
	return d
}

// Recursive emits every value at or below the configured emit depth,
// not only the ones exactly at it.
func (d *Decoder) Recursive() *Decoder {
	d.emitRecursive = true
	return d
}

// Err returns the error that ended the most recent Stream/Values
// call, or nil.
func (d *Decoder) Err() error { return d.err }

// Stream decodes input and returns a channel of MetaValues found at
// the configured depth. input may hold more than one whitespace-
// separated top-level document; each is parsed in turn. The channel
// is closed when decoding finishes or fails; check Err afterward.
func (d *Decoder) Stream(input []byte) <-chan *MetaValue {
	ch := make(chan *MetaValue, 128)
	d.metaCh = ch
	d.input = input
	go d.run(input)
	return ch
}

// Values is a synchronous convenience wrapper around Stream.
func (d *Decoder) Values(input []byte) ([]*MetaValue, error) {
	var out []*MetaValue
	for mv := range d.Stream(input) {
		out = append(out, mv)
	}
	return out, d.Err()
}

func (d *Decoder) run(input []byte) {
	defer close(d.metaCh)

	pos := 0
	for {
		for pos < len(input) && isJSONSpace(input[pos]) {
			pos++
		}
		if pos >= len(input) {
			return
		}

		d.stack = d.stack[:0]
		d.curDepth = 0
		d.curKeys = nil

		ret := jtok.Parse(input, pos, d.observe)
		if d.err != nil {
			return
		}
		if ret < 0 {
			d.err = jtok.AsError(input, ret)
			return
		}
		pos = ret
	}
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func (d *Decoder) observe(start, end int, info jtok.Info) int {
	switch {
	case info.Is(jtok.Open):
		d.pushOpen(info)
	case info.Is(jtok.Close):
		d.popClose(start, end)
	case info.Kind() == jtok.String && info.Is(jtok.Key):
		d.setKey(start, end)
	default:
		d.completeScalar(start, end, info)
	}
	if d.err != nil {
		return -1
	}
	if len(d.stack) == 0 {
		// The top-level value is complete: stop this Parse call here so
		// run can resume at the returned offset with the next document.
		return 0
	}
	return 1
}

func (d *Decoder) pushOpen(info jtok.Info) {
	f := &frame{
		ownDepth:   d.curDepth,
		ownKeys:    d.curKeys,
		childDepth: d.curDepth + 1,
	}
	if info.Kind() == jtok.Array {
		f.kind = Array
		f.arr = make([]interface{}, 0)
		f.childKeys = appendKey(f.ownKeys, "")
	} else {
		f.kind = Object
		if d.objectAsKVS {
			f.kvs = make(KVS, 0)
		} else {
			f.obj = make(map[string]interface{})
		}
	}
	d.stack = append(d.stack, f)
	d.curDepth = f.childDepth
	d.curKeys = f.childKeys
}

func (d *Decoder) popClose(start, end int) {
	n := len(d.stack)
	f := d.stack[n-1]
	d.stack = d.stack[:n-1]

	var val interface{}
	switch f.kind {
	case Array:
		val = f.arr
	case Object:
		if d.objectAsKVS {
			val = f.kvs
		} else {
			val = f.obj
		}
	}

	if n > 1 {
		parent := d.stack[n-2]
		d.curDepth = parent.childDepth
		if parent.kind == Array {
			d.curKeys = parent.childKeys
		}
	} else {
		d.curDepth = f.ownDepth
		d.curKeys = f.ownKeys
	}

	d.deliver(start, end, f.ownDepth, f.ownKeys, val, f.kind)
}

func (d *Decoder) setKey(start, end int) {
	key, err := d.decodeString(d.input[start:end])
	if err != nil {
		d.err = err
		return
	}
	f := d.stack[len(d.stack)-1]
	f.pendingKey = key
	f.pendingKeyOffset = start
	d.curKeys = appendKey(f.ownKeys, key)
	d.curDepth = f.childDepth
}

func (d *Decoder) completeScalar(start, end int, info jtok.Info) {
	var (
		val interface{}
		vt  ValueType
		err error
	)
	switch info.Kind() {
	case jtok.String:
		vt = String
		val, err = d.decodeString(d.input[start:end])
	case jtok.Number:
		vt = Number
		val, err = decodeNumber(d.input[start:end], start)
	case jtok.True:
		vt, val = Boolean, true
	case jtok.False:
		vt, val = Boolean, false
	case jtok.Null:
		vt, val = Null, nil
	}
	if err != nil {
		d.err = err
		return
	}
	d.deliver(start, end, d.curDepth, d.curKeys, val, vt)
}

// deliver folds val into the enclosing container (if any) and, if
// the configured emit depth is reached, sends a MetaValue.
func (d *Decoder) deliver(start, end, depth int, keys []string, val interface{}, vt ValueType) {
	var parent *frame
	if n := len(d.stack); n > 0 {
		parent = d.stack[n-1]
		switch parent.kind {
		case Array:
			parent.arr = append(parent.arr, val)
		case Object:
			if d.objectAsKVS {
				parent.kvs = append(parent.kvs, KV{Key: parent.pendingKey, Value: val})
			} else {
				parent.obj[parent.pendingKey] = val
			}
		}
	}

	if !d.willEmit(depth) {
		return
	}

	if d.emitKV && parent != nil && parent.kind == Object {
		d.metaCh <- &MetaValue{
			Offset:    parent.pendingKeyOffset,
			Length:    end - parent.pendingKeyOffset,
			Depth:     depth,
			Keys:      keys,
			Value:     KV{Key: parent.pendingKey, Value: val},
			ValueType: vt,
		}
		return
	}

	d.metaCh <- &MetaValue{
		Offset:    start,
		Length:    end - start,
		Depth:     depth,
		Keys:      keys,
		Value:     val,
		ValueType: vt,
	}
}

func (d *Decoder) willEmit(depth int) bool {
	if d.emitRecursive {
		return depth >= d.emitDepth
	}
	return depth == d.emitDepth
}

// appendKey always copies, avoiding the shared-backing-array
// aliasing that append(pKeys, k) risks when the same parent key path
// is extended more than once (as every additional object member
// does): a later key's slice could otherwise silently overwrite an
// earlier key's already-captured MetaValue.Keys in place.
func appendKey(base []string, k string) []string {
	out := make([]string, len(base)+1)
	copy(out, base)
	out[len(base)] = k
	return out
}

// decodeString unescapes a string span (including its surrounding
// quotes). jtok.Parse has already validated escape grammar and
// surrogate pairing, so this never needs to report a syntax error of
// its own.
func (d *Decoder) decodeString(span []byte) (string, error) {
	body := span[1 : len(span)-1]
	if bytes.IndexByte(body, '\\') < 0 {
		return string(body), nil
	}

	d.scratch.Reset()
	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			d.scratch.Add(c)
			i++
			continue
		}
		i++
		esc := body[i]
		i++
		switch esc {
		case '"':
			d.scratch.Add('"')
		case '\\':
			d.scratch.Add('\\')
		case '/':
			d.scratch.Add('/')
		case 'b':
			d.scratch.Add('\b')
		case 'f':
			d.scratch.Add('\f')
		case 'n':
			d.scratch.Add('\n')
		case 'r':
			d.scratch.Add('\r')
		case 't':
			d.scratch.Add('\t')
		case 'u':
			r := decodeHex4(body[i : i+4])
			i += 4
			if r >= 0xD800 && r <= 0xDBFF {
				// \u and a low-surrogate \uXXXX are guaranteed present
				// by jtok's own escape-grammar validation.
				i += 2
				r2 := decodeHex4(body[i : i+4])
				i += 4
				d.scratch.AddRune(utf16.DecodeRune(r, r2))
			} else {
				d.scratch.AddRune(r)
			}
		}
	}
	return string(d.scratch.Bytes()), nil
}

func decodeHex4(b []byte) rune {
	var v rune
	for _, c := range b {
		var d rune
		switch {
		case c >= '0' && c <= '9':
			d = rune(c - '0')
		case c >= 'a' && c <= 'f':
			d = rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = rune(c-'A') + 10
		}
		v = v<<4 | d
	}
	return v
}

// decodeNumber parses an already-grammar-validated number span. An
// integer literal that overflows int64 falls back to float64 instead
// of failing outright, matching encoding/json's own Number handling
// rather than the stricter behavior of a plain strconv.ParseInt.
func decodeNumber(span []byte, offset int) (interface{}, error) {
	isFloat := false
	for _, c := range span {
		if c == '.' || c == 'e' || c == 'E' {
			isFloat = true
			break
		}
	}
	s := string(span)
	if !isFloat {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, valerrors.New("number literal out of range", offset, span[0], "decoding number")
	}
	return n, nil
}
