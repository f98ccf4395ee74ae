// Package ipc carries command requests between a control client and the
// manager over a unix socket.
//
// Every message travels in a frame: a big-endian uint32 length followed by
// that many bytes of body. A connection opens with one byte naming the body
// encoding, 'G' for gob and 'J' for JSON, used for every frame after it.
package ipc

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"lavinder/command"
)

// MaxFrameSize bounds the body of a single frame.
const MaxFrameSize = 64 << 20

// Encoding selects the body encoding of a connection.
type Encoding byte

const (
	// Gob is the native encoding, able to carry any registered Go value.
	Gob Encoding = 'G'
	// JSON is for clients that are not written in Go. Integers arrive as
	// int, other numbers as float64; floats are always written with a
	// fraction so they keep their type.
	JSON Encoding = 'J'
)

func (e Encoding) String() string {
	switch e {
	case Gob:
		return "gob"
	case JSON:
		return "json"
	}
	return fmt.Sprintf("Encoding(%q)", byte(e))
}

// ParseEncoding accepts "gob" or "json".
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "gob", "":
		return Gob, nil
	case "json":
		return JSON, nil
	}
	return 0, fmt.Errorf("unknown encoding %q", s)
}

func init() {
	gob.Register([]any(nil))
	gob.Register(map[string]any(nil))
	gob.Register([]map[string]any(nil))
	gob.Register(map[string]string(nil))
	gob.Register(map[string]int(nil))
	gob.Register(map[int]string(nil))
}

// ErrFrameTooLarge is returned for frames above MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame too large")

// WriteFrame writes body with its length prefix.
func WriteFrame(w io.Writer, body []byte) error {
	if len(body) > MaxFrameSize {
		return ErrFrameTooLarge
	}
	buf := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(buf, uint32(len(body)))
	copy(buf[4:], body)
	_, err := w.Write(buf)
	return err
}

// ReadFrame reads one length-prefixed body.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return body, nil
}

type codec interface {
	encodeRequest(req command.Request) ([]byte, error)
	decodeRequest(b []byte) (command.Request, error)
	encodeResponse(out command.Outcome) ([]byte, error)
	decodeResponse(b []byte) (command.Outcome, error)
}

func codecFor(e Encoding) (codec, error) {
	switch e {
	case Gob:
		return gobCodec{}, nil
	case JSON:
		return jsonCodec{}, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", byte(e))
}

// gob cannot see the unexported fields of command.Selector, so paths cross
// the wire as plain steps.
type wireStep struct {
	Category string
	Selector any
}

type wireRequest struct {
	Path   []wireStep
	Name   string
	Args   []any
	Kwargs map[string]any
}

type wireResponse struct {
	Status int
	Value  any
}

func toWirePath(p command.Path) []wireStep {
	out := make([]wireStep, len(p))
	for i, s := range p {
		out[i] = wireStep{Category: string(s.Category), Selector: s.Selector.Value()}
	}
	return out
}

func fromWirePath(steps []wireStep) (command.Path, error) {
	p := make(command.Path, 0, len(steps))
	for _, s := range steps {
		c, ok := command.ParseCategory(s.Category)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", s.Category)
		}
		sel, err := command.SelectorOf(s.Selector)
		if err != nil {
			return nil, err
		}
		p = append(p, command.Step{Category: c, Selector: sel})
	}
	return p, nil
}

type gobCodec struct{}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) encodeRequest(req command.Request) ([]byte, error) {
	return gobEncode(wireRequest{Path: toWirePath(req.Path), Name: req.Name, Args: req.Args, Kwargs: req.Kwargs})
}

func (gobCodec) decodeRequest(b []byte) (command.Request, error) {
	var w wireRequest
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&w); err != nil {
		return command.Request{}, err
	}
	path, err := fromWirePath(w.Path)
	if err != nil {
		return command.Request{}, err
	}
	return command.Request{Path: path, Name: w.Name, Args: w.Args, Kwargs: w.Kwargs}, nil
}

func (gobCodec) encodeResponse(out command.Outcome) ([]byte, error) {
	return gobEncode(wireResponse{Status: int(out.Status), Value: out.Value})
}

func (gobCodec) decodeResponse(b []byte) (command.Outcome, error) {
	var w wireResponse
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&w); err != nil {
		return command.Outcome{}, err
	}
	return command.Outcome{Status: command.Status(w.Status), Value: w.Value}, nil
}

// jsonCodec uses positional arrays:
//
//	request:  [[["group","a"],["layout",null]], "info", [], {}]
//	response: [0, {"name": "stack"}]
type jsonCodec struct{}

func (jsonCodec) encodeRequest(req command.Request) ([]byte, error) {
	path := req.Path
	if path == nil {
		path = command.Path{}
	}
	args := req.Args
	if args == nil {
		args = []any{}
	}
	kwargs := req.Kwargs
	if kwargs == nil {
		kwargs = map[string]any{}
	}
	return json.Marshal([]any{path, req.Name, markFloats(args), markFloats(kwargs)})
}

func (jsonCodec) decodeRequest(b []byte) (command.Request, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(b, &parts); err != nil {
		return command.Request{}, err
	}
	if len(parts) != 4 {
		return command.Request{}, fmt.Errorf("request must have 4 elements, got %d", len(parts))
	}
	var req command.Request
	if err := json.Unmarshal(parts[0], &req.Path); err != nil {
		return command.Request{}, fmt.Errorf("path: %w", err)
	}
	if err := json.Unmarshal(parts[1], &req.Name); err != nil {
		return command.Request{}, fmt.Errorf("name: %w", err)
	}
	args, err := decodeJSONValue(parts[2])
	if err != nil {
		return command.Request{}, fmt.Errorf("args: %w", err)
	}
	if args != nil {
		list, ok := args.([]any)
		if !ok {
			return command.Request{}, fmt.Errorf("args must be a list")
		}
		req.Args = list
	}
	kwargs, err := decodeJSONValue(parts[3])
	if err != nil {
		return command.Request{}, fmt.Errorf("kwargs: %w", err)
	}
	if kwargs != nil {
		m, ok := kwargs.(map[string]any)
		if !ok {
			return command.Request{}, fmt.Errorf("kwargs must be an object")
		}
		req.Kwargs = m
	}
	return req, nil
}

func (jsonCodec) encodeResponse(out command.Outcome) ([]byte, error) {
	return json.Marshal([]any{int(out.Status), markFloats(out.Value)})
}

func (jsonCodec) decodeResponse(b []byte) (command.Outcome, error) {
	v, err := decodeJSONValue(b)
	if err != nil {
		return command.Outcome{}, err
	}
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return command.Outcome{}, fmt.Errorf("response must be a 2 element list")
	}
	status, ok := pair[0].(int)
	if !ok {
		return command.Outcome{}, fmt.Errorf("response status must be an integer, got %T", pair[0])
	}
	return command.Outcome{Status: command.Status(status), Value: pair[1]}, nil
}

func decodeJSONValue(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return normalizeNumbers(v), nil
}

// jsonFloat always encodes with a fraction or exponent, so that integral
// floats decode as float64 rather than int.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(float64(f))
	if err != nil {
		return nil, err
	}
	if !bytes.ContainsAny(b, ".eE") {
		b = append(b, ".0"...)
	}
	return b, nil
}

// markFloats returns a copy of v with every float wrapped in jsonFloat.
func markFloats(v any) any {
	switch t := v.(type) {
	case float64:
		return jsonFloat(t)
	case float32:
		return jsonFloat(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = markFloats(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = markFloats(e)
		}
		return out
	case []float64:
		out := make([]jsonFloat, len(t))
		for i, e := range t {
			out[i] = jsonFloat(e)
		}
		return out
	}
	return v
}

// normalizeNumbers turns json.Number into int where it fits, else float64.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		f, _ := t.Float64()
		return f
	case []any:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalizeNumbers(t[k])
		}
		return t
	}
	return v
}
