// Package pdf reads PDF files and rasterizes their pages
package pdf

import (
	"fmt"
	"strconv"
	"strings"
)

// ObjectType represents the type of a PDF object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBoolean
	ObjInteger
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDictionary
	ObjStream
	ObjReference
)

// Object represents a PDF object
type Object interface {
	Type() ObjectType
	String() string
}

// Null represents a PDF null object
type Null struct{}

func (Null) Type() ObjectType { return ObjNull }
func (Null) String() string   { return "null" }

// Boolean represents a PDF boolean object
type Boolean bool

func (Boolean) Type() ObjectType { return ObjBoolean }
func (b Boolean) String() string { return strconv.FormatBool(bool(b)) }

// Integer represents a PDF integer object
type Integer int64

func (Integer) Type() ObjectType { return ObjInteger }
func (i Integer) String() string { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF real number object
type Real float64

func (Real) Type() ObjectType { return ObjReal }
func (r Real) String() string { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String represents a PDF string object
type String struct {
	Value []byte
	IsHex bool
}

func (String) Type() ObjectType { return ObjString }
func (s String) String() string {
	if s.IsHex {
		return fmt.Sprintf("<%X>", s.Value)
	}
	return "(" + string(s.Value) + ")"
}

// Name represents a PDF name object
type Name string

func (Name) Type() ObjectType { return ObjName }
func (n Name) String() string { return "/" + string(n) }

// Array represents a PDF array object
type Array []Object

func (Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	parts := make([]string, len(a))
	for i, obj := range a {
		parts[i] = obj.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Floats converts every numeric element; ok is false if any element is not a number
func (a Array) Floats() ([]float64, bool) {
	out := make([]float64, len(a))
	for i, obj := range a {
		v, ok := toFloat(obj)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Dictionary represents a PDF dictionary object
type Dictionary map[Name]Object

func (Dictionary) Type() ObjectType { return ObjDictionary }
func (d Dictionary) String() string {
	parts := make([]string, 0, len(d))
	for k, v := range d {
		parts = append(parts, k.String()+" "+v.String())
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Get returns the raw value for a key without resolving references
func (d Dictionary) Get(key string) Object {
	return d[Name(key)]
}

// Stream represents a PDF stream object
type Stream struct {
	Dictionary Dictionary
	Data       []byte
}

func (Stream) Type() ObjectType { return ObjStream }
func (s Stream) String() string {
	return s.Dictionary.String() + " stream...endstream"
}

// Reference represents a PDF indirect object reference
type Reference struct {
	ObjectNumber     int
	GenerationNumber int
}

func (Reference) Type() ObjectType { return ObjReference }
func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.ObjectNumber, r.GenerationNumber)
}

// Keyword is a bare token such as a content stream operator
type Keyword string

func (Keyword) Type() ObjectType { return ObjNull }
func (k Keyword) String() string { return string(k) }

func toFloat(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

func toInt(obj Object) (int, bool) {
	switch v := obj.(type) {
	case Integer:
		return int(v), true
	case Real:
		return int(v), true
	}
	return 0, false
}
