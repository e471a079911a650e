// Package adapt builds user types from document values.
//
// # Conversions
//
// Every document value belongs to one primitive category (see package value).
// A user type becomes decodable by registering one conversion from a source
// type:
//
//	type StringHolder struct{ S string }
//
//	var _ = adapt.Register(adapt.Default, func(s string) StringHolder {
//	    return StringHolder{S: s}
//	})
//
// Registration returns an Adapter whose From builds the type from a source
// value in hand and whose Decode builds it straight from a document value.
// Both go through the same function.
//
// Sources and the category they read:
//
//	string          string
//	int64           integer
//	float64         float
//	bool            boolean
//	value.Datetime  datetime
//	[]E             array (homogeneous, elements decoded as E)
//	value.Table     table
//	value.Value     any category
//
// Any other source type is decoded through the registry first, so
// conversions chain: if Deserializable is registered from StringHolder and
// StringHolder from string, Deserializable decodes from a document string
// with no further declaration.
//
// RegisterE accepts conversions that can fail. Their errors surface as
// constructor failures.
//
// # Records
//
// Structs decode from tables field by field. The document key defaults to
// the snake_case field name and can be set with a struct tag:
//
//	type Global struct {
//	    Name  string `kat:"name"`
//	    Port  Port   `kat:"port,from=integer"` // force the integer conversion
//	    Notes string `kat:",optional"`        // may be absent
//	}
//
// # Errors
//
// All failures are *Error values carrying the document path of the failing
// value. Use IsTypeMismatch and IsConstructorFailure to classify them.
package adapt
