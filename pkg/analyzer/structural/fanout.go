package structural

import (
	"sort"
	"strings"

	"github.com/panbanda/decay/pkg/model"
)

// primitiveTypes never count toward fan-out.
var primitiveTypes = map[string]bool{
	"": true, "void": true, "boolean": true, "bool": true, "byte": true,
	"char": true, "short": true, "int": true, "long": true, "float": true,
	"double": true, "string": true, "String": true, "Object": true,
	"int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"uintptr": true, "float32": true, "float64": true, "complex64": true,
	"complex128": true, "rune": true, "error": true, "any": true,
	"interface{}": true, "map": true, "chan": true, "func": true,
	"str": true, "None": true, "list": true, "dict": true, "tuple": true, "set": true,
	"number": true, "undefined": true, "null": true, "unknown": true, "never": true,
	"var": true, "auto": true, "self": true, "Self": true, "this": true,
	"usize": true, "isize": true, "u8": true, "u16": true, "u32": true, "u64": true,
	"i8": true, "i16": true, "i32": true, "i64": true, "f32": true, "f64": true,
}

// stdlibPrefixes drops standard-library types so fan-out measures domain
// coupling.
var stdlibPrefixes = []string{
	"java.", "javax.", "jdk.", "sun.", "kotlin.", "scala.",
	"System.", "Microsoft.",
	"std::", "core::", "alloc::",
	"typing.", "collections.", "builtins.",
	"fmt.", "context.", "io.", "os.", "strings.", "strconv.", "time.",
	"sync.", "errors.", "sort.", "bytes.", "net.", "http.", "json.",
}

// stdlibSimpleNames covers unqualified names that front ends report for
// ubiquitous library types.
var stdlibSimpleNames = map[string]bool{
	"List": true, "Map": true, "Set": true, "Optional": true, "Integer": true,
	"Long": true, "Double": true, "Boolean": true, "Collection": true,
	"Iterable": true, "Stream": true, "Exception": true, "RuntimeException": true,
	"StringBuilder": true, "Array": true, "Promise": true, "Record": true,
	"Vec": true, "Option": true, "Result": true, "Box": true, "HashMap": true,
	"ArrayList": true, "HashSet": true, "Context": true, "Duration": true, "Time": true,
}

// IsStdlibType reports whether a referenced type is primitive or library
// noise.
func IsStdlibType(name string) bool {
	name = strings.TrimLeft(strings.TrimSpace(name), "*&[]")
	if primitiveTypes[name] {
		return true
	}
	for _, p := range stdlibPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	simple := model.SimpleName(name)
	return primitiveTypes[simple] || stdlibSimpleNames[simple]
}

// FanOut returns the number and the sorted names of distinct domain types
// the unit references through fields, method signatures and locals, minus
// its own type.
func FanOut(u *model.Unit) (int, []string) {
	self := u.SimpleName()
	set := make(map[string]bool)
	add := func(types ...string) {
		for _, t := range types {
			if IsStdlibType(t) {
				continue
			}
			simple := model.SimpleName(t)
			if simple == "" || simple == self {
				continue
			}
			set[simple] = true
		}
	}
	for _, f := range u.Fields {
		add(f.Type)
	}
	for _, m := range u.Methods {
		add(m.Params...)
		add(m.Returns...)
		add(m.Locals...)
	}
	types := make([]string, 0, len(set))
	for t := range set {
		types = append(types, t)
	}
	sort.Strings(types)
	return len(types), types
}
