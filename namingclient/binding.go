package namingclient

// NameClassPair is one element of a list() response: a bound name and
// the class name of its bound object, without the object itself
// (spec.md §6 "Naming list / listBindings response: a single object
// that is a list of NameClassPair / Binding elements").
type NameClassPair struct {
	Name      string
	ClassName string
}

// Binding is one element of a listBindings() response: a bound name
// together with its deserialized value.
type Binding struct {
	Name  string
	Value any
}
