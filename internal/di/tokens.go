package di

import "fmt"

// Token names a service and carries its type.
type Token[T any] struct {
	key string
}

// NewToken creates a token. Keys are conventionally "<context>:<service>".
func NewToken[T any](key string) Token[T] {
	return Token[T]{key: key}
}

func (t Token[T]) Key() string {
	return t.key
}

// RegisterToken registers a typed factory under the token.
func RegisterToken[T any](c Container, token Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(token.key, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves a typed service. It panics on a type mismatch.
func GetToken[T any](sr ServiceRegistry, token Token[T]) T {
	v := sr.Get(token.key)
	typed, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q is %T, not the requested type", token.key, v))
	}
	return typed
}
