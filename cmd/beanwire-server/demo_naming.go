package main

import (
	"context"
	"strings"
	"sync"

	"github.com/beanwire/beanwire/namingserver"
	"github.com/beanwire/beanwire/protoerr"
)

// demoNamingDispatcher is a minimal in-memory namingserver.Dispatcher:
// a flat map keyed by the joined name string, plus a set of names
// marked as sub-contexts. It exists to give the serve subcommand a
// directory to route against; a production embedder supplies its own
// naming store here.
type demoNamingDispatcher struct {
	mu         sync.Mutex
	contexts   map[string]bool
	bindings   map[string]any
	classNames map[string]string
}

func newDemoNamingDispatcher() *demoNamingDispatcher {
	return &demoNamingDispatcher{
		contexts:   map[string]bool{"": true},
		bindings:   map[string]any{},
		classNames: map[string]string{},
	}
}

func (d *demoNamingDispatcher) Lookup(_ context.Context, name namingserver.Name, _ bool) (any, bool, error) {
	key := name.String()
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.contexts[key] {
		return nil, true, nil
	}
	if v, ok := d.bindings[key]; ok {
		return v, false, nil
	}
	return nil, false, protoerr.New(protoerr.KindNameNotFound, "no such name "+key)
}

func (d *demoNamingDispatcher) List(_ context.Context, name namingserver.Name) ([]namingserver.NameClassPair, error) {
	prefix := name.String()
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []namingserver.NameClassPair
	for child := range d.childrenOf(prefix) {
		class := d.classNames[joinName(prefix, child)]
		if class == "" {
			class = "java.lang.Object"
		}
		out = append(out, namingserver.NameClassPair{Name: child, ClassName: class})
	}
	return out, nil
}

func (d *demoNamingDispatcher) ListBindings(_ context.Context, name namingserver.Name) ([]namingserver.Binding, error) {
	prefix := name.String()
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []namingserver.Binding
	for child := range d.childrenOf(prefix) {
		out = append(out, namingserver.Binding{Name: child, Value: d.bindings[joinName(prefix, child)]})
	}
	return out, nil
}

// childrenOf returns the immediate child path components bound or
// contextualized directly under prefix.
func (d *demoNamingDispatcher) childrenOf(prefix string) map[string]bool {
	children := map[string]bool{}
	for key := range d.bindings {
		if child, ok := immediateChild(prefix, key); ok {
			children[child] = true
		}
	}
	for key := range d.contexts {
		if child, ok := immediateChild(prefix, key); ok {
			children[child] = true
		}
	}
	return children
}

func immediateChild(prefix, key string) (string, bool) {
	var rest string
	if prefix == "" {
		rest = key
	} else {
		if !strings.HasPrefix(key, prefix+"/") {
			return "", false
		}
		rest = key[len(prefix)+1:]
	}
	if rest == "" {
		return "", false
	}
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx], true
	}
	return rest, true
}

func joinName(prefix, child string) string {
	if prefix == "" {
		return child
	}
	return prefix + "/" + child
}

func (d *demoNamingDispatcher) Bind(_ context.Context, name namingserver.Name, value any, rebind bool) error {
	key := name.String()
	d.mu.Lock()
	defer d.mu.Unlock()
	if !rebind {
		if _, ok := d.bindings[key]; ok {
			return protoerr.New(protoerr.KindGenericApplication, "already bound: "+key)
		}
	}
	d.bindings[key] = value
	return nil
}

func (d *demoNamingDispatcher) Unbind(_ context.Context, name namingserver.Name) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.bindings, name.String())
	return nil
}

func (d *demoNamingDispatcher) Rename(_ context.Context, from, to namingserver.Name) error {
	fromKey, toKey := from.String(), to.String()
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.bindings[fromKey]
	if !ok {
		return protoerr.New(protoerr.KindNameNotFound, "no such name "+fromKey)
	}
	delete(d.bindings, fromKey)
	d.bindings[toKey] = v
	return nil
}

func (d *demoNamingDispatcher) CreateSubcontext(_ context.Context, name namingserver.Name) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contexts[name.String()] = true
	return nil
}

func (d *demoNamingDispatcher) DestroySubcontext(_ context.Context, name namingserver.Name) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.contexts, name.String())
	return nil
}
