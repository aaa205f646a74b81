// Package register has a registration method that an Executor can use to
// register itself under a name. This is useful to allow gathering of stats
// data for OTEL enabled applications.
package register

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Named is implemented by anything that can live in the registry. The exec
// package's Executor satisfies it.
type Named interface {
	// Name returns the registered name.
	Name() string
}

var registry = map[string]Named{}
var mu = sync.RWMutex{}

// Register registers a name for an executor in the registry.
func Register(e Named) error {
	mu.Lock()
	defer mu.Unlock()

	name := e.Name()
	if name == "" {
		return nil
	}

	if _, ok := registry[name]; ok {
		return fmt.Errorf("name already taken")
	}

	registry[name] = e
	return nil
}

// Unregister unregisters the executor from the registry.
func Unregister(e Named) {
	mu.Lock()
	delete(registry, e.Name())
	mu.Unlock()
}

var numOrHyphen = regexp.MustCompile(`[0-9-\s]`)

// ValidateBaseName returns an error if the name contains numbers or hyphens.
func ValidateBaseName(name string) error {
	if numOrHyphen.MatchString(name) {
		return fmt.Errorf("name cannot contain numbers or hyphens")
	}
	return nil
}

// NewName takes the base name of the executor and returns a unique name by
// trying the next number until it finds a unique name.
func NewName(name string) string {
	if !numOrHyphen.MatchString(name) {
		return name + "-1"
	}

	sp := strings.SplitAfter(name, "-")
	n, err := strconv.Atoi(sp[1])
	if err != nil {
		panic(fmt.Sprintf("register is broken, name %s is invalid", name))
	}

	n++
	return fmt.Sprintf("%s-%d", sp[0], n)
}

// Executors returns all executors registered by this package. Order is
// non-deterministic.
func Executors() chan Named {
	ch := make(chan Named, 1)
	go func() {
		defer close(ch)
		mu.RLock()
		defer mu.RUnlock()
		for _, e := range registry {
			ch <- e
		}
	}()
	return ch
}
