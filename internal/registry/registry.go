// Package registry implements the compile-time handler registry (spec
// §4.6/C6): a process-wide collection of (name, handler) pairs that the
// gateway (C7) walks at boot to build its route table. Grounded on the
// teacher's pkg/api route-table construction, but using an explicit
// Register call (the spec's strategy (a)) rather than a linker-section
// trick, composed with the generated register_all() the compiler emits
// (strategy (c)) — not portable across Go's build modes otherwise.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lattice-graph/latticedb/internal/storage"
)

// Request carries one handler invocation's decoded input: the path
// parameters the gateway's router extracted and the raw request body.
type Request struct {
	Params map[string]string
	Body   []byte
	Store  *storage.GraphStore
}

// Response is the mutable output buffer a handler writes to, mirroring the
// spec's "(handler-input, &mut response) → Result<(), RouterError>" ABI.
type Response struct {
	StatusCode int
	Body       []byte
}

// HandlerFunc is the handler ABI (spec §6): "(handler-input, &mut
// response) -> Result<(), RouterError>" translated to Go's explicit error
// return.
type HandlerFunc func(req *Request, resp *Response) error

// entry pairs a registered name with its handler, the static descriptor
// {name: string} the spec names.
type entry struct {
	name    string
	handler HandlerFunc
}

var (
	mu      sync.Mutex
	entries []entry
	seen    = map[string]bool{}
)

// Register inserts one (name, handler) pair. Per the spec's registration
// contract this is "write-once at static-initialization time; no
// duplicates are checked (caller discipline)" — Register panics only on a
// nil handler, a programmer error rather than a runtime condition a
// caller can recover from.
func Register(name string, handler HandlerFunc) {
	if handler == nil {
		panic(fmt.Sprintf("registry: Register(%q, nil)", name))
	}
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, entry{name: name, handler: handler})
	seen[name] = true
}

// Registered reports whether name has been registered, used by tests.
func Registered(name string) bool {
	mu.Lock()
	defer mu.Unlock()
	return seen[name]
}

// Handlers returns a snapshot map of every registered name to its handler
// for the gateway's route-table build at boot. The result is a Go map, so
// its iteration order is unspecified; when a name was registered more than
// once, the last registration wins.
func Handlers() map[string]HandlerFunc {
	mu.Lock()
	defer mu.Unlock()
	names := make([]string, 0, len(entries))
	byName := make(map[string]HandlerFunc, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
		byName[e.name] = e.handler
	}
	sort.Strings(names)
	out := make(map[string]HandlerFunc, len(names))
	for _, n := range names {
		out[n] = byName[n]
	}
	return out
}

// reset clears the registry, used only by tests to avoid cross-test
// pollution of the process-wide registry.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	entries = nil
	seen = map[string]bool{}
}
