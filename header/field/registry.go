package field

import (
	"strings"
	"sync"

	"github.com/araddon/dateparse"
	"github.com/zostay/go-addr/pkg/addr"
)

// ParseFunc turns a field's unfolded body into a structured value. Parsers
// are looked up by lowercased field name; an unregistered name has no
// structured form, and Structured reports ok == false for it.
type ParseFunc func(body string) (interface{}, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]ParseFunc{}
)

// RegisterParser installs fn as the structured parser for header fields
// named name (case-insensitive). This is the delegating registry the
// design notes describe: the core state machine never calls into it, it
// exists so callers can opt into structured field values without the
// stream depending on any particular grammar.
func RegisterParser(name string, fn ParseFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = fn
}

// Structured looks up and runs the registered parser for f, returning
// (nil, false) if none is registered.
func Structured(f *Field) (interface{}, bool, error) {
	registryMu.RLock()
	fn, ok := registry[strings.ToLower(f.Name())]
	registryMu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	v, err := fn(f.Unfolded())
	return v, true, err
}

// RegisterDateParser registers a lenient date parser for name, backed by
// github.com/araddon/dateparse, which tolerates the many non-conformant
// Date header formats seen in the wild.
func RegisterDateParser(name string) {
	RegisterParser(name, func(body string) (interface{}, error) {
		return dateparse.ParseAny(strings.TrimSpace(body))
	})
}

// RegisterAddressParser registers an RFC 5322 address-list parser for
// name, backed by github.com/zostay/go-addr.
func RegisterAddressParser(name string) {
	RegisterParser(name, func(body string) (interface{}, error) {
		return addr.ParseEmailAddressList(body)
	})
}

// init wires the conventional address and date headers by default, the
// way the teacher's Header type resolves them internally; callers are
// free to RegisterParser over these or add more.
func init() {
	RegisterDateParser("Date")
	for _, name := range []string{"From", "To", "Cc", "Bcc", "Reply-To", "Sender"} {
		RegisterAddressParser(name)
	}
}
