package packeteer

import (
	"strings"
	"sync"
)

// SchemeFactory constructs a connector implementation for a parsed URL,
// the resolved type, and the resolved options - spec §4.4 step 3.
type SchemeFactory func(url URL, typ ConnectorType, opts ConnectorOptions) (connectorImpl, error)

// SchemeInfo is what [Registry.AddScheme] registers for one URL scheme.
type SchemeInfo struct {
	Type           ConnectorType
	DefaultOptions ConnectorOptions
	AllowedOptions ConnectorOptions
	Factory        SchemeFactory
}

// ParameterMapper maps one query parameter's value to option bits. found
// is false when the key was entirely absent from the query (as opposed
// to present with an empty value).
type ParameterMapper func(value string, found bool) ConnectorOptions

// Registry is the process-wide, append-only mapping from scheme name to
// implementation factory, and from query-parameter name to options
// mapper - spec §4.5. The zero Registry is usable; [DefaultRegistry] is
// pre-populated with the built-in schemes and parameters.
type Registry struct {
	mu         sync.RWMutex
	schemes    map[string]SchemeInfo
	parameters map[string]ParameterMapper
}

// NewRegistry constructs an empty Registry (no built-in schemes).
func NewRegistry() *Registry {
	return &Registry{
		schemes:    make(map[string]SchemeInfo),
		parameters: make(map[string]ParameterMapper),
	}
}

// AddScheme registers name -> info. Fails with *invalid-option* if name
// is empty, info.Type is [TypeUnspec], info.Factory is nil, or name is
// already registered - spec §4.5.
func (r *Registry) AddScheme(name string, info SchemeInfo) error {
	name = strings.ToLower(name)
	if name == "" {
		return NewError(InvalidOption, "scheme name must not be empty")
	}
	if info.Type == TypeUnspec {
		return NewError(InvalidOption, "scheme type must not be TypeUnspec")
	}
	if info.Factory == nil {
		return NewError(InvalidOption, "scheme factory must not be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.schemes == nil {
		r.schemes = make(map[string]SchemeInfo)
	}
	if _, exists := r.schemes[name]; exists {
		return NewError(InvalidOption, "scheme already registered: "+name)
	}
	r.schemes[name] = info
	return nil
}

// AddParameter registers a query-parameter mapper. Fails with
// *invalid-option* if name is already registered or mapper is nil.
func (r *Registry) AddParameter(name string, mapper ParameterMapper) error {
	name = strings.ToLower(name)
	if mapper == nil {
		return NewError(InvalidOption, "parameter mapper must not be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.parameters == nil {
		r.parameters = make(map[string]ParameterMapper)
	}
	if _, exists := r.parameters[name]; exists {
		return NewError(InvalidOption, "parameter already registered: "+name)
	}
	r.parameters[name] = mapper
	return nil
}

// Lookup returns the SchemeInfo for name, if registered.
func (r *Registry) Lookup(name string) (SchemeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.schemes[strings.ToLower(name)]
	return info, ok
}

// OptionsFromQuery folds every recognized parameter's mapper over query,
// OR-ing the results with the always-applied default NON_BLOCKING.
// Unrecognized parameters are ignored silently - spec §4.5.
func (r *Registry) OptionsFromQuery(u URL) ConnectorOptions {
	r.mu.RLock()
	defer r.mu.RUnlock()
	opts := OptNonBlocking
	for _, key := range u.sortedQueryKeys() {
		mapper, ok := r.parameters[key]
		if !ok {
			continue
		}
		value, found := u.Get(key)
		opts |= mapper(value, found)
	}
	return opts
}

// resolveOptions implements spec §4.4 step 2: compose the scheme's
// default options, then apply query parameter mappers, ensure the result
// is a subset of AllowedOptions, and ensure exactly one of
// BLOCKING/NON_BLOCKING - otherwise *invalid-option*.
func (r *Registry) resolveOptions(info SchemeInfo, u URL) (ConnectorOptions, error) {
	opts := info.DefaultOptions | r.OptionsFromQuery(u)
	if opts&^info.AllowedOptions != 0 {
		return 0, NewError(InvalidOption, "options not allowed for scheme")
	}
	blocking := opts&OptBlocking != 0
	nonBlocking := opts&OptNonBlocking != 0
	if blocking == nonBlocking {
		return 0, NewError(InvalidOption, "exactly one of BLOCKING/NON_BLOCKING must be set")
	}
	return opts, nil
}

// NewConnector implements spec §4.4's construction sequence: parse url,
// look up the scheme, resolve options, invoke the factory.
func (r *Registry) NewConnector(rawurl string) (Connector, error) {
	u, err := ParseURL(rawurl)
	if err != nil {
		return Connector{}, err
	}
	info, ok := r.Lookup(u.Scheme)
	if !ok {
		return Connector{}, NewError(InvalidOption, "unknown scheme: "+u.Scheme)
	}
	opts, err := r.resolveOptions(info, u)
	if err != nil {
		return Connector{}, err
	}
	impl, err := info.Factory(u, info.Type, opts)
	if err != nil {
		return Connector{}, err
	}
	return newConnector(impl), nil
}

// blockingParameterMapper implements the built-in "blocking" query
// parameter: true -> BLOCKING, false -> NON_BLOCKING.
func blockingParameterMapper(value string, found bool) ConnectorOptions {
	if !found {
		return OptDefault
	}
	if value == "1" {
		return OptBlocking
	}
	return OptNonBlocking
}

// behaviourParameterMapper implements the built-in "behaviour" query
// parameter: "stream" -> STREAM, "datagram" -> DATAGRAM.
func behaviourParameterMapper(value string, found bool) ConnectorOptions {
	if !found {
		return OptDefault
	}
	switch strings.ToLower(value) {
	case "stream":
		return OptStream
	case "datagram":
		return OptDatagram
	default:
		return OptDefault
	}
}

var defaultRegistryOnce sync.Once
var defaultRegistry *Registry

// DefaultRegistry returns the process-wide registry pre-populated with
// the built-in schemes (tcp/tcp4/tcp6, udp/udp4/udp6, local, pipe, fifo,
// anon) and the built-in "blocking"/"behaviour" parameters - spec §4.5,
// §6.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		_ = defaultRegistry.AddParameter("blocking", blockingParameterMapper)
		_ = defaultRegistry.AddParameter("behaviour", behaviourParameterMapper)
		registerBuiltinSchemes(defaultRegistry)
	})
	return defaultRegistry
}
