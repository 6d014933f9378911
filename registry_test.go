package packeteer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dummyFactory(u URL, typ ConnectorType, opts ConnectorOptions) (connectorImpl, error) {
	return nil, NewError(NotImplemented, "dummy factory never actually connects")
}

func TestRegistry_AddSchemeRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	info := SchemeInfo{Type: TypeTCP, DefaultOptions: OptStream, AllowedOptions: OptStream | OptBlocking | OptNonBlocking, Factory: dummyFactory}

	require.NoError(t, r.AddScheme("widget", info))

	err := r.AddScheme("widget", info)
	require.Error(t, err)
	ae, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, InvalidOption, ae.Kind)
}

func TestRegistry_AddSchemeRejectsInvalidInfo(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.AddScheme("", SchemeInfo{Type: TypeTCP, Factory: dummyFactory}))
	assert.Error(t, r.AddScheme("x", SchemeInfo{Type: TypeUnspec, Factory: dummyFactory}))
	assert.Error(t, r.AddScheme("x", SchemeInfo{Type: TypeTCP}))
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	info := SchemeInfo{Type: TypeTCP, DefaultOptions: OptStream, AllowedOptions: OptStream | OptBlocking | OptNonBlocking, Factory: dummyFactory}
	require.NoError(t, r.AddScheme("Widget", info))

	got, ok := r.Lookup("widget")
	require.True(t, ok, "expected case-insensitive scheme lookup to succeed")
	assert.Equal(t, TypeTCP, got.Type)

	_, ok = r.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestRegistry_OptionsFromQueryBlocking(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddParameter("blocking", blockingParameterMapper))

	u, err := ParseURL("widget://host?blocking=1")
	require.NoError(t, err)
	assert.NotZero(t, r.OptionsFromQuery(u)&OptBlocking, "expected BLOCKING set from blocking=1")

	u2, err := ParseURL("widget://host")
	require.NoError(t, err)
	assert.NotZero(t, r.OptionsFromQuery(u2)&OptNonBlocking, "expected NON_BLOCKING default")
}

func TestRegistry_NewConnectorUnknownScheme(t *testing.T) {
	r := NewRegistry()
	_, err := r.NewConnector("nonexistent://host")
	require.Error(t, err)
	ae, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, InvalidOption, ae.Kind)
}

func TestRegistry_NewConnectorRejectsDisallowedOptions(t *testing.T) {
	r := NewRegistry()
	info := SchemeInfo{
		Type:           TypeTCP,
		DefaultOptions: OptStream | OptNonBlocking,
		AllowedOptions: OptStream | OptNonBlocking, // deliberately excludes OptBlocking
		Factory:        dummyFactory,
	}
	require.NoError(t, r.AddScheme("widget", info))

	_, err := r.NewConnector("widget://host?blocking=1")
	assert.Error(t, err, "expected an error when resolved options exceed AllowedOptions")
}

func TestDefaultRegistry_HasBuiltinSchemes(t *testing.T) {
	reg := DefaultRegistry()
	for _, scheme := range []string{"tcp", "udp", "anon"} {
		_, ok := reg.Lookup(scheme)
		assert.True(t, ok, "expected the default registry to know about scheme %q", scheme)
	}
}
