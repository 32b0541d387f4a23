package gqlselect

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewFragmentRegistry()
	registry.Register(NewFragmentDefinition("UserFields", "User", SelectionMap{"id": true}))

	def, ok := registry.Get("UserFields")
	require.True(t, ok)
	assert.Equal(t, 1, def.Metadata.UsageCount)
	assert.False(t, def.Metadata.LastUsed.IsZero())

	// every successful read is a use
	_, _ = registry.Get("UserFields")
	def, _ = registry.Get("UserFields")
	assert.Equal(t, 3, def.Metadata.UsageCount)

	_, ok = registry.Get("Nope")
	assert.False(t, ok)
}

func TestRegistryRegisterOverwritesByName(t *testing.T) {
	registry := NewFragmentRegistry()
	registry.Register(NewFragmentDefinition("F", "User", SelectionMap{"id": true}))
	registry.Register(NewFragmentDefinition("F", "User", SelectionMap{"email": true}))

	def, ok := registry.Get("F")
	require.True(t, ok)
	assert.Equal(t, SelectionMap{"email": true}, def.Selections)
	// registration does not count as a use
	assert.Equal(t, 1, def.Metadata.UsageCount)
}

func TestRegistryListOrderAndFilter(t *testing.T) {
	registry := NewFragmentRegistry()
	registry.Register(NewFragmentDefinition("A", "User", SelectionMap{"id": true}))
	registry.Register(NewFragmentDefinition("B", "Post", SelectionMap{"id": true}))
	registry.Register(NewFragmentDefinition("C", "User", SelectionMap{"id": true}))

	all := registry.List("")
	require.Len(t, all, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{all[0].Name, all[1].Name, all[2].Name})

	users := registry.List("User")
	require.Len(t, users, 2)
	assert.Equal(t, "A", users[0].Name)
	assert.Equal(t, "C", users[1].Name)
}

func TestRegistryUnregisterAndClear(t *testing.T) {
	registry := NewFragmentRegistry()
	registry.Register(NewFragmentDefinition("A", "User", SelectionMap{"id": true}))
	registry.Register(NewFragmentDefinition("B", "User", SelectionMap{"id": true}))

	assert.True(t, registry.Unregister("A"))
	assert.False(t, registry.Unregister("A"))
	assert.Len(t, registry.List(""), 1)

	registry.Clear()
	assert.Empty(t, registry.List(""))
	assert.Equal(t, 0, registry.UsageStats().Count)
}

func TestRegistryUsageStats(t *testing.T) {
	registry := NewFragmentRegistry()
	for i := 0; i < 7; i++ {
		name := fmt.Sprintf("F%d", i)
		registry.Register(NewFragmentDefinition(name, "User", SelectionMap{"id": true}))
		// F0 used 0 times, F1 once, ...
		for j := 0; j < i; j++ {
			_, _ = registry.Get(name)
		}
	}

	stats := registry.UsageStats()
	assert.Equal(t, 7, stats.Count)
	assert.Greater(t, stats.TotalSize, 0)
	assert.Greater(t, stats.AverageComplexity, 0.0)
	assert.Equal(t, []string{"F6", "F5", "F4", "F3", "F2"}, stats.MostUsed)
	assert.Equal(t, []string{"F0", "F1", "F2", "F3", "F4"}, stats.LeastUsed)
}

func TestRegistryRegisterFragmentAST(t *testing.T) {
	registry := NewFragmentRegistry()
	doc := parseQuery(t, `
		fragment UserFields on User { id profile { avatar } ...ContactFields }
		fragment ContactFields on User { email }
	`)

	def, err := registry.RegisterFragmentAST(context.Background(), doc.Fragments[0], doc.Fragments)
	require.NoError(t, err)
	assert.Equal(t, "UserFields", def.Name)
	assert.Equal(t, "User", def.Type)
	assert.Equal(t, []string{"ContactFields"}, def.Metadata.Dependencies)
	assertJSONEqual(t, `
	{
		"id": true,
		"email": true,
		"profile": { "select": { "avatar": true } }
	}`, def.Selections)

	stored, ok := registry.Get("UserFields")
	require.True(t, ok)
	assert.Greater(t, stored.Metadata.Size, 0)
	assert.Greater(t, stored.Metadata.Complexity, 0)
}

func TestRegistryGetWithOverride(t *testing.T) {
	registry := NewFragmentRegistry()
	registry.Register(NewFragmentDefinition("UserFields", "User", SelectionMap{
		"id":     true,
		"email":  true,
		"secret": true,
	}))

	override := &FragmentOverride{
		Fragment:      "UserFields",
		ExcludeFields: []string{"secret"},
		IncludeFields: []string{"name"},
	}
	def, ok := registry.GetWithOverride("UserFields", override, nil)
	require.True(t, ok)
	assert.Equal(t, SelectionMap{"id": true, "email": true, "name": true}, def.Selections)

	// the canonical copy is untouched
	canonical, _ := registry.Get("UserFields")
	assert.Contains(t, canonical.Selections, "secret")
}

func TestRegistryGetWithConditionalOverride(t *testing.T) {
	registry := NewFragmentRegistry()
	registry.Register(NewFragmentDefinition("UserFields", "User", SelectionMap{"id": true, "debug": true}))

	override := &FragmentOverride{
		ExcludeFields: []string{"debug"},
		Condition: func(ctx DynamicContext) bool {
			return ctx["role"] != "admin"
		},
	}

	def, ok := registry.GetWithOverride("UserFields", override, DynamicContext{"role": "admin"})
	require.True(t, ok)
	assert.Contains(t, def.Selections, "debug")

	def, ok = registry.GetWithOverride("UserFields", override, DynamicContext{"role": "viewer"})
	require.True(t, ok)
	assert.NotContains(t, def.Selections, "debug")
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewFragmentRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("F%d", i%4)
			registry.Register(NewFragmentDefinition(name, "User", SelectionMap{"id": true}))
			_, _ = registry.Get(name)
			_ = registry.List("")
			_ = registry.UsageStats()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 4, registry.UsageStats().Count)
}
