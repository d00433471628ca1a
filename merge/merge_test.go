package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBasicStrategies(t *testing.T) {
	v, err := Replace("a", "b", nil)
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	v, err = Preserve("a", "b", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	v, err = Discard("a", "b", nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestAppendAndPrepend(t *testing.T) {
	v, err := Append([]string{"a", "b"}, []string{"c"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, v)

	v, err = Prepend([]string{"a", "b"}, []string{"c"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, v)

	_, err = Append([]string{"a"}, []int{1}, nil)
	assert.Error(t, err)

	_, err = Append("a", "b", nil)
	assert.Error(t, err)
}

func TestAppend_DoesNotAliasInputs(t *testing.T) {
	prev := make([]int, 2, 10)
	next := []int{3}

	v, err := Append(prev, next, nil)
	require.NoError(t, err)

	out := v.([]int)
	out[0] = 99
	assert.Equal(t, 0, prev[0])
}

func TestMap_NextWinsPerKey(t *testing.T) {
	prev := map[string]int{"a": 1, "b": 2}
	next := map[string]int{"b": 20, "c": 30}

	v, err := Map(prev, next, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 1, "b": 20, "c": 30}, v)

	// Inputs are left untouched.
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, prev)
}

func TestSet(t *testing.T) {
	v, err := Set(map[string]struct{}{"a": {}}, map[string]struct{}{"b": {}, "a": {}}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"a": {}, "b": {}}, v)

	v, err = Set([]string{"a", "b"}, []string{"b", "c", "a"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, v)

	_, err = Set([][]int{{1}}, [][]int{{2}}, nil)
	assert.Error(t, err)
}

func TestOf(t *testing.T) {
	sum := Of(func(prev, next int, context any) (int, bool, error) {
		return prev + next, true, nil
	})

	v, err := sum(1, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = sum("1", 2, nil)
	assert.Error(t, err)

	drop := Of(func(prev, next int, context any) (int, bool, error) {
		return 0, false, nil
	})
	v, err = drop(1, 2, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestOf_ReceivesContext(t *testing.T) {
	type ctx struct{ scale int }

	scaled := Of(func(prev, next int, context any) (int, bool, error) {
		return next * context.(ctx).scale, true, nil
	})

	v, err := scaled(1, 2, ctx{scale: 10})
	require.NoError(t, err)
	assert.Equal(t, 20, v)
}

func TestLookupAndRegister(t *testing.T) {
	fn, ok := Lookup("append")
	require.True(t, ok)
	v, err := fn([]int{1}, []int{2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, v)

	_, ok = Lookup("nope")
	assert.False(t, ok)

	Register("max", Of(func(prev, next int, _ any) (int, bool, error) {
		if prev > next {
			return prev, true, nil
		}
		return next, true, nil
	}))
	defer func() {
		namedMu.Lock()
		delete(named, "max")
		namedMu.Unlock()
	}()

	fn, ok = Lookup("max")
	require.True(t, ok)
	v, err = fn(7, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Contains(t, Names(), "max")
}

// Appending layer by layer yields the same list as one concatenation.
func TestAppend_AssociativeAcrossChains(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		layers := rapid.SliceOfN(rapid.SliceOf(rapid.Int()), 1, 6).Draw(t, "layers")

		var folded any = layers[0]
		var expected []int
		expected = append(expected, layers[0]...)
		for _, layer := range layers[1:] {
			var err error
			folded, err = Append(folded, layer, nil)
			if err != nil {
				t.Fatalf("append: %v", err)
			}
			expected = append(expected, layer...)
		}

		got := folded.([]int)
		if len(got) != len(expected) {
			t.Fatalf("length mismatch: got %d, want %d", len(got), len(expected))
		}
		for i := range got {
			if got[i] != expected[i] {
				t.Fatalf("index %d: got %d, want %d", i, got[i], expected[i])
			}
		}
	})
}
