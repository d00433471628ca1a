package schematic

import (
	"fmt"

	"github.com/Azhovan/schematic/merge"
)

// MergeManager folds partial layers into one, field by field. The context
// is passed to every merge strategy.
type MergeManager struct {
	context any
}

// NewMergeManager returns a MergeManager sharing context with strategies.
func NewMergeManager(context any) *MergeManager {
	return &MergeManager{context: context}
}

// MergeField combines the previous and next value of one field:
//   - both absent: absent
//   - one present: that one
//   - both present: the field strategy decides (replace by default) and
//     may discard both
func (m *MergeManager) MergeField(f *Field, prev any, prevOK bool, next any, nextOK bool) (any, bool, error) {
	switch {
	case !nextOK:
		return prev, prevOK, nil
	case !prevOK:
		return next, true, nil
	}

	strategy := f.Merge
	if strategy == nil {
		strategy = merge.Replace
	}
	merged, err := strategy(prev, next, m.context)
	if err != nil {
		return nil, false, err
	}
	if merged == nil {
		return nil, false, nil
	}
	merged, err = coerceField(f, merged)
	if err != nil {
		return nil, false, fmt.Errorf("strategy returned an invalid value: %w", err)
	}
	return merged, true, nil
}

// Merge folds next into prev and returns the result. prev is modified in
// place; next is left untouched. Either may be nil.
func (m *MergeManager) Merge(prev, next *Partial) (*Partial, error) {
	return m.merge(prev, next, nil)
}

// MergeAll folds layers from left to right; later layers take precedence.
// The layers are not modified.
func (m *MergeManager) MergeAll(layers ...*Partial) (*Partial, error) {
	var acc *Partial
	for _, layer := range layers {
		var err error
		if acc, err = m.merge(acc, layer, nil); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func (m *MergeManager) merge(prev, next *Partial, path Path) (*Partial, error) {
	if next == nil {
		return prev, nil
	}
	if prev == nil {
		return next.Clone(), nil
	}
	if prev.desc != next.desc {
		return nil, &MergeError{Path: path, Err: fmt.Errorf("cannot merge %s into %s", next.desc.Name, prev.desc.Name)}
	}

	for _, f := range prev.desc.Fields {
		nv, nextOK := next.values[f.Key]
		if !nextOK {
			continue
		}
		pv, prevOK := prev.values[f.Key]
		fieldPath := path.JoinKey(f.Key)

		// Nested structs merge recursively unless the field brings its own
		// strategy.
		if prevOK && (f.Kind == FieldNested || (f.Kind == FieldNestedPtr && f.Merge == nil)) {
			if _, err := m.merge(pv.(*Partial), nv.(*Partial), fieldPath); err != nil {
				return nil, err
			}
			continue
		}

		merged, ok, err := m.MergeField(f, pv, prevOK, cloneValue(nv), true)
		if err != nil {
			return nil, &MergeError{Path: fieldPath, Err: err}
		}
		if !ok {
			delete(prev.values, f.Key)
			continue
		}
		prev.values[f.Key] = merged
	}

	return prev, nil
}
