package regscan

import "fmt"

// Tag identifies the pattern behind a match. Every Tag carries the pattern's
// ordinal index; patterns built with WithTag also carry their label.
type Tag struct {
	index    int
	label    any
	explicit bool
}

// Index returns the position of the pattern in the list passed to Compile.
func (t Tag) Index() int {
	return t.index
}

// Label returns the explicit tag and true, or nil and false for untagged patterns.
func (t Tag) Label() (any, bool) {
	return t.label, t.explicit
}

// Explicit reports whether the pattern was given a tag.
func (t Tag) Explicit() bool {
	return t.explicit
}

// Value returns the label of a tagged pattern and the int index otherwise.
// An int label and an equal index give the same Value; use Explicit or String
// to tell them apart.
func (t Tag) Value() any {
	if t.explicit {
		return t.label
	}
	return t.index
}

// String returns the label, or #N for an untagged pattern at index N.
func (t Tag) String() string {
	if t.explicit {
		return fmt.Sprint(t.label)
	}
	return fmt.Sprintf("#%d", t.index)
}

// tagTable resolves engine indexes to tags.
type tagTable []Tag

func newTagTable(patterns []Pattern) tagTable {
	tags := make(tagTable, len(patterns))
	for i, p := range patterns {
		tags[i] = Tag{index: i, label: p.tag, explicit: p.tagged}
	}
	return tags
}

func (t tagTable) lookup(index int) Tag {
	if index < 0 || index >= len(t) {
		return Tag{index: index}
	}
	return t[index]
}
