package crdt

import "strings"

// Text containers hold one rune per element so splices address unicode
// positions, not bytes. Formatting lives beside the runes as mark spans.

// MarkSpan is one formatting range over a text container, [Start, End).
type MarkSpan struct {
	Name  string
	Start int
	End   int
	Value Value
}

func (d *Doc) textContainer(obj OpID) (*container, error) {
	c, err := d.container(obj)
	if err != nil {
		return nil, err
	}
	if c.kind != Text {
		return nil, ErrNotText
	}
	return c, nil
}

// SpliceText deletes del runes at index, then inserts text there.
func (d *Doc) SpliceText(obj OpID, index, del int, text string) error {
	c, err := d.textContainer(obj)
	if err != nil {
		return err
	}
	if index < 0 || del < 0 || index+del > len(c.elems) {
		return ErrBadIndex
	}
	for _, s := range c.elems[index : index+del] {
		d.retire(s)
	}
	runes := []rune(text)
	fresh := make([]*slot, len(runes))
	for i, r := range runes {
		fresh[i] = &slot{vals: []entry{{id: d.nextID(), val: Str(string(r))}}}
	}
	c.elems = append(c.elems[:index], append(fresh, c.elems[index+del:]...)...)
	c.shiftMarks(index, len(runes)-del)
	return nil
}

// shiftMarks keeps spans aligned with their runes after a splice at index.
func (c *container) shiftMarks(index, delta int) {
	if delta == 0 {
		return
	}
	for i := range c.marks {
		if c.marks[i].Start >= index {
			c.marks[i].Start = max(c.marks[i].Start+delta, index)
		}
		if c.marks[i].End > index {
			c.marks[i].End = max(c.marks[i].End+delta, index)
		}
	}
}

func (d *Doc) Text(obj OpID) (string, error) {
	c, err := d.textContainer(obj)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, s := range c.elems {
		if w, ok := s.winner(); ok {
			if r, isStr := w.val.Str(); isStr {
				sb.WriteString(r)
			}
		}
	}
	return sb.String(), nil
}

func (d *Doc) Mark(obj OpID, span MarkSpan) error {
	c, err := d.textContainer(obj)
	if err != nil {
		return err
	}
	if span.Start < 0 || span.End < span.Start || span.End > len(c.elems) {
		return ErrBadSpan
	}
	c.marks = append(c.marks, span)
	return nil
}

// Unmark removes spans with the given name that intersect [start, end).
func (d *Doc) Unmark(obj OpID, name string, start, end int) error {
	c, err := d.textContainer(obj)
	if err != nil {
		return err
	}
	if start < 0 || end < start {
		return ErrBadSpan
	}
	kept := c.marks[:0]
	for _, m := range c.marks {
		if m.Name == name && m.Start < end && m.End > start {
			continue
		}
		kept = append(kept, m)
	}
	c.marks = kept
	return nil
}

func (d *Doc) Marks(obj OpID) ([]MarkSpan, error) {
	c, err := d.textContainer(obj)
	if err != nil {
		return nil, err
	}
	return append([]MarkSpan(nil), c.marks...), nil
}
