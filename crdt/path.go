package crdt

// PathStep is one hop from the root towards a container: a map key or a
// list index.
type PathStep struct {
	Key   string
	Index int
	InMap bool
}

func MapStep(key string) PathStep { return PathStep{Key: key, InMap: true} }
func ListStep(index int) PathStep { return PathStep{Index: index} }

// Path resolves the steps from the root to obj at this instant. List steps
// reflect current positions, so a path taken before an insert shifts like
// everything else in the list.
func (d *Doc) Path(obj OpID) ([]PathStep, error) {
	if obj.IsRoot() {
		return nil, nil
	}
	var steps []PathStep
	id := obj
	for !id.IsRoot() {
		c, err := d.container(id)
		if err != nil {
			return nil, err
		}
		parent, err := d.container(c.parent)
		if err != nil {
			return nil, err
		}
		if parent.kind == Map {
			steps = append(steps, MapStep(c.key))
		} else {
			at := -1
			for i, s := range parent.elems {
				if w, ok := s.winner(); ok {
					if wid, isObj := w.val.ObjID(); isObj && wid == id {
						at = i
						break
					}
				}
			}
			if at < 0 {
				return nil, ErrUnknownObject
			}
			steps = append(steps, ListStep(at))
		}
		id = c.parent
	}
	// walked leaf-up, flip to root-down
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return steps, nil
}
