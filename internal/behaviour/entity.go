package behaviour

import "strconv"

// EntityID identifies one simulation entity. Ids are allocated by the
// entity store; the script manager only uses them as keys.
type EntityID uint64

func (id EntityID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}
