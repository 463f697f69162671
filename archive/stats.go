package archive

// DropReason names the policy that rejected an entry
type DropReason string

const (
	DropExcluded        DropReason = "excluded"
	DropCountCap        DropReason = "count_cap"
	DropTooLarge        DropReason = "too_large"
	DropUnsafePath      DropReason = "unsafe_path"
	DropNotAllowed      DropReason = "not_allowed"
	DropUnsupportedType DropReason = "unsupported_type"
	DropRootOnly        DropReason = "root_only"
	DropWriteFailed     DropReason = "write_failed"
)

// DropStats counts dropped entries per reason
type DropStats map[DropReason]int

// Total returns the number of dropped entries
func (d DropStats) Total() int {
	total := 0
	for _, n := range d {
		total += n
	}
	return total
}
