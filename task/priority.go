package task

// Priority is a totally ordered discrete level. Urgent is the highest.
type Priority int

const (
	Background Priority = iota
	Low
	Medium
	High
	Urgent
)

// String returns a human-readable label, used by Desc() implementations and
// the dashboard.
func (p Priority) String() string {
	switch p {
	case Background:
		return "Background"
	case Low:
		return "Low"
	case Medium:
		return "Medium"
	case High:
		return "High"
	case Urgent:
		return "Urgent"
	default:
		return "Unknown"
	}
}

// Less reports whether p is strictly lower priority than other.
func (p Priority) Less(other Priority) bool {
	return p < other
}
