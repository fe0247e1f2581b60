package utils

// SeenSet tracks visited keys to avoid duplicates. It is not safe for concurrent use.
type SeenSet map[string]struct{}

// NewSeenSet creates a new, empty set
func NewSeenSet() SeenSet {
	return make(SeenSet)
}

// Add returns true if the key is new (not seen before), false if duplicate
func (s SeenSet) Add(key string) bool {
	if _, exists := s[key]; exists {
		return false
	}
	s[key] = struct{}{}
	return true
}
