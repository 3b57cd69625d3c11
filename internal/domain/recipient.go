package domain

// LoadResult is what an address source produced.
// Rejected lines are reported for visibility but are not fatal.
type LoadResult struct {
	Addresses []Address
	Rejected  []DecodeError
}
