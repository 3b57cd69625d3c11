package domain

// Chunk is an ordered group of recipients sent together as one operation.
// Index is the 0-based position of the chunk in the run.
type Chunk struct {
	Index      int
	Recipients []Address
}

// Size returns the number of recipients in the chunk.
func (c Chunk) Size() int {
	return len(c.Recipients)
}

// Empty reports whether the chunk has no recipients.
func (c Chunk) Empty() bool {
	return len(c.Recipients) == 0
}
