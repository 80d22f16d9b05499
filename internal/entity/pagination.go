package entity

type PaginationInput struct {
	Limit  int
	Offset int
}

// NewPaginationInput clamps negative values to zero.
func NewPaginationInput(limit int, offset int) *PaginationInput {
	return &PaginationInput{
		Limit:  max(limit, 0),
		Offset: max(offset, 0),
	}
}

// Bounds returns the half-open slice range this page covers in a list of n items.
func (p *PaginationInput) Bounds(n int) (int, int) {
	start := min(p.Offset, n)
	end := min(start+p.Limit, n)

	return start, end
}
