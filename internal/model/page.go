package model

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sortable order fields. SortTotalPrice is derived from the referenced
// burgers and has no backing column.
const (
	SortID         = "id"
	SortCreatedAt  = "createdAt"
	SortTotalPrice = "totalPrice"
)

type Sort struct {
	Field     string
	Direction SortDirection
}

func (s Sort) Desc() bool {
	return s.Direction == SortDesc
}

type PageRequest struct {
	Page int
	Size int
	Sort Sort
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

type Page[T any] struct {
	Content       []T
	Number        int
	Size          int
	TotalElements int64
}

func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

func EmptyPage[T any](req PageRequest) Page[T] {
	return Page[T]{Content: []T{}, Number: req.Page, Size: req.Size}
}
