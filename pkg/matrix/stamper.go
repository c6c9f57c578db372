package matrix

// Stamper is the stamping surface elements see. AddElement accumulates
// into the iteration matrix, AddRHS into the right hand side; both ignore
// index 0 (ground).
type Stamper interface {
	AddElement(i, j int, value float64)
	AddRHS(i int, value float64)
}
