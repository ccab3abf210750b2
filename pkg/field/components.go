package field

// Components counts 8-connected groups of marked cells, treating the field
// as a torus so that a path crossing an edge stays one component.
func (f *Field) Components() int {
	w, h := f.size.W, f.size.H
	seen := make([]bool, len(f.cells))
	stack := make([]int, 0, 64)
	count := 0

	for start, c := range f.cells {
		if c == 0 || seen[start] {
			continue
		}
		count++
		seen[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx := (x + dx + w) % w
					ny := (y + dy + h) % h
					j := ny*w + nx
					if f.cells[j] != 0 && !seen[j] {
						seen[j] = true
						stack = append(stack, j)
					}
				}
			}
		}
	}
	return count
}
