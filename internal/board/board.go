package board

import "math/rand"

// Cell is one square of the grid. It is serialized with the parent game
// record, so it carries the full server-side truth including mines.
type Cell struct {
	Mine     bool `json:"mine"`
	Revealed bool `json:"revealed"`
	Flagged  bool `json:"flagged"`
	Adjacent int  `json:"adjacent"`
}

// Board is a mutable minesweeper grid. Revealed counts only opened safe
// cells; mines never contribute to it, so a mine hit credits no reveals.
type Board struct {
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Mines    int      `json:"mines"`
	Started  bool     `json:"started"`
	Revealed int      `json:"revealed"`
	Cells    [][]Cell `json:"cells"`
}

// New returns a board with mineCount mines placed uniformly at random and
// neighbor counts precomputed. mineCount is clamped below the cell count.
func New(width, height, mineCount int) *Board {
	if mineCount >= width*height {
		mineCount = width*height - 1
	}

	cells := make([][]Cell, height)
	for y := range cells {
		cells[y] = make([]Cell, width)
	}

	b := &Board{
		Width:  width,
		Height: height,
		Mines:  mineCount,
		Cells:  cells,
	}

	b.placeMines(mineCount)
	b.countNeighbors()

	return b
}

func (b *Board) placeMines(count int) {
	placed := 0
	for placed < count {
		x := rand.Intn(b.Width)
		y := rand.Intn(b.Height)

		if !b.Cells[y][x].Mine {
			b.Cells[y][x].Mine = true
			placed++
		}
	}
}

func (b *Board) countNeighbors() {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.Cells[y][x].Mine {
				continue
			}
			count := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if nx >= 0 && nx < b.Width && ny >= 0 && ny < b.Height && b.Cells[ny][nx].Mine {
						count++
					}
				}
			}
			b.Cells[y][x].Adjacent = count
		}
	}
}

// Start marks the board as playable. Idempotent.
func (b *Board) Start() {
	b.Started = true
}

// Reveal opens the cell at x,y and flood-fills through zero-adjacency
// neighbors. Returns false iff the target cell is a mine. Out-of-range,
// already-revealed and flagged cells are no-ops.
func (b *Board) Reveal(x, y int) bool {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return true
	}

	cell := &b.Cells[y][x]
	if cell.Revealed || cell.Flagged {
		return true
	}

	cell.Revealed = true

	if cell.Mine {
		return false
	}

	b.Revealed++

	if cell.Adjacent == 0 {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx != 0 || dy != 0 {
					b.Reveal(x+dx, y+dy)
				}
			}
		}
	}

	return true
}

// ToggleFlag flips the flag on an unrevealed cell.
func (b *Board) ToggleFlag(x, y int) {
	if x < 0 || x >= b.Width || y < 0 || y >= b.Height {
		return
	}

	cell := &b.Cells[y][x]
	if cell.Revealed {
		return
	}

	cell.Flagged = !cell.Flagged
}

// Over reports whether the game is finished: every safe cell opened, or
// every mine flagged with no flags wasted on safe cells.
func (b *Board) Over() bool {
	if b.Revealed >= b.Width*b.Height-b.Mines {
		return true
	}
	return b.allMinesFlagged()
}

func (b *Board) allMinesFlagged() bool {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			cell := b.Cells[y][x]
			if cell.Mine != cell.Flagged {
				return false
			}
		}
	}
	return true
}

// CellView is the client-visible projection of a cell. Mine and Adjacent
// are only populated once the cell is revealed.
type CellView struct {
	Revealed bool `json:"revealed"`
	Flagged  bool `json:"flagged"`
	Mine     bool `json:"mine,omitempty"`
	Adjacent int  `json:"adjacent,omitempty"`
}

// State returns the per-cell visibility snapshot broadcast to clients.
// Unrevealed mines stay hidden.
func (b *Board) State() [][]CellView {
	view := make([][]CellView, b.Height)
	for y := 0; y < b.Height; y++ {
		view[y] = make([]CellView, b.Width)
		for x := 0; x < b.Width; x++ {
			cell := b.Cells[y][x]
			v := CellView{
				Revealed: cell.Revealed,
				Flagged:  cell.Flagged,
			}
			if cell.Revealed {
				v.Mine = cell.Mine
				v.Adjacent = cell.Adjacent
			}
			view[y][x] = v
		}
	}
	return view
}
