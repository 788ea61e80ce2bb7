package lineup

import (
	"fmt"
	"strings"

	"github.com/AdamBeresnev/matchday/internal/match"
)

type Formation string

const (
	Formation433  Formation = "4-3-3"
	Formation442  Formation = "4-4-2"
	Formation4231 Formation = "4-2-3-1"
	Formation4321 Formation = "4-3-2-1"
	Formation352  Formation = "3-5-2"
	Formation532  Formation = "5-3-2"
	Formation451  Formation = "4-5-1"
)

const (
	DefaultFormation = Formation433
	StartingSlots    = 11
)

// Outfield lines from the back. The first line is the defence, the last the attack,
// everything between is midfield.
var formationLines = map[Formation][]int{
	Formation433:  {4, 3, 3},
	Formation442:  {4, 4, 2},
	Formation4231: {4, 2, 3, 1},
	Formation4321: {4, 3, 2, 1},
	Formation352:  {3, 5, 2},
	Formation532:  {5, 3, 2},
	Formation451:  {4, 5, 1},
}

var formationOrder = []Formation{
	Formation433, Formation442, Formation4231, Formation4321, Formation352, Formation532, Formation451,
}

// slotCategories is the fixed slot layout per formation: slot 0 is always the
// goalkeeper, then defenders, midfielders and forwards.
var slotCategories = func() map[Formation][StartingSlots]match.Category {
	out := make(map[Formation][StartingSlots]match.Category, len(formationLines))
	for f, lines := range formationLines {
		var slots [StartingSlots]match.Category
		slots[0] = match.CategoryGoalkeeper
		i := 1
		for li, n := range lines {
			cat := match.CategoryMidfielder
			switch li {
			case 0:
				cat = match.CategoryDefender
			case len(lines) - 1:
				cat = match.CategoryForward
			}
			for j := 0; j < n; j++ {
				slots[i] = cat
				i++
			}
		}
		out[f] = slots
	}
	return out
}()

func Formations() []Formation {
	return append([]Formation(nil), formationOrder...)
}

func ParseFormation(code string) (Formation, error) {
	f := Formation(strings.TrimSpace(code))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", match.ErrUnknownFormation, code)
	}
	return f, nil
}

func (f Formation) Valid() bool {
	_, ok := formationLines[f]
	return ok
}

func (f Formation) Lines() []int {
	return append([]int(nil), formationLines[f]...)
}

func (f Formation) Categories() [StartingSlots]match.Category {
	return slotCategories[f]
}

func (f Formation) Category(slot int) (match.Category, bool) {
	if !f.Valid() || slot < 0 || slot >= StartingSlots {
		return "", false
	}
	return slotCategories[f][slot], true
}
