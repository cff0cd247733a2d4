package dice

// Move categories drive the consequence table.
const (
	CategoryCombat  = "combat"
	CategorySocial  = "social"
	CategoryEndure  = "endure"
	CategoryGeneric = "generic"
	CategoryDialog  = "dialog"
)

// Move is one classified player action and the stat that resolves it.
type Move struct {
	Name     string
	Stat     string
	Category string
}

// Moves is the closed move table the classifier selects from. Dialog
// skips dice resolution entirely.
var Moves = map[string]Move{
	"face_danger":        {Name: "face_danger", Stat: "edge", Category: CategoryGeneric},
	"compel":             {Name: "compel", Stat: "heart", Category: CategorySocial},
	"gather_information": {Name: "gather_information", Stat: "wits", Category: CategoryGeneric},
	"secure_advantage":   {Name: "secure_advantage", Stat: "wits", Category: CategoryGeneric},
	"clash":              {Name: "clash", Stat: "iron", Category: CategoryCombat},
	"strike":             {Name: "strike", Stat: "iron", Category: CategoryCombat},
	"endure_harm":        {Name: "endure_harm", Stat: "iron", Category: CategoryEndure},
	"endure_stress":      {Name: "endure_stress", Stat: "heart", Category: CategoryEndure},
	"make_connection":    {Name: "make_connection", Stat: "heart", Category: CategorySocial},
	"test_bond":          {Name: "test_bond", Stat: "heart", Category: CategorySocial},
	"resupply":           {Name: "resupply", Stat: "wits", Category: CategoryGeneric},
	"world_shaping":      {Name: "world_shaping", Stat: "shadow", Category: CategoryGeneric},
	"dialog":             {Name: "dialog", Stat: "heart", Category: CategoryDialog},
}

// LookupMove resolves a classifier move name, defaulting to dialog for
// anything unrecognized.
func LookupMove(name string) Move {
	if m, ok := Moves[name]; ok {
		return m
	}
	return Moves["dialog"]
}

// relationshipMoves gain bond on success.
var relationshipMoves = map[string]bool{
	"make_connection": true,
	"test_bond":       true,
}

// dispositionMoves can shift disposition on a strong hit.
var dispositionMoves = map[string]bool{
	"make_connection": true,
	"compel":          true,
}
