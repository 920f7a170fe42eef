package services

import (
	"math/rand"
	"sort"

	"github.com/rotisserie/eris"

	"league-orchestrator/models"
)

// DraftPlayer is what a draft needs to know about a participant.
type DraftPlayer struct {
	ID        uint   `json:"id"`
	DiscordID string `json:"discord_id"`
	MMR       int    `json:"mmr"`
	Captain   bool   `json:"captain"`
}

// Draft is a captain's draft for one lobby. Two drafters alternate picks in
// ABBA snake order until the pool is empty. It is not safe for concurrent use.
type Draft struct {
	pool     []DraftPlayer
	teams    [2][]DraftPlayer
	drafters [2]DraftPlayer
	first    models.Side // side of whoever picks first
	turn     models.Side
	picks    int
	handoff  bool
}

// NewDraft selects the drafters and seats each as the first member of a side.
func NewDraft(players []DraftPlayer, rng *rand.Rand) (*Draft, error) {
	if len(players) < 2 || len(players)%2 != 0 {
		return nil, eris.Errorf("a draft needs an even number of players, got %d", len(players))
	}

	byRating := func(list []DraftPlayer) []DraftPlayer {
		out := append([]DraftPlayer(nil), list...)
		sort.SliceStable(out, func(i, j int) bool { return out[i].MMR > out[j].MMR })
		return out
	}

	var captains []DraftPlayer
	for _, p := range players {
		if p.Captain {
			captains = append(captains, p)
		}
	}

	var pair [2]DraftPlayer
	var firstIdx int
	switch len(captains) {
	case 0:
		top := byRating(players)
		pair = [2]DraftPlayer{top[0], top[1]}
		firstIdx = rng.Intn(2)
	case 1:
		var others []DraftPlayer
		for _, p := range players {
			if p.ID != captains[0].ID {
				others = append(others, p)
			}
		}
		pair = [2]DraftPlayer{captains[0], byRating(others)[0]}
		// The captain already has the edge of being chosen; the other drafts first.
		firstIdx = 1
	default:
		top := byRating(captains)
		pair = [2]DraftPlayer{top[0], top[1]}
		firstIdx = rng.Intn(2)
	}

	d := &Draft{}
	// Random sides for the two drafters.
	side := models.Side(rng.Intn(2))
	d.drafters[side] = pair[0]
	d.drafters[side.Other()] = pair[1]
	d.teams[side] = []DraftPlayer{pair[0]}
	d.teams[side.Other()] = []DraftPlayer{pair[1]}
	if firstIdx == 0 {
		d.first = side
	} else {
		d.first = side.Other()
	}
	d.turn = d.first

	for _, p := range players {
		if p.ID != pair[0].ID && p.ID != pair[1].ID {
			d.pool = append(d.pool, p)
		}
	}
	return d, nil
}

// pickSide is the side that makes pick i: A B B A, repeating.
func (d *Draft) pickSide(i int) models.Side {
	if m := i % 4; m == 0 || m == 3 {
		return d.first
	}
	return d.first.Other()
}

// Current returns the drafter whose turn it is.
func (d *Draft) Current() DraftPlayer {
	return d.drafters[d.turn]
}

func (d *Draft) Turn() models.Side { return d.turn }

func (d *Draft) Done() bool { return len(d.pool) == 0 }

func (d *Draft) Picks() int { return d.picks }

// HandoffAvailable is false while the acting side is only its original captain.
func (d *Draft) HandoffAvailable() bool {
	return !d.Done() && len(d.teams[d.turn]) > 1
}

// Targets lists who the current drafter may select: the pool normally, or
// their own teammates while handing off.
func (d *Draft) Targets() []DraftPlayer {
	if !d.handoff {
		return append([]DraftPlayer(nil), d.pool...)
	}
	var out []DraftPlayer
	for _, p := range d.teams[d.turn] {
		if p.ID != d.drafters[d.turn].ID {
			out = append(out, p)
		}
	}
	return out
}

func (d *Draft) checkActor(actor string) error {
	if d.Done() {
		return reject("the draft is already complete")
	}
	if actor != d.drafters[d.turn].DiscordID {
		return &TurnError{Expected: d.drafters[d.turn].DiscordID}
	}
	return nil
}

// ToggleHandoff switches the current drafter in or out of handing the draft
// to a teammate.
func (d *Draft) ToggleHandoff(actor string) error {
	if err := d.checkActor(actor); err != nil {
		return err
	}
	if !d.handoff && !d.HandoffAvailable() {
		return reject("there is nobody on your side to hand the draft to")
	}
	d.handoff = !d.handoff
	return nil
}

// Pick drafts target onto the current drafter's side or, during a handoff,
// makes target the side's drafter. It reports whether the draft is complete.
func (d *Draft) Pick(actor string, target uint) (bool, error) {
	if err := d.checkActor(actor); err != nil {
		return false, err
	}

	if d.handoff {
		for _, p := range d.teams[d.turn] {
			if p.ID == target && p.ID != d.drafters[d.turn].ID {
				d.drafters[d.turn] = p
				d.handoff = false
				return false, nil
			}
		}
		return false, reject("pick a new drafter from your own side")
	}

	idx := -1
	for i, p := range d.pool {
		if p.ID == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, reject("that player is not in the pool")
	}

	picked := d.pool[idx]
	d.pool = append(d.pool[:idx], d.pool[idx+1:]...)
	d.teams[d.turn] = append(d.teams[d.turn], picked)
	d.picks++
	if d.Done() {
		return true, nil
	}
	d.turn = d.pickSide(d.picks)
	return false, nil
}

// Rosters returns the player ids of each side, drafter first.
func (d *Draft) Rosters() [2][]uint {
	var out [2][]uint
	for side, team := range d.teams {
		for _, p := range team {
			out[side] = append(out[side], p.ID)
		}
	}
	return out
}

// DraftSnapshot is the public view of a draft.
type DraftSnapshot struct {
	ID               string        `json:"id"`
	Pool             []DraftPlayer `json:"pool"`
	Radiant          []DraftPlayer `json:"radiant"`
	Dire             []DraftPlayer `json:"dire"`
	Drafter          DraftPlayer   `json:"drafter"`
	Targets          []DraftPlayer `json:"targets"`
	Handoff          bool          `json:"handoff"`
	HandoffAvailable bool          `json:"handoff_available"`
	Picks            int           `json:"picks"`
	Done             bool          `json:"done"`
	GameID           uint          `json:"game_id,omitempty"`
}

func (d *Draft) Snapshot() DraftSnapshot {
	return DraftSnapshot{
		Pool:             append([]DraftPlayer(nil), d.pool...),
		Radiant:          append([]DraftPlayer(nil), d.teams[models.SideRadiant]...),
		Dire:             append([]DraftPlayer(nil), d.teams[models.SideDire]...),
		Drafter:          d.Current(),
		Targets:          d.Targets(),
		Handoff:          d.handoff,
		HandoffAvailable: d.HandoffAvailable(),
		Picks:            d.picks,
		Done:             d.Done(),
	}
}
