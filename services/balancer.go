package services

import (
	"math/rand"
	"sort"

	"github.com/rotisserie/eris"
)

const (
	// nearTieThreshold is the rating-sum gap under which partitions count as equally fair.
	nearTieThreshold = 25
	// nearTieTarget partitions are enough to pick from at random.
	nearTieTarget = 3
	// exhaustiveLimit is the largest lobby searched exhaustively (C(14,7) = 3432).
	exhaustiveLimit = 14
)

// Rated is a player id with the rating used for balancing.
type Rated struct {
	ID     uint
	Rating int
}

// Partition is a split into two equal sides.
type Partition struct {
	Sides    [2][]Rated
	Diff     int // rating-sum gap of the chosen split
	BestDiff int // smallest gap seen during the search
}

// Balancer splits lobbies into two teams with a small rating gap, choosing at
// random among near-ties so the teams are not predictable.
type Balancer struct {
	rng *rand.Rand
}

func NewBalancer(rng *rand.Rand) *Balancer {
	return &Balancer{rng: rng}
}

func (b *Balancer) Balance(players []Rated) (Partition, error) {
	if len(players) == 0 || len(players)%2 != 0 {
		return Partition{}, eris.Errorf("cannot balance %d players", len(players))
	}
	var p Partition
	if len(players) > exhaustiveLimit {
		p = b.snake(players)
	} else {
		p = b.search(players)
	}
	if b.rng.Intn(2) == 1 {
		p.Sides[0], p.Sides[1] = p.Sides[1], p.Sides[0]
	}
	return p, nil
}

func sumRatings(players []Rated) int {
	total := 0
	for _, p := range players {
		total += p.Rating
	}
	return total
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func splitMask(players []Rated, mask uint64) Partition {
	var p Partition
	sums := [2]int{}
	for i, pl := range players {
		side := 1
		if mask&(1<<uint(i)) != 0 {
			side = 0
		}
		p.Sides[side] = append(p.Sides[side], pl)
		sums[side] += pl.Rating
	}
	p.Diff = absInt(sums[0] - sums[1])
	return p
}

// alternatingMask is the sorted-alternating split, used as the starting best
// so the search never reports anything worse.
func alternatingMask(players []Rated) uint64 {
	idx := make([]int, len(players))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return players[idx[a]].Rating > players[idx[b]].Rating })
	var mask uint64
	for rank, i := range idx {
		if rank%2 == 0 {
			mask |= 1 << uint(i)
		}
	}
	// Normalize so the subset holds player 0, like every enumerated one.
	if mask&1 == 0 {
		mask = ^mask & (1<<uint(len(players)) - 1)
	}
	return mask
}

// search enumerates every half-size subset containing player 0, so each
// partition is seen exactly once.
func (b *Balancer) search(players []Rated) Partition {
	n := len(players)
	half := n / 2
	total := sumRatings(players)

	bestMask := alternatingMask(players)
	best := splitMask(players, bestMask).Diff
	var near []uint64

	// comb holds indices 1..n-1 for the other half-1 members of side 0.
	k := half - 1
	comb := make([]int, k)
	for i := range comb {
		comb[i] = i + 1
	}
	for {
		mask := uint64(1)
		sum := players[0].Rating
		for _, i := range comb {
			mask |= 1 << uint(i)
			sum += players[i].Rating
		}
		diff := absInt(2*sum - total)
		if diff < best {
			best, bestMask = diff, mask
		}
		if diff < nearTieThreshold {
			near = append(near, mask)
			if len(near) == nearTieTarget {
				break
			}
		}

		// Advance to the next combination in lexicographic order.
		i := k - 1
		for i >= 0 && comb[i] == n-k+i {
			i--
		}
		if i < 0 {
			break
		}
		comb[i]++
		for j := i + 1; j < k; j++ {
			comb[j] = comb[j-1] + 1
		}
	}

	chosen := bestMask
	if len(near) == nearTieTarget {
		chosen = near[b.rng.Intn(len(near))]
	}
	p := splitMask(players, chosen)
	p.BestDiff = best
	return p
}

// snake handles large lobbies: shuffle (so equal ratings break ties randomly),
// deal in ABBA order by rating, then swap pairs while that shrinks the gap.
func (b *Balancer) snake(players []Rated) Partition {
	sorted := append([]Rated(nil), players...)
	b.rng.Shuffle(len(sorted), func(i, j int) { sorted[i], sorted[j] = sorted[j], sorted[i] })
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rating > sorted[j].Rating })

	var sides [2][]Rated
	for i, p := range sorted {
		side := 0
		if m := i % 4; m == 1 || m == 2 {
			side = 1
		}
		sides[side] = append(sides[side], p)
	}

	gap := sumRatings(sides[0]) - sumRatings(sides[1])
	for rounds := 0; rounds < len(players)*len(players); rounds++ {
		bi, bj, bestGap := -1, -1, absInt(gap)
		for i, a := range sides[0] {
			for j, c := range sides[1] {
				if g := absInt(gap - 2*(a.Rating-c.Rating)); g < bestGap {
					bi, bj, bestGap = i, j, g
				}
			}
		}
		if bi < 0 {
			break
		}
		a, c := sides[0][bi], sides[1][bj]
		sides[0][bi], sides[1][bj] = c, a
		gap -= 2 * (a.Rating - c.Rating)
	}
	return Partition{Sides: sides, Diff: absInt(gap), BestDiff: absInt(gap)}
}
