// Package diff aligns two sequences of sibling nodes and classifies every
// position. Alignment anchors on subtrees that serialize identically
// (longest common subsequence over fingerprints), then pairs leftover
// same-tag elements as modifications of one another.
package diff

import "github.com/canmi21/seam/internal/dom"

// Kind classifies one aligned position.
type Kind uint8

const (
	// Identical nodes serialize to the same bytes on both sides.
	Identical Kind = iota
	// Modified pairs same-tag elements whose attributes or content differ.
	Modified
	// OnlyLeft marks a node present only in the left sequence.
	OnlyLeft
	// OnlyRight marks a node present only in the right sequence.
	OnlyRight
)

func (k Kind) String() string {
	switch k {
	case Identical:
		return "identical"
	case Modified:
		return "modified"
	case OnlyLeft:
		return "only-left"
	case OnlyRight:
		return "only-right"
	}
	return "unknown"
}

// Op is one entry of an alignment. Left and Right index into the input
// sequences and are -1 on the side the node is missing from.
type Op struct {
	Kind  Kind
	Left  int
	Right int
}

type pair struct{ l, r int }

// Children aligns two sibling sequences. Ops come out in sequence order;
// within a gap between anchors, OnlyLeft ops precede OnlyRight ops.
func Children(left, right []*dom.Node) []Op {
	lf := make([]string, len(left))
	for i, n := range left {
		lf[i] = n.Fingerprint()
	}
	rf := make([]string, len(right))
	for i, n := range right {
		rf[i] = n.Fingerprint()
	}

	anchors := lcs(lf, rf)
	anchors = append(anchors, pair{len(left), len(right)})

	var ops []Op
	li, ri := 0, 0
	for _, a := range anchors {
		ops = appendGap(ops, left, right, li, a.l, ri, a.r)
		if a.l < len(left) {
			ops = append(ops, Op{Kind: Identical, Left: a.l, Right: a.r})
		}
		li, ri = a.l+1, a.r+1
	}
	return ops
}

// appendGap classifies the unanchored region left[l0:l1) vs right[r0:r1).
// Elements sharing a tag are paired greedily in order as Modified; the
// rest are one-sided.
func appendGap(ops []Op, left, right []*dom.Node, l0, l1, r0, r1 int) []Op {
	var pairs []pair
	rNext := r0
	for i := l0; i < l1; i++ {
		if !left[i].IsElement() {
			continue
		}
		for j := rNext; j < r1; j++ {
			if right[j].IsElement() && right[j].TagLower() == left[i].TagLower() {
				pairs = append(pairs, pair{i, j})
				rNext = j + 1
				break
			}
		}
	}

	i, j := l0, r0
	for _, p := range pairs {
		for ; i < p.l; i++ {
			ops = append(ops, Op{Kind: OnlyLeft, Left: i, Right: -1})
		}
		for ; j < p.r; j++ {
			ops = append(ops, Op{Kind: OnlyRight, Left: -1, Right: j})
		}
		ops = append(ops, Op{Kind: Modified, Left: p.l, Right: p.r})
		i, j = p.l+1, p.r+1
	}
	for ; i < l1; i++ {
		ops = append(ops, Op{Kind: OnlyLeft, Left: i, Right: -1})
	}
	for ; j < r1; j++ {
		ops = append(ops, Op{Kind: OnlyRight, Left: -1, Right: j})
	}
	return ops
}

// lcs returns index pairs of a longest common subsequence of a and b.
// Backtracking walks forward so ties resolve to the earliest indices,
// keeping the alignment deterministic.
func lcs(a, b []string) []pair {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil
	}
	// dp[i][j] holds the LCS length of a[i:] and b[j:].
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	var out []pair
	for i, j := 0, 0; i < n && j < m; {
		switch {
		case a[i] == b[j]:
			out = append(out, pair{i, j})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			i++
		default:
			j++
		}
	}
	return out
}
