// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pdb

import (
	"container/heap"
	"math"
)

// Infinity marks abstract states from which no goal is reachable.
const Infinity = math.MaxInt

// Database is a complete table of abstract goal distances for one pattern.
//
// Distances are computed once at construction by a Dijkstra-style regression
// from the set of abstract goal states; Distance is then a slice lookup.
//
// Thread Safety: immutable after construction; safe to share.
type Database struct {
	proj      *Projection
	distances []int
}

// NewDatabase builds the distance table for the projection of t onto the
// pattern held by proj.
func NewDatabase(proj *Projection) *Database {
	db := &Database{
		proj:      proj,
		distances: make([]int, proj.Size()),
	}
	db.computeDistances()
	return db
}

// Pattern returns the pattern the database was built for.
func (db *Database) Pattern() Pattern { return db.proj.Pattern() }

// Size returns the number of abstract states, the product of the domain
// sizes of the pattern variables.
func (db *Database) Size() int { return db.proj.Size() }

// Distance returns the abstract goal distance of the ranked state, or
// Infinity if no abstract goal is reachable from it.
func (db *Database) Distance(rank int) int { return db.distances[rank] }

// regressionOp is an abstract operator prepared for backward search.
//
// A state s can be regressed through the operator iff s matches all effect
// values and all prevail values. The canonical predecessor takes the
// operator's precondition values; positions written by the operator without
// a precondition are unconstrained in the predecessor and are enumerated.
type regressionOp struct {
	cost int
	// effects must hold in s.
	effects []posVal
	// prevails are preconditions on untouched positions; they hold in both
	// s and the predecessor.
	prevails []posVal
	// assigns are precondition values written into the predecessor.
	assigns []posVal
	// free are effect positions without a precondition.
	free []int
}

type posVal struct{ pos, val int }

func buildRegressionOps(proj *Projection) []regressionOp {
	ops := make([]regressionOp, len(proj.operators))
	for i := range proj.operators {
		abs := &proj.operators[i]
		r := regressionOp{cost: abs.Cost}
		effPos := make(map[int]struct{}, len(abs.Effects))
		prePos := make(map[int]struct{}, len(abs.Preconditions))
		for _, eff := range abs.Effects {
			r.effects = append(r.effects, posVal{eff.Var, eff.Value})
			effPos[eff.Var] = struct{}{}
		}
		for _, pre := range abs.Preconditions {
			prePos[pre.Var] = struct{}{}
			r.assigns = append(r.assigns, posVal{pre.Var, pre.Value})
			if _, touched := effPos[pre.Var]; !touched {
				r.prevails = append(r.prevails, posVal{pre.Var, pre.Value})
			}
		}
		for _, eff := range abs.Effects {
			if _, constrained := prePos[eff.Var]; !constrained {
				r.free = append(r.free, eff.Var)
			}
		}
		ops[i] = r
	}
	return ops
}

// pqItem is a priority-queue entry for the Dijkstra sweep.
type pqItem struct {
	rank int
	dist int
}

type priorityQueue []pqItem

func (q priorityQueue) Len() int           { return len(q) }
func (q priorityQueue) Less(i, j int) bool { return q[i].dist < q[j].dist }
func (q priorityQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *priorityQueue) Push(x any)        { *q = append(*q, x.(pqItem)) }
func (q *priorityQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// computeDistances runs the backward Dijkstra sweep seeded with every
// abstract goal state at distance zero.
func (db *Database) computeDistances() {
	proj := db.proj
	for i := range db.distances {
		db.distances[i] = Infinity
	}

	regOps := buildRegressionOps(proj)

	pq := make(priorityQueue, 0, proj.Size()/4+1)
	for rank := 0; rank < proj.Size(); rank++ {
		if proj.isAbstractGoal(rank) {
			db.distances[rank] = 0
			pq = append(pq, pqItem{rank: rank, dist: 0})
		}
	}
	heap.Init(&pq)

	values := make([]int, len(proj.pattern))
	for pq.Len() > 0 {
		item := heap.Pop(&pq).(pqItem)
		if item.dist > db.distances[item.rank] {
			continue // stale entry
		}
		for i := range proj.pattern {
			values[i] = proj.valueAt(item.rank, i)
		}
		for i := range regOps {
			r := &regOps[i]
			if !db.regressable(r, values) {
				continue
			}
			db.relaxPredecessors(r, item.rank, item.dist, values, &pq)
		}
	}
}

func (db *Database) regressable(r *regressionOp, values []int) bool {
	for _, e := range r.effects {
		if values[e.pos] != e.val {
			return false
		}
	}
	for _, p := range r.prevails {
		if values[p.pos] != p.val {
			return false
		}
	}
	return true
}

// relaxPredecessors enumerates every predecessor of the state through r and
// relaxes its distance. Free positions multiply out over their domains.
func (db *Database) relaxPredecessors(r *regressionOp, rank, dist int, values []int, pq *priorityQueue) {
	proj := db.proj

	base := rank
	for _, a := range r.assigns {
		base += (a.val - values[a.pos]) * proj.multipliers[a.pos]
	}

	var walk func(i, predRank int)
	walk = func(i, predRank int) {
		if i == len(r.free) {
			if d := dist + r.cost; d < db.distances[predRank] {
				db.distances[predRank] = d
				heap.Push(pq, pqItem{rank: predRank, dist: d})
			}
			return
		}
		pos := r.free[i]
		// base carries the effect value at free positions; rebase to zero
		// once, then step through the domain.
		zeroed := predRank - proj.valueAt(predRank, pos)*proj.multipliers[pos]
		for v := 0; v < proj.domains[pos]; v++ {
			walk(i+1, zeroed+v*proj.multipliers[pos])
		}
	}
	walk(0, base)
}
