// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package cegar

// isProductWithinLimit reports whether a*b <= limit without overflowing.
// All arguments must be non-negative. Fails closed: a product that would
// overflow is never within the limit.
func isProductWithinLimit(a, b, limit int) bool {
	if b == 0 {
		return true
	}
	return a <= limit/b
}

// canMerge reports whether the patterns at the two live slots may be merged
// under both budgets. The collection delta accounts for the merged PDB
// replacing the two existing ones.
func (g *Generator) canMerge(index1, index2 int) bool {
	size1 := g.coll.solutions[index1].PDB().Size()
	size2 := g.coll.solutions[index2].PDB().Size()
	if !isProductWithinLimit(size1, size2, g.cfg.MaxPDBSize) {
		return false
	}
	added := size1*size2 - size1 - size2
	return g.coll.collectionSize+added <= g.cfg.MaxCollectionSize
}

// canAddVariable reports whether variable v may be added to the pattern at
// the given live slot under both budgets.
func (g *Generator) canAddVariable(index, v int) bool {
	size := g.coll.solutions[index].PDB().Size()
	domain := g.task.DomainSize(v)
	if !isProductWithinLimit(size, domain, g.cfg.MaxPDBSize) {
		return false
	}
	added := size*domain - size
	return g.coll.collectionSize+added <= g.cfg.MaxCollectionSize
}
