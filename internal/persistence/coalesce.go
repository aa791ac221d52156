package persistence

// coalesce turns a drained log into the list of backend calls to make.
//
// The first Update of a key reserves a position in the plan. Later Updates
// of the same key replace the payload at that position, because every
// operation holds a snapshot and the newest snapshot is the one that must
// reach storage. Insert and Delete operations always run, in log order, and
// close the open slot of every key they write: an Update that follows them
// gets a new position so it cannot be hoisted above the structural change.
//
// It returns the plan and the number of operations folded into an earlier
// slot.
func coalesce(ops []Operation) ([]Operation, int) {
	plan := make([]Operation, 0, len(ops))
	slots := make(map[string]int)
	skipped := 0

	for _, op := range ops {
		if u, ok := op.(updateOperation); ok {
			k := u.key()
			if i, open := slots[k]; open {
				plan[i] = u.absorb(plan[i])
				skipped++
				continue
			}
			slots[k] = len(plan)
			plan = append(plan, op)
			continue
		}

		for _, k := range op.writes() {
			delete(slots, k)
		}
		plan = append(plan, op)
	}
	return plan, skipped
}
