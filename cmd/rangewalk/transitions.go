package main

import (
	"github.com/fieldsignals/georange/model"
)

// diffInRange compares the previous in-range membership against a fresh
// notification and reports which agent IDs entered and left. The engine
// notifies on every recompute pass; transition detection is the
// consumer's job.
func diffInRange(prev map[string]bool, inRange []model.Agent) (entered, left []string, next map[string]bool) {
	next = make(map[string]bool, len(inRange))
	for _, a := range inRange {
		next[a.ID] = true
		if !prev[a.ID] {
			entered = append(entered, a.ID)
		}
	}
	for id := range prev {
		if !next[id] {
			left = append(left, id)
		}
	}
	return entered, left, next
}
