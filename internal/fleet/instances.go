package fleet

// Instance is one workload unit assigned to exactly one node. The instance
// list itself is owned elsewhere in the panel; this subsystem only reads it
// for per-node reporting.
type Instance struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Node string `json:"node"`
}

// CountInstances returns the number of instances assigned to each of the
// given node ids. Every id gets an entry, so nodes without instances report
// an explicit zero. Instances referencing an unknown node id are ignored.
//
// Pure function: no side effects, no network calls.
func CountInstances(nodeIDs []string, instances []Instance) map[string]int {
	counts := make(map[string]int, len(nodeIDs))
	for _, id := range nodeIDs {
		counts[id] = 0
	}
	for _, inst := range instances {
		if _, known := counts[inst.Node]; known {
			counts[inst.Node]++
		}
	}
	return counts
}
