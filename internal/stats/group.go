package stats

// GroupMeans maps each category to the mean of its values.
// Order lists categories in order of first appearance.
type GroupMeans struct {
	Order  []string
	Means  map[string]float64
	Counts map[string]int
}

// Get returns the mean for category. ok is false when the category had no
// observations; absent categories are never reported as a zero mean.
func (g GroupMeans) Get(category string) (mean float64, ok bool) {
	mean, ok = g.Means[category]
	return mean, ok
}

// GroupMean partitions values by the parallel categories slice and averages each partition.
func GroupMean(values []float64, categories []string) (GroupMeans, error) {
	if len(values) != len(categories) {
		return GroupMeans{}, invalid("group mean", "length mismatch: %d values, %d categories", len(values), len(categories))
	}
	if len(values) == 0 {
		return GroupMeans{}, invalid("group mean", "empty sequence")
	}
	parts := make(map[string][]float64)
	var order []string
	for i, c := range categories {
		if _, seen := parts[c]; !seen {
			order = append(order, c)
		}
		parts[c] = append(parts[c], values[i])
	}
	out := GroupMeans{
		Order:  order,
		Means:  make(map[string]float64, len(parts)),
		Counts: make(map[string]int, len(parts)),
	}
	for _, c := range order {
		m, err := Mean(parts[c])
		if err != nil {
			return GroupMeans{}, err
		}
		out.Means[c] = m
		out.Counts[c] = len(parts[c])
	}
	return out, nil
}
