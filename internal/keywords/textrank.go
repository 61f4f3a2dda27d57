package keywords

import "sort"

const (
	rankWindow     = 5
	rankDamping    = 0.85
	rankIterations = 20
)

// topTextRank returns up to n tokens ranked by PageRank over a co-occurrence
// graph: tokens within rankWindow positions of each other are linked with
// edge weight equal to the co-occurrence count. It surfaces tokens that sit
// in well-connected neighborhoods even when their raw frequency is low,
// which is why it runs as an independent signal next to topTFIDF.
func topTextRank(tokens []string, n int) []string {
	if n <= 0 {
		return nil
	}

	// Graph nodes in first-appearance order for deterministic iteration.
	var nodes []string
	index := make(map[string]int)
	var seq []int
	for _, tok := range tokens {
		if !rankable(tok) {
			continue
		}
		id, ok := index[tok]
		if !ok {
			id = len(nodes)
			index[tok] = id
			nodes = append(nodes, tok)
		}
		seq = append(seq, id)
	}
	if len(nodes) == 0 {
		return nil
	}

	weights := make([]map[int]float64, len(nodes))
	for i := range weights {
		weights[i] = make(map[int]float64)
	}
	addEdge := func(a, b int) {
		if a == b {
			return
		}
		weights[a][b]++
		weights[b][a]++
	}
	for i := range seq {
		for j := i + 1; j < len(seq) && j < i+rankWindow; j++ {
			addEdge(seq[i], seq[j])
		}
	}

	outSum := make([]float64, len(nodes))
	for i, adj := range weights {
		for _, w := range adj {
			outSum[i] += w
		}
	}

	rank := make([]float64, len(nodes))
	for i := range rank {
		rank[i] = 1.0
	}
	next := make([]float64, len(nodes))
	for it := 0; it < rankIterations; it++ {
		for v := range nodes {
			sum := 0.0
			for u, w := range weights[v] {
				if outSum[u] > 0 {
					sum += w / outSum[u] * rank[u]
				}
			}
			next[v] = (1 - rankDamping) + rankDamping*sum
		}
		rank, next = next, rank
	}

	order := make([]int, len(nodes))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if rank[a] != rank[b] {
			return rank[a] > rank[b]
		}
		return nodes[a] < nodes[b]
	})

	if len(order) > n {
		order = order[:n]
	}
	out := make([]string, len(order))
	for i, id := range order {
		out[i] = nodes[id]
	}
	return out
}
