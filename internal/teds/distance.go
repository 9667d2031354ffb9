package teds

// CostFunc prices relabeling node a as node b
type CostFunc func(a, b *Node) float64

// postorder is a tree flattened for Zhang-Shasha: nodes in post-order,
// the leftmost leaf of each node, and the keyroots. Indices are 1-based.
type postorder struct {
	nodes    []*Node
	leftmost []int
	keyroots []int
}

func flatten(root *Node) *postorder {
	p := &postorder{nodes: []*Node{nil}, leftmost: []int{0}}

	var walk func(n *Node) int
	walk = func(n *Node) int {
		first := 0
		for i, c := range n.Children {
			l := walk(c)
			if i == 0 {
				first = l
			}
		}
		p.nodes = append(p.nodes, n)
		idx := len(p.nodes) - 1
		if first == 0 {
			first = idx
		}
		p.leftmost = append(p.leftmost, first)
		return first
	}
	walk(root)

	// A keyroot is the highest node for its leftmost leaf
	seen := make(map[int]bool)
	for i := len(p.nodes) - 1; i >= 1; i-- {
		if !seen[p.leftmost[i]] {
			seen[p.leftmost[i]] = true
			p.keyroots = append(p.keyroots, i)
		}
	}
	for i, j := 0, len(p.keyroots)-1; i < j; i, j = i+1, j-1 {
		p.keyroots[i], p.keyroots[j] = p.keyroots[j], p.keyroots[i]
	}
	return p
}

// Distance computes the tree edit distance between a and b with unit
// insertion and deletion costs and the given relabel cost.
func Distance(a, b *Node, rename CostFunc) float64 {
	pa, pb := flatten(a), flatten(b)
	n, m := len(pa.nodes)-1, len(pb.nodes)-1

	td := newMatrix(n+1, m+1)
	fd := newMatrix(n+1, m+1)

	for _, i := range pa.keyroots {
		for _, j := range pb.keyroots {
			treeDistance(pa, pb, i, j, rename, td, fd)
		}
	}
	return td[n][m]
}

func treeDistance(pa, pb *postorder, i, j int, rename CostFunc, td, fd [][]float64) {
	li, lj := pa.leftmost[i], pb.leftmost[j]

	fd[li-1][lj-1] = 0
	for x := li; x <= i; x++ {
		fd[x][lj-1] = fd[x-1][lj-1] + 1
	}
	for y := lj; y <= j; y++ {
		fd[li-1][y] = fd[li-1][y-1] + 1
	}

	for x := li; x <= i; x++ {
		for y := lj; y <= j; y++ {
			del := fd[x-1][y] + 1
			ins := fd[x][y-1] + 1

			if pa.leftmost[x] == li && pb.leftmost[y] == lj {
				sub := fd[x-1][y-1] + rename(pa.nodes[x], pb.nodes[y])
				fd[x][y] = min(del, ins, sub)
				td[x][y] = fd[x][y]
				continue
			}

			sub := fd[pa.leftmost[x]-1][pb.leftmost[y]-1] + td[x][y]
			fd[x][y] = min(del, ins, sub)
		}
	}
}

func newMatrix(rows, cols int) [][]float64 {
	backing := make([]float64, rows*cols)
	m := make([][]float64, rows)
	for i := range m {
		m[i] = backing[i*cols : (i+1)*cols]
	}
	return m
}
