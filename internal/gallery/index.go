package gallery

import (
	"github.com/coder/hnsw"
	"github.com/mholecek/snapmatch/internal/constants"
)

// DescriptorIndex is an in-memory HNSW graph over every descriptor of a set
// of photos. Events stay small enough for a linear scan, but once a gallery
// grows past a few hundred photos the index keeps selfie matching fast.
// The index is built per query set and thrown away; it never outlives the
// photo slice it was built from.
type DescriptorIndex struct {
	graph     *hnsw.Graph[int]
	nodeIndex []int // HNSW node key -> index into the photos slice
}

// BuildDescriptorIndex constructs an index over all descriptors of the given
// photos. Photos without descriptors contribute no nodes.
func BuildDescriptorIndex(photos []Photo) *DescriptorIndex {
	g := hnsw.NewGraph[int]()
	g.M = constants.HNSWMaxNeighbors
	g.Ml = 1.0 / float64(constants.HNSWMaxNeighbors)
	g.Distance = hnsw.EuclideanDistance

	idx := &DescriptorIndex{graph: g}
	for i := range photos {
		for _, d := range photos[i].Descriptors {
			if len(d) == 0 {
				continue
			}
			g.Add(hnsw.MakeNode(len(idx.nodeIndex), d))
			idx.nodeIndex = append(idx.nodeIndex, i)
		}
	}
	return idx
}

// Candidates returns the indexes of photos owning the k nearest descriptors
// to the query, deduplicated, nearest first. The caller still applies the
// exact threshold test; HNSW search is approximate and only narrows the scan.
func (idx *DescriptorIndex) Candidates(query Descriptor, k int) []int {
	if len(idx.nodeIndex) == 0 {
		return nil
	}

	neighbors := idx.graph.Search(query, k)
	seen := make(map[int]bool, len(neighbors))
	var photos []int
	for _, n := range neighbors {
		p := idx.nodeIndex[n.Key]
		if !seen[p] {
			seen[p] = true
			photos = append(photos, p)
		}
	}
	return photos
}

// Len returns the number of indexed descriptors.
func (idx *DescriptorIndex) Len() int {
	return len(idx.nodeIndex)
}
