package history

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// CouplingEdge is a directional coupling from a target file to one peer.
type CouplingEdge struct {
	Peer   string  `json:"peer"`
	Shared int     `json:"shared"`
	Ratio  float64 `json:"ratio"`
}

// CouplingMap maps a target file to the peers it is coupled to, strongest
// first. Targets without peers are absent.
type CouplingMap map[string][]CouplingEdge

// Peers returns the peer paths of target sorted by path.
func (c CouplingMap) Peers(target string) []string {
	edges := c[target]
	peers := make([]string, len(edges))
	for i, e := range edges {
		peers[i] = e.Peer
	}
	sort.Strings(peers)
	return peers
}

// CouplingOptions holds the edge inclusion thresholds.
type CouplingOptions struct {
	MinSharedCommits   int
	MinCouplingPercent float64
}

// txIndex maps every file to the bitmap of transaction positions it occurs in.
type txIndex struct {
	ids   map[string]uint32
	files []string
	bits  []*roaring.Bitmap
}

func buildTxIndex(txs []Transaction) *txIndex {
	idx := &txIndex{ids: make(map[string]uint32)}
	for i, tx := range txs {
		for _, f := range tx.Files {
			id, ok := idx.ids[f]
			if !ok {
				id = uint32(len(idx.files))
				idx.ids[f] = id
				idx.files = append(idx.files, f)
				idx.bits = append(idx.bits, roaring.New())
			}
			idx.bits[id].Add(uint32(i))
		}
	}
	return idx
}

// ComputeCoupling finds, for every file whose churn reaches MinSharedCommits,
// the peers that share at least MinSharedCommits transactions with it and
// whose shared/churn(target) ratio reaches MinCouplingPercent. The ratio's
// denominator is always the target's churn, so the relation is directional.
func ComputeCoupling(txs []Transaction, churn ChurnMap, opts CouplingOptions) CouplingMap {
	result := make(CouplingMap)
	if len(txs) == 0 {
		return result
	}
	idx := buildTxIndex(txs)

	for target, targetChurn := range churn {
		if targetChurn < opts.MinSharedCommits || targetChurn == 0 {
			continue
		}
		tid, ok := idx.ids[target]
		if !ok {
			continue
		}
		targetBits := idx.bits[tid]

		candidates := make(map[uint32]bool)
		it := targetBits.Iterator()
		for it.HasNext() {
			for _, peer := range txs[it.Next()].Files {
				if pid := idx.ids[peer]; pid != tid {
					candidates[pid] = true
				}
			}
		}

		var edges []CouplingEdge
		for pid := range candidates {
			shared := int(targetBits.AndCardinality(idx.bits[pid]))
			if shared < opts.MinSharedCommits {
				continue
			}
			if float64(shared)*100 < opts.MinCouplingPercent*float64(targetChurn) {
				continue
			}
			edges = append(edges, CouplingEdge{
				Peer:   idx.files[pid],
				Shared: shared,
				Ratio:  float64(shared) / float64(targetChurn),
			})
		}
		if len(edges) == 0 {
			continue
		}
		sort.Slice(edges, func(i, j int) bool {
			if edges[i].Shared != edges[j].Shared {
				return edges[i].Shared > edges[j].Shared
			}
			return edges[i].Peer < edges[j].Peer
		})
		result[target] = edges
	}
	return result
}
