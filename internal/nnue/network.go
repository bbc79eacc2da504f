package nnue

// Network holds the quantised weights for every layer. The feature
// transformer (L1) is shared across all variants, as spec.md §3
// describes ("the same feature space" backing 16 sub-networks); only the
// deeper layers are selected per variant bucket.
type Network struct {
	L1Weights [InputSize][L1Size]int16
	L1Bias    [L1Size]int16

	L2Weights [NumVariants][L1Size * 2][L2Size]int8
	L2Bias    [NumVariants][L2Size]int32

	OutputWeights [NumVariants][L2Size]int8
	OutputBias    [NumVariants]int32
}

// NewNetwork returns a zero-weight network (load weights or call
// InitRandom before using it for evaluation).
func NewNetwork() *Network {
	return &Network{}
}

// AccumulatorWeights returns the opaque weight handle Accumulator.Refresh
// and Accumulator.Update expect (spec.md §6).
func (n *Network) AccumulatorWeights() *[InputSize][L1Size]int16 {
	return &n.L1Weights
}

// AccumulatorBiases returns the opaque bias handle Accumulator.Refresh
// expects (spec.md §6).
func (n *Network) AccumulatorBiases() *[L1Size]int16 {
	return &n.L1Bias
}

// Run evaluates the network from a pair of already-computed accumulators:
// own is the side-to-move's perspective, their is the opponent's. variant
// selects the L2/output sub-network (spec.md §6, stateful Run form).
func (n *Network) Run(own, their *Accumulator, variant uint32) int32 {
	var l1Out [L1Size * 2]int8
	for i := 0; i < L1Size; i++ {
		l1Out[i] = ClampedReLU(own.Values[i])
		l1Out[L1Size+i] = ClampedReLU(their.Values[i])
	}
	return n.runLayers(&l1Out, variant)
}

// RunFeatures evaluates the network directly from sparse feature lists,
// without maintaining an accumulator (spec.md §6, stateless Run form).
// Used for validation and out-of-tree evaluation such as the sampler's
// filter.
func (n *Network) RunFeatures(ownFeatures, theirFeatures []uint16, variant uint32) int32 {
	var own, their Accumulator
	own.Refresh(&n.L1Weights, &n.L1Bias, ownFeatures)
	their.Refresh(&n.L1Weights, &n.L1Bias, theirFeatures)
	return n.Run(&own, &their, variant)
}

func (n *Network) runLayers(l1Out *[L1Size * 2]int8, variant uint32) int32 {
	l2w := &n.L2Weights[variant]
	l2b := &n.L2Bias[variant]

	var l2Out [L2Size]int8
	for i := 0; i < L2Size; i++ {
		sum := l2b[i]
		for j := 0; j < L1Size*2; j++ {
			sum += int32(l1Out[j]) * int32(l2w[j][i])
		}
		l2Out[i] = ClampedReLU(int16(sum >> L1QuantShift))
	}

	output := n.OutputBias[variant]
	ow := &n.OutputWeights[variant]
	for i := 0; i < L2Size; i++ {
		output += int32(l2Out[i]) * int32(ow[i])
	}

	return output * OutputScale >> (L1QuantShift + 8)
}

// InitRandom fills the network with small pseudo-random weights, for
// tests and other contexts that need a network but not a trained one.
func (n *Network) InitRandom(seed int64) {
	state := uint64(seed)
	next := func() int16 {
		state = state*6364136223846793005 + 1442695040888963407
		return int16((state >> 48) & 0xFF) - 128
	}
	clampInt8 := func(v int16) int8 {
		if v > 127 {
			return 127
		}
		if v < -128 {
			return -128
		}
		return int8(v)
	}

	for i := 0; i < InputSize; i++ {
		for j := 0; j < L1Size; j++ {
			n.L1Weights[i][j] = next() >> 5
		}
	}
	for i := 0; i < L1Size; i++ {
		n.L1Bias[i] = next() >> 3
	}

	for v := 0; v < NumVariants; v++ {
		for i := 0; i < L1Size*2; i++ {
			for j := 0; j < L2Size; j++ {
				n.L2Weights[v][i][j] = clampInt8(next() >> 6)
			}
		}
		for i := 0; i < L2Size; i++ {
			n.L2Bias[v][i] = int32(next())
		}
		for i := 0; i < L2Size; i++ {
			n.OutputWeights[v][i] = clampInt8(next() >> 6)
		}
		n.OutputBias[v] = int32(next()) * 100
	}
}
