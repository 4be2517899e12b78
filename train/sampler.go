package train

import "math/rand/v2"

// Sampler chooses which training windows make up each mini-batch.
type Sampler interface {
	Init(nSamples int) error
	// Iterate returns the indices for the next mini-batch. The caller must
	// not modify the returned slice.
	Iterate() []int
}

// Batch returns every index at each iteration.
type Batch struct {
	batch []int
}

func (b *Batch) Init(nSamples int) error {
	b.batch = make([]int, nSamples)
	for i := range b.batch {
		b.batch[i] = i
	}
	return nil
}

func (b *Batch) Iterate() []int {
	return b.batch
}

// Stochastic draws mini-batches of BatchSize indices. With Replacement set,
// every index is drawn uniformly and independently, so a batch may repeat an
// index. Otherwise the indices are shuffled once per pass and handed out in
// order, reshuffling when a pass is exhausted.
type Stochastic struct {
	BatchSize   int
	Replacement bool
	// Rand is the source of randomness. The package-level generator is
	// used if it is nil.
	Rand *rand.Rand

	nSamples int
	batch    []int
	perm     []int
}

func (s *Stochastic) Init(nSamples int) error {
	if s.BatchSize < 1 {
		s.BatchSize = 1
	}
	s.nSamples = nSamples
	s.batch = make([]int, s.BatchSize)
	s.perm = s.perm[:0]
	return nil
}

func (s *Stochastic) intN(n int) int {
	if s.Rand == nil {
		return rand.IntN(n)
	}
	return s.Rand.IntN(n)
}

func (s *Stochastic) shuffle() {
	s.perm = s.perm[:0]
	for i := 0; i < s.nSamples; i++ {
		s.perm = append(s.perm, i)
	}
	swap := func(i, j int) { s.perm[i], s.perm[j] = s.perm[j], s.perm[i] }
	if s.Rand == nil {
		rand.Shuffle(len(s.perm), swap)
		return
	}
	s.Rand.Shuffle(len(s.perm), swap)
}

func (s *Stochastic) Iterate() []int {
	if s.Replacement {
		for i := range s.batch {
			s.batch[i] = s.intN(s.nSamples)
		}
		return s.batch
	}
	for i := range s.batch {
		if len(s.perm) == 0 {
			s.shuffle()
		}
		s.batch[i] = s.perm[0]
		s.perm = s.perm[1:]
	}
	return s.batch
}
