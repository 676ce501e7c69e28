package model

// BlockchainState is the immutable pair of tips: the best header chain and the
// best (fully applied) block chain.
type BlockchainState struct {
	bestHeader *StoredBlock
	bestChain  *StoredBlock
}

func NewBlockchainState(bestHeader, bestChain *StoredBlock) *BlockchainState {
	return &BlockchainState{
		bestHeader: bestHeader,
		bestChain:  bestChain,
	}
}

func (s *BlockchainState) BestHeader() *StoredBlock {
	return s.bestHeader
}

func (s *BlockchainState) BestChain() *StoredBlock {
	return s.bestChain
}

func (s *BlockchainState) SetBestHeader(block *StoredBlock) *BlockchainState {
	return &BlockchainState{bestHeader: block, bestChain: s.bestChain}
}

func (s *BlockchainState) SetBestChain(block *StoredBlock) *BlockchainState {
	return &BlockchainState{bestHeader: s.bestHeader, bestChain: block}
}

// Update replaces every tip that refers to the same block as old by updated.
// The receiver is returned unchanged when neither tip matches.
func (s *BlockchainState) Update(old, updated *StoredBlock) *BlockchainState {
	bestHeader := s.bestHeader
	bestChain := s.bestChain

	if old.Equal(bestHeader) {
		bestHeader = updated
	}

	if old.Equal(bestChain) {
		bestChain = updated
	}

	if bestHeader == s.bestHeader && bestChain == s.bestChain {
		return s
	}

	return &BlockchainState{bestHeader: bestHeader, bestChain: bestChain}
}
