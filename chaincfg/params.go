// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// These variables are the chain proof-of-work limit parameters for each default
// network.
var (
	bigOne = big.NewInt(1)

	// mainPowLimit is the highest proof of work value a block can have for the
	// main network. It is the value 2^224 - 1.
	mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	// regressionPowLimit is the highest proof of work value a block can have
	// for the regression test network. It is the value 2^255 - 1.
	regressionPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

	// testNet3PowLimit is the highest proof of work value a block can have for
	// the test network (version 3). It is the value 2^224 - 1.
	testNet3PowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)
)

// Checkpoint identifies a known good point in the block chain. A header at a
// checkpoint height with any other hash is rejected outright.
type Checkpoint struct {
	Height int32
	Hash   *chainhash.Hash
}

// Params defines a Bitcoin network by its consensus parameters.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// GenesisBlock is the serialized first block of the chain.
	GenesisBlock []byte

	// GenesisHash is the starting block hash.
	GenesisHash *chainhash.Hash

	// PowLimit defines the highest allowed proof of work value for a block
	// as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// The following are the heights at which the Bitcoin specific forks
	// became active.
	UahfForkHeight int32 // August 1, 2017 hard fork, emergency difficulty adjustment
	DaaForkHeight  int32 // November 13, 2017 hard fork, 144 block difficulty adjustment

	// ForkIDActivationTime is the block timestamp from which signatures must
	// commit to the fork id (SIGHASH_FORKID) and use the BIP143 digest.
	ForkIDActivationTime uint32

	// BaseSubsidy is the coinbase reward at height 0, in satoshis.
	BaseSubsidy uint64

	// SubsidyReductionInterval is the interval of blocks before the subsidy
	// is halved.
	SubsidyReductionInterval int32

	// TargetTimespan is the desired amount of time that should elapse
	// before the block difficulty requirement is examined to determine how
	// it should be changed in order to maintain the desired block
	// generation rate.
	TargetTimespan time.Duration

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// RetargetAdjustmentFactor is the adjustment factor used to limit
	// the minimum and maximum amount of adjustment that can occur between
	// difficulty retargets.
	RetargetAdjustmentFactor int64

	// ReduceMinDifficulty allows a block at the pow limit when its timestamp
	// is more than MinDiffReductionTime after its parent. Test networks only.
	ReduceMinDifficulty  bool
	MinDiffReductionTime time.Duration

	// NoDifficultyAdjustment keeps the parent difficulty for every block.
	NoDifficultyAdjustment bool

	// MedianTimeBlocks is the number of previous blocks whose median
	// timestamp a new header must exceed.
	MedianTimeBlocks int

	// MaxTimeOffset is how far in the future a header timestamp may be.
	MaxTimeOffset time.Duration

	// BIP30ExceptionHeights are the two historical heights at which a coinbase
	// duplicated an earlier, still unspent, transaction.
	BIP30ExceptionHeights []int32

	// Checkpoints ordered from oldest to newest.
	Checkpoints []Checkpoint
}

// RetargetInterval is the number of blocks between legacy difficulty retargets (2016 on mainnet).
func (p *Params) RetargetInterval() int32 {
	return int32(p.TargetTimespan / p.TargetTimePerBlock)
}

// HeaderHistoryLength is the number of ancestors the header rules need to see.
// It covers a full retarget interval plus the median time window.
func (p *Params) HeaderHistoryLength() int {
	return int(p.RetargetInterval()) + p.MedianTimeBlocks
}

// CheckpointAt returns the checkpoint at height, or nil if there is none.
func (p *Params) CheckpointAt(height int32) *Checkpoint {
	i := sort.Search(len(p.Checkpoints), func(i int) bool {
		return p.Checkpoints[i].Height >= height
	})

	if i < len(p.Checkpoints) && p.Checkpoints[i].Height == height {
		return &p.Checkpoints[i]
	}

	return nil
}

// LastCheckpoint returns the newest checkpoint, or nil if the network has none.
func (p *Params) LastCheckpoint() *Checkpoint {
	if len(p.Checkpoints) == 0 {
		return nil
	}

	return &p.Checkpoints[len(p.Checkpoints)-1]
}

func (p *Params) IsBIP30Exception(height int32) bool {
	for _, h := range p.BIP30ExceptionHeights {
		if h == height {
			return true
		}
	}

	return false
}

// MainNetParams defines the network parameters for the main Bitcoin network.
var MainNetParams = Params{
	Name: "mainnet",

	// Chain parameters
	GenesisBlock: genesisBlock,
	GenesisHash:  genesisHash,
	PowLimit:     mainPowLimit,
	PowLimitBits: 0x1d00ffff,

	UahfForkHeight: 478558, // 0000000000000000011865af4122fe3b144e2cbeea86142e8ff2fb4107352d43
	DaaForkHeight:  504031, // 0000000000000000011ebf65b60d0a3de80b8175be709d653b4c1a1beeb6ab9c

	ForkIDActivationTime: 1501590000, // August 1, 2017 12:20 UTC

	BaseSubsidy:              5_000_000_000,
	SubsidyReductionInterval: 210000,
	TargetTimespan:           time.Hour * 24 * 14, // 14 days
	TargetTimePerBlock:       time.Minute * 10,    // 10 minutes
	RetargetAdjustmentFactor: 4,                   // 25% less, 400% more
	ReduceMinDifficulty:      false,
	NoDifficultyAdjustment:   false,
	MinDiffReductionTime:     0,
	MedianTimeBlocks:         11,
	MaxTimeOffset:            2 * time.Hour,

	BIP30ExceptionHeights: []int32{
		91842, // 00000000000a4d0a398161ffc163c503763b1f4360639393e0e4c8e300e0caec
		91880, // 00000000000743f190a18c5577a3c2d2a1f610ae9601ac046a38084ccb7cd721
	},

	// Checkpoints ordered from oldest to newest.
	Checkpoints: []Checkpoint{
		{11111, newHashFromStr("0000000069e244f73d78e8fd29ba2fd2ed618bd6fa2ee92559f542fdb26e7c1d")},
		{33333, newHashFromStr("000000002dd5588a74784eaa7ab0507a18ad16a236e7b1ce69f00d7ddfb5d0a6")},
		{74000, newHashFromStr("0000000000573993a3c9e41ce34471c079dcf5f52a0e824a81e7f953b8661a20")},
		{105000, newHashFromStr("00000000000291ce28027faea320c8d2b054b2e0fe44a773f3eefb151d6bdc97")},
		{134444, newHashFromStr("00000000000005b12ffd4cd315cd34ffd4a594f430ac814c91184a0d42d2b0fe")},
		{168000, newHashFromStr("000000000000099e61ea72015e79632f216fe6cb33d7899acb35b75c8303b763")},
		{193000, newHashFromStr("000000000000059f452a5f7340de6682a977387c17010ff6e6c3bd83ca8b1317")},
		{210000, newHashFromStr("000000000000048b95347e83192f69cf0366076336c639f9b7228e9ba171342e")},
		{216116, newHashFromStr("00000000000001b4f4b433e81ee46494af945cf96014816a4e2370f11b23df4e")},
		{225430, newHashFromStr("00000000000001c108384350f74090433e7fcf79a606b8e797f065b130575932")},
		{250000, newHashFromStr("000000000000003887df1f29024b06fc2200b55f8af8f35453d7be294df2d214")},
		{267300, newHashFromStr("000000000000000a83fbd660e918f218bf37edd92b748ad940483c7c116179ac")},
		{279000, newHashFromStr("0000000000000001ae8c72a0b0c301f67e3afca10e819efa9041e458e9bd7e40")},
		{300255, newHashFromStr("0000000000000000162804527c6e9b9f0563a280525f9d08c12041def0a0f3b2")},
		{319400, newHashFromStr("000000000000000021c6052e9becade189495d1c539aa37c58917305fd15f13b")},
		{343185, newHashFromStr("0000000000000000072b8bf361d01a6ba7d445dd024203fafc78768ed4368554")},
		{352940, newHashFromStr("000000000000000010755df42dba556bb72be6a32f3ce0b6941ce4430152c9ff")},
		{382320, newHashFromStr("00000000000000000a8dc6ed5b133d0eb2fd6af56203e4159789b092defd8ab2")},
		{400000, newHashFromStr("000000000000000004ec466ce4732fe6f1ed1cddc2ed4b328fff5224276e3f6f")},
		{430000, newHashFromStr("000000000000000001868b2bb3a285f3cc6b33ea234eb70facf4dcdf22186b87")},
		{470000, newHashFromStr("0000000000000000006c539c722e280a0769abd510af0073430159d71e6d7589")},
		{510000, newHashFromStr("00000000000000000367922b6457e21d591ef86b360d78a598b14c2f1f6b0e04")},
		{552979, newHashFromStr("0000000000000000015648768ac1b788a83187d706f858919fcc5c096b76fbf2")},
		{556767, newHashFromStr("000000000000000001d956714215d96ffc00e0afda4cd0a96c96f8d802b1662b")},
	},
}

// TestNet3Params defines the network parameters for the test Bitcoin network
// (version 3).
var TestNet3Params = Params{
	Name: "testnet",

	// Chain parameters
	GenesisBlock: testNet3GenesisBlock,
	GenesisHash:  testNet3GenesisHash,
	PowLimit:     testNet3PowLimit,
	PowLimitBits: 0x1d00ffff,

	UahfForkHeight: 1155875, // 00000000f17c850672894b9a75b63a1e72830bbd5f4c8889b5c1a80e7faef138
	DaaForkHeight:  1188697, // 0000000000170ed0918077bde7b4d36cc4c91be69fa09211f748240dabe047fb

	ForkIDActivationTime: 1501590000,

	BaseSubsidy:              5_000_000_000,
	SubsidyReductionInterval: 210000,
	TargetTimespan:           time.Hour * 24 * 14, // 14 days
	TargetTimePerBlock:       time.Minute * 10,    // 10 minutes
	RetargetAdjustmentFactor: 4,                   // 25% less, 400% more
	ReduceMinDifficulty:      true,
	NoDifficultyAdjustment:   false,
	MinDiffReductionTime:     time.Minute * 20, // TargetTimePerBlock * 2
	MedianTimeBlocks:         11,
	MaxTimeOffset:            2 * time.Hour,

	// Checkpoints ordered from oldest to newest.
	Checkpoints: []Checkpoint{
		{546, newHashFromStr("000000002a936ca763904c3c35fce2f3556c559c0214345d31b1bcebf76acb70")},
		{100000, newHashFromStr("00000000009e2958c15ff9290d571bf9459e93b19765c6801ddeccadbb160a1e")},
		{200000, newHashFromStr("0000000000287bffd321963ef05feab753ebe274e1d78b2fd4e2bfe9ad3aa6f2")},
		{300001, newHashFromStr("0000000000004829474748f3d1bc8fcf893c88be255e6d7f571c548aff57abf4")},
		{400002, newHashFromStr("0000000005e2c73b8ecb82ae2dbc2e8274614ebad7172b53528aba7501f5a089")},
		{500011, newHashFromStr("00000000000929f63977fbac92ff570a9bd9e7715401ee96f2848f7b07750b02")},
		{600002, newHashFromStr("000000000001f471389afd6ee94dcace5ccc44adc18e8bff402443f034b07240")},
		{700000, newHashFromStr("000000000000406178b12a4dea3b27e13b3c4fe4510994fd667d7c1e6a3f4dc1")},
		{800010, newHashFromStr("000000000017ed35296433190b6829db01e657d80631d43f5983fa403bfdb4c1")},
		{900000, newHashFromStr("0000000000356f8d8924556e765b7a94aaebc6b5c8685dcfa2b1ee8b41acd89b")},
		{1000007, newHashFromStr("00000000001ccb893d8a1f25b70ad173ce955e5f50124261bbbc50379a612ddf")},
	},
}

// RegressionNetParams defines the network parameters for the regression test
// network. Difficulty never changes and signatures always use the fork id.
var RegressionNetParams = Params{
	Name: "regtest",

	// Chain parameters
	GenesisBlock: regTestGenesisBlock,
	GenesisHash:  regTestGenesisHash,
	PowLimit:     regressionPowLimit,
	PowLimitBits: 0x207fffff,

	UahfForkHeight: 0,
	DaaForkHeight:  0,

	ForkIDActivationTime: 0,

	BaseSubsidy:              5_000_000_000,
	SubsidyReductionInterval: 150,
	TargetTimespan:           time.Hour * 24 * 14, // 14 days
	TargetTimePerBlock:       time.Minute * 10,    // 10 minutes
	RetargetAdjustmentFactor: 4,                   // 25% less, 400% more
	ReduceMinDifficulty:      true,
	NoDifficultyAdjustment:   true,
	MinDiffReductionTime:     time.Minute * 20, // TargetTimePerBlock * 2
	MedianTimeBlocks:         11,
	MaxTimeOffset:            2 * time.Hour,

	Checkpoints: nil,
}

var networks = map[string]*Params{
	"mainnet":  &MainNetParams,
	"main":     &MainNetParams,
	"testnet":  &TestNet3Params,
	"testnet3": &TestNet3Params,
	"regtest":  &RegressionNetParams,
}

func GetChainParams(network string) (*Params, error) {
	params, ok := networks[network]
	if !ok {
		return nil, fmt.Errorf("unknown network %s", network)
	}

	return params, nil
}
