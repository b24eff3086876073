package database_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/hashchain/foundation/blockchain/database"
	"github.com/ardanlabs/hashchain/foundation/blockchain/genesis"
	"github.com/ardanlabs/hashchain/foundation/blockchain/signature"
	"github.com/ardanlabs/hashchain/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newGenesis(difficulty uint, workers int) genesis.Genesis {
	gen := genesis.Default()
	gen.Difficulty = difficulty
	gen.Workers = workers
	return gen
}

func newDatabase(t *testing.T, gen genesis.Genesis, strg database.Storage) *database.Database {
	t.Helper()

	if strg == nil {
		m, err := memory.New()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct memory storage: %v", failed, err)
		}
		strg = m
	}

	db, err := database.New(database.Config{Genesis: gen, Storage: strg})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the database: %v", failed, err)
	}

	return db
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to start a chain with a genesis block.")
	{
		db := newDatabase(t, newGenesis(3, 1), nil)

		blocks, err := db.Blocks()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to retrieve the blocks: %v", failed, err)
		}

		if len(blocks) != 1 || db.Count() != 1 {
			t.Fatalf("\t%s\tShould have exactly one block, got %d", failed, len(blocks))
		}
		t.Logf("\t%s\tShould have exactly one block.", success)

		gb := blocks[0]
		if gb.Index != 0 || gb.PrevBlockHash != signature.ZeroHash || len(gb.Transactions) != 0 {
			t.Fatalf("\t%s\tShould have the genesis shape: %+v", failed, gb)
		}
		t.Logf("\t%s\tShould have the genesis shape.", success)

		if gb.Hash != db.Digest(database.ToBlock(gb)) {
			t.Fatalf("\t%s\tShould have a genesis hash that matches its content.", failed)
		}
		t.Logf("\t%s\tShould have a genesis hash that matches its content.", success)

		if report := db.Validate(); !report.Valid() || report.Blocks != 1 {
			t.Fatalf("\t%s\tShould have a valid chain: %s", failed, report)
		}
		t.Logf("\t%s\tShould have a valid chain.", success)

		latest, err := db.LatestBlock()
		if err != nil || latest.Hash() != gb.Hash {
			t.Fatalf("\t%s\tShould get the genesis block as the latest block: %v", failed, err)
		}
		t.Logf("\t%s\tShould get the genesis block as the latest block.", success)
	}
}

func Test_Digest(t *testing.T) {
	t.Log("Given the need to produce a digest that excludes the hash.")
	{
		db := newDatabase(t, newGenesis(2, 1), nil)

		block, err := db.Mine(context.Background(), []string{"A→B:5"})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine a block.", success)

		d1 := db.Digest(block)
		d2 := db.Digest(block)
		if d1 != d2 || d1 != block.Hash() {
			t.Fatalf("\t%s\tShould get the same digest twice and equal to the hash.", failed)
		}
		t.Logf("\t%s\tShould get the same digest twice and equal to the hash.", success)

		bd := database.NewBlockData(block)
		bd.Hash = strings.Repeat("f", 64)
		if db.Digest(database.ToBlock(bd)) != d1 {
			t.Fatalf("\t%s\tShould not change the digest when only the hash changes.", failed)
		}
		t.Logf("\t%s\tShould not change the digest when only the hash changes.", success)

		bd.Nonce++
		if db.Digest(database.ToBlock(bd)) == d1 {
			t.Fatalf("\t%s\tShould change the digest when the nonce changes.", failed)
		}
		t.Logf("\t%s\tShould change the digest when the nonce changes.", success)

		var zero database.Hasher
		if zero.Digest(block) != d1 {
			t.Fatalf("\t%s\tShould get a sha256 digest from the zero value hasher.", failed)
		}
		t.Logf("\t%s\tShould get a sha256 digest from the zero value hasher.", success)
	}
}

func Test_Mine(t *testing.T) {
	type table struct {
		name       string
		difficulty uint
		workers    int
		strategy   string
		trans      [][]string
	}

	tt := []table{
		{name: "scenario", difficulty: 2, workers: 1, strategy: signature.StrategySHA256, trans: [][]string{{"A→B:5"}}},
		{name: "sequential", difficulty: 3, workers: 1, strategy: signature.StrategySHA256, trans: [][]string{{"A→B:5", "B→C:2"}, {"C→A:1"}}},
		{name: "workers", difficulty: 3, workers: 4, strategy: signature.StrategySHA256, trans: [][]string{{"tx1"}, {"tx2"}, {"tx3"}}},
		{name: "keccak", difficulty: 2, workers: 2, strategy: signature.StrategyKeccak256, trans: [][]string{{"tx1", "tx2"}}},
	}

	t.Log("Given the need to mine blocks onto the chain.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen mining %d blocks at difficulty %d with %d workers.", testID, len(tst.trans), tst.difficulty, tst.workers)
			{
				f := func(t *testing.T) {
					gen := newGenesis(tst.difficulty, tst.workers)
					gen.HashStrategy = tst.strategy
					db := newDatabase(t, gen, nil)

					for i, trans := range tst.trans {
						block, err := db.Mine(context.Background(), trans)
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to mine block %d: %v", failed, testID, i+1, err)
						}

						if block.Index != uint64(i+1) {
							t.Fatalf("\t%s\tTest %d:\tShould get index %d, got %d", failed, testID, i+1, block.Index)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to mine every block.", success, testID)

					blocks, err := db.Blocks()
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to retrieve the blocks: %v", failed, testID, err)
					}

					if len(blocks) != len(tst.trans)+1 {
						t.Fatalf("\t%s\tTest %d:\tShould have %d blocks, got %d", failed, testID, len(tst.trans)+1, len(blocks))
					}
					t.Logf("\t%s\tTest %d:\tShould have %d blocks.", success, testID, len(blocks))

					zeros := strings.Repeat("0", int(tst.difficulty))
					for i := 1; i < len(blocks); i++ {
						if blocks[i].PrevBlockHash != blocks[i-1].Hash {
							t.Fatalf("\t%s\tTest %d:\tShould link block %d to its parent.", failed, testID, i)
						}
						if blocks[i].Index != blocks[i-1].Index+1 {
							t.Fatalf("\t%s\tTest %d:\tShould have sequential index for block %d.", failed, testID, i)
						}
						if !strings.HasPrefix(blocks[i].Hash, zeros) {
							t.Fatalf("\t%s\tTest %d:\tShould have %d leading zeros for block %d: %s", failed, testID, tst.difficulty, i, blocks[i].Hash)
						}
						for j, tx := range tst.trans[i-1] {
							if blocks[i].Transactions[j] != tx {
								t.Fatalf("\t%s\tTest %d:\tShould preserve transaction order for block %d.", failed, testID, i)
							}
						}
					}
					t.Logf("\t%s\tTest %d:\tShould link, sequence and solve every block.", success, testID)

					if report := db.Validate(); !report.Valid() {
						t.Fatalf("\t%s\tTest %d:\tShould have a valid chain: %s", failed, testID, report)
					}
					t.Logf("\t%s\tTest %d:\tShould have a valid chain.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_MineNoTransactions(t *testing.T) {
	t.Log("Given the need to refuse mining with no usable transactions.")
	{
		db := newDatabase(t, newGenesis(2, 1), nil)

		if _, err := db.Mine(context.Background(), nil); !errors.Is(err, database.ErrNoTransactions) {
			t.Fatalf("\t%s\tShould get ErrNoTransactions: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrNoTransactions.", success)

		if _, err := db.Mine(context.Background(), []string{"A→B:5", "B\xc3C:1"}); !database.IsTransactionError(err) {
			t.Fatalf("\t%s\tShould get a transaction error for invalid utf-8: %v", failed, err)
		}
		t.Logf("\t%s\tShould get a transaction error for invalid utf-8.", success)

		if db.Count() != 1 {
			t.Fatalf("\t%s\tShould not change the chain, got %d blocks", failed, db.Count())
		}
		t.Logf("\t%s\tShould not change the chain.", success)
	}
}

func Test_MineCancel(t *testing.T) {
	t.Log("Given the need to cancel a mining operation.")
	{
		for _, workers := range []int{1, 3} {
			db := newDatabase(t, newGenesis(64, workers), nil)

			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			_, err := db.Mine(ctx, []string{"tx"})
			cancel()

			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("\t%s\tShould get a deadline error with %d workers: %v", failed, workers, err)
			}
			t.Logf("\t%s\tShould get a deadline error with %d workers.", success, workers)

			if db.Count() != 1 {
				t.Fatalf("\t%s\tShould not change the chain, got %d blocks", failed, db.Count())
			}
			t.Logf("\t%s\tShould not change the chain.", success)
		}
	}
}

func Test_Extend(t *testing.T) {
	t.Log("Given the need to validate a candidate before extending the chain.")
	{
		gen := newGenesis(2, 1)
		db := newDatabase(t, gen, nil)

		pow, err := database.NewPOW(database.POWConfig{Difficulty: gen.Difficulty})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the engine: %v", failed, err)
		}

		tail, _ := db.LatestBlock()
		candidate := database.Block{
			Index:         tail.Index + 1,
			Transactions:  []string{"A→B:5"},
			TimeStamp:     time.Now().UnixMilli(),
			PrevBlockHash: tail.Hash(),
		}

		nonce, proof, err := pow.FindNonce(context.Background(), candidate)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to find a nonce: %v", failed, err)
		}
		candidate.Nonce = nonce
		t.Logf("\t%s\tShould be able to find a nonce.", success)

		t.Logf("\tTest 0:\tWhen the candidate does not link to the tail.")
		{
			bad := candidate
			bad.PrevBlockHash = strings.Repeat("a", 64)
			err := db.Extend(bad, proof)
			if !database.IsLinkageError(err) {
				t.Fatalf("\t%s\tTest 0:\tShould get a linkage error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould get a linkage error.", success)
		}

		t.Logf("\tTest 1:\tWhen the candidate skips an index.")
		{
			bad := candidate
			bad.Index = 5
			if err := db.Extend(bad, proof); !database.IsLinkageError(err) {
				t.Fatalf("\t%s\tTest 1:\tShould get a linkage error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould get a linkage error.", success)
		}

		t.Logf("\tTest 2:\tWhen the proof does not solve the puzzle.")
		{
			if err := db.Extend(candidate, strings.Repeat("f", 64)); !database.IsProofError(err) {
				t.Fatalf("\t%s\tTest 2:\tShould get a proof error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould get a proof error.", success)
		}

		t.Logf("\tTest 3:\tWhen the proof does not match the content.")
		{
			bad := candidate
			bad.Transactions = []string{"A→B:6"}
			if err := db.Extend(bad, proof); !database.IsProofError(err) {
				t.Fatalf("\t%s\tTest 3:\tShould get a proof error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould get a proof error.", success)

			if db.Count() != 1 {
				t.Fatalf("\t%s\tTest 3:\tShould not change the chain after rejections.", failed)
			}
			t.Logf("\t%s\tTest 3:\tShould not change the chain after rejections.", success)
		}

		t.Logf("\tTest 4:\tWhen the candidate carries no transactions.")
		{
			empty := candidate
			empty.Transactions = nil
			nonce, emptyProof, err := pow.FindNonce(context.Background(), empty)
			if err != nil {
				t.Fatalf("\t%s\tTest 4:\tShould be able to find a nonce: %v", failed, err)
			}
			empty.Nonce = nonce

			if err := db.Extend(empty, emptyProof); !errors.Is(err, database.ErrNoTransactions) {
				t.Fatalf("\t%s\tTest 4:\tShould get ErrNoTransactions for a solved empty block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 4:\tShould get ErrNoTransactions for a solved empty block.", success)
		}

		t.Logf("\tTest 5:\tWhen a transaction is not valid utf-8.")
		{
			bad := candidate
			bad.Transactions = []string{"A\xffB:5"}
			nonce, badProof, err := pow.FindNonce(context.Background(), bad)
			if err != nil {
				t.Fatalf("\t%s\tTest 5:\tShould be able to find a nonce: %v", failed, err)
			}
			bad.Nonce = nonce

			if err := db.Extend(bad, badProof); !database.IsTransactionError(err) {
				t.Fatalf("\t%s\tTest 5:\tShould get a transaction error: %v", failed, err)
			}
			t.Logf("\t%s\tTest 5:\tShould get a transaction error.", success)

			if db.Count() != 1 {
				t.Fatalf("\t%s\tTest 5:\tShould not change the chain after rejections.", failed)
			}
			t.Logf("\t%s\tTest 5:\tShould not change the chain after rejections.", success)
		}

		t.Logf("\tTest 6:\tWhen the candidate and proof are valid.")
		{
			if err := db.Extend(candidate, proof); err != nil {
				t.Fatalf("\t%s\tTest 6:\tShould be able to extend the chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 6:\tShould be able to extend the chain.", success)

			latest, _ := db.LatestBlock()
			if latest.Hash() != proof || latest.Index != 1 {
				t.Fatalf("\t%s\tTest 6:\tShould seal the block with the proof.", failed)
			}
			t.Logf("\t%s\tTest 6:\tShould seal the block with the proof.", success)

			if err := db.Extend(candidate, proof); !database.IsLinkageError(err) {
				t.Fatalf("\t%s\tTest 6:\tShould not accept the same candidate twice: %v", failed, err)
			}
			t.Logf("\t%s\tTest 6:\tShould not accept the same candidate twice.", success)

			if err := db.Extend(latest, proof); !errors.Is(err, database.ErrBlockSealed) {
				t.Fatalf("\t%s\tTest 6:\tShould not accept a sealed block: %v", failed, err)
			}
			t.Logf("\t%s\tTest 6:\tShould not accept a sealed block.", success)
		}
	}
}

func Test_Tamper(t *testing.T) {
	type table struct {
		name   string
		tamper func(blocks []database.BlockData)
		bad    []uint64
	}

	tt := []table{
		{
			name:   "clear",
			tamper: func(blocks []database.BlockData) { blocks[1].Transactions = []string{} },
			bad:    []uint64{1},
		},
		{
			name: "bitflip",
			tamper: func(blocks []database.BlockData) {
				b := []byte(blocks[2].Transactions[0])
				b[0] ^= 0x01
				blocks[2].Transactions[0] = string(b)
			},
			bad: []uint64{2},
		},
		{
			name: "rehash",
			tamper: func(blocks []database.BlockData) {
				blocks[1].Hash = "00" + strings.Repeat("1", 62)
			},
			bad: []uint64{1, 2},
		},
		{
			name: "encoding",
			tamper: func(blocks []database.BlockData) {
				b := []byte(blocks[1].Transactions[0])
				b[1] ^= 0x40
				blocks[1].Transactions[0] = string(b)
			},
			bad: []uint64{1},
		},
		{
			name:   "genesis",
			tamper: func(blocks []database.BlockData) { blocks[0].TimeStamp++ },
			bad:    []uint64{0},
		},
	}

	t.Log("Given the need to detect a tampered chain.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen the %s tamper is applied.", testID, tst.name)
			{
				f := func(t *testing.T) {
					strg := &sliceStorage{}
					db := newDatabase(t, newGenesis(2, 1), strg)

					for _, trans := range [][]string{{"A→B:5"}, {"B→C:1", "C→D:2"}} {
						if _, err := db.Mine(context.Background(), trans); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to mine: %v", failed, testID, err)
						}
					}

					if report := db.Validate(); !report.Valid() {
						t.Fatalf("\t%s\tTest %d:\tShould have a valid chain before tampering: %s", failed, testID, report)
					}
					t.Logf("\t%s\tTest %d:\tShould have a valid chain before tampering.", success, testID)

					tst.tamper(strg.blocks)

					report := db.Validate()
					if report.Valid() {
						t.Fatalf("\t%s\tTest %d:\tShould detect the tampering.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould detect the tampering.", success, testID)

					if report.Blocks != 3 {
						t.Fatalf("\t%s\tTest %d:\tShould walk every block, got %d", failed, testID, report.Blocks)
					}
					t.Logf("\t%s\tTest %d:\tShould walk every block.", success, testID)

					got := report.Indexes()
					if len(got) != len(tst.bad) {
						t.Fatalf("\t%s\tTest %d:\tShould report offending blocks %v, got %v", failed, testID, tst.bad, got)
					}
					for i := range got {
						if got[i] != tst.bad[i] {
							t.Fatalf("\t%s\tTest %d:\tShould report offending blocks %v, got %v", failed, testID, tst.bad, got)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould report offending blocks %v.", success, testID, got)

					if _, err := database.New(database.Config{Genesis: newGenesis(2, 1), Storage: strg}); err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould refuse to load a tampered chain.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould refuse to load a tampered chain.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Load(t *testing.T) {
	t.Log("Given the need to load a chain already held in storage.")
	{
		strg := &sliceStorage{}
		db := newDatabase(t, newGenesis(2, 1), strg)

		block, err := db.Mine(context.Background(), []string{"A→B:5"})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine: %v", failed, err)
		}

		loaded := newDatabase(t, newGenesis(2, 1), strg)
		if loaded.Count() != 2 {
			t.Fatalf("\t%s\tShould load 2 blocks, got %d", failed, loaded.Count())
		}
		t.Logf("\t%s\tShould load 2 blocks.", success)

		latest, _ := loaded.LatestBlock()
		if latest.Hash() != block.Hash() {
			t.Fatalf("\t%s\tShould load the latest block.", failed)
		}
		t.Logf("\t%s\tShould load the latest block.", success)

		got, err := loaded.GetBlock(1)
		if err != nil || got.Hash != block.Hash() {
			t.Fatalf("\t%s\tShould get block 1 by index: %v", failed, err)
		}
		t.Logf("\t%s\tShould get block 1 by index.", success)

		if _, err := loaded.GetBlock(2); !errors.Is(err, database.ErrBlockNotFound) {
			t.Fatalf("\t%s\tShould get ErrBlockNotFound past the tail, got %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrBlockNotFound past the tail.", success)
	}
}

func Test_NewPOW(t *testing.T) {
	t.Log("Given the need to bound the difficulty between 1 and the digest length.")
	{
		if _, err := database.NewPOW(database.POWConfig{Difficulty: 65}); err == nil {
			t.Fatalf("\t%s\tShould reject a difficulty of 65.", failed)
		}
		t.Logf("\t%s\tShould reject a difficulty of 65.", success)

		if _, err := database.NewPOW(database.POWConfig{Difficulty: 0}); err == nil {
			t.Fatalf("\t%s\tShould reject a difficulty of 0.", failed)
		}
		t.Logf("\t%s\tShould reject a difficulty of 0.", success)

		pow, err := database.NewPOW(database.POWConfig{Difficulty: 3})
		if err != nil {
			t.Fatalf("\t%s\tShould accept a difficulty of 3: %v", failed, err)
		}

		if !pow.IsSolved("000" + strings.Repeat("a", 61)) {
			t.Fatalf("\t%s\tShould accept a hash with 3 leading zeros.", failed)
		}
		if pow.IsSolved("00" + strings.Repeat("a", 62)) {
			t.Fatalf("\t%s\tShould reject a hash with 2 leading zeros.", failed)
		}
		if pow.IsSolved("000") {
			t.Fatalf("\t%s\tShould reject a hash of the wrong length.", failed)
		}
		t.Logf("\t%s\tShould check the leading zeros of a 64 character hash.", success)
	}
}

func Test_FindNonceSmallest(t *testing.T) {
	t.Log("Given the need to find the smallest nonce with a single worker.")
	{
		pow, err := database.NewPOW(database.POWConfig{Difficulty: 2, Workers: 1})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the engine: %v", failed, err)
		}

		block := database.Block{Index: 1, Transactions: []string{"A→B:5"}, TimeStamp: 1, PrevBlockHash: "abc"}

		nonce, hash, err := pow.FindNonce(context.Background(), block)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to find a nonce: %v", failed, err)
		}

		var hasher database.Hasher
		for n := range nonce {
			block.Nonce = n
			if strings.HasPrefix(hasher.Digest(block), "00") {
				t.Fatalf("\t%s\tShould not have a smaller solving nonce %d than %d.", failed, n, nonce)
			}
		}

		block.Nonce = nonce
		if hasher.Digest(block) != hash {
			t.Fatalf("\t%s\tShould return the digest for the nonce.", failed)
		}
		t.Logf("\t%s\tShould find the smallest nonce %d.", success, nonce)
	}
}

// =============================================================================

// sliceStorage is a storage that exposes its blocks so tests can tamper with
// the chain behind the database's back.
type sliceStorage struct {
	blocks []database.BlockData
}

func (s *sliceStorage) Write(blockData database.BlockData) error {
	s.blocks = append(s.blocks, blockData)
	return nil
}

func (s *sliceStorage) GetBlock(num uint64) (database.BlockData, error) {
	if num >= uint64(len(s.blocks)) {
		return database.BlockData{}, errors.New("not found")
	}
	return s.blocks[num], nil
}

func (s *sliceStorage) ForEach() database.Iterator {
	return &sliceIterator{storage: s}
}

func (s *sliceStorage) Close() error { return nil }

type sliceIterator struct {
	storage *sliceStorage
	current uint64
	eoc     bool
}

func (si *sliceIterator) Next() (database.BlockData, error) {
	if si.current >= uint64(len(si.storage.blocks)) {
		si.eoc = true
		return database.BlockData{}, errors.New("end of chain")
	}

	bd := si.storage.blocks[si.current]
	si.current++
	return bd, nil
}

func (si *sliceIterator) Done() bool {
	return si.eoc
}
