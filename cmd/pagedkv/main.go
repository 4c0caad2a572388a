// Package main provides the pagedkv CLI.
//
// The bench command derives a realistic batch of variable-length
// sequences from a text file (one sequence per line, lengths measured by
// tokenizing with tiktoken) and times the paged cache copy engine on it.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/born-ml/pagedkv/kvcache"
	"github.com/born-ml/pagedkv/tensor"
)

const version = "v0.0.1-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("pagedkv %s\n", version)
			return
		case "bench":
			if err := runBench(os.Args[2:]); err != nil {
				fmt.Fprintln(os.Stderr, "bench:", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Println("pagedkv - paged KV cache population engine")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  bench      Benchmark the copy engine on a text file")
}

func runBench(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	textPath := fs.String("text", "", "text file, one sequence per line")
	blockSize := fs.Int("block-size", 16, "token slots per cache block")
	numHeads := fs.Int("heads", 16, "attention heads")
	headDim := fs.Int("head-dim", 64, "elements per head")
	dtypeName := fs.String("dtype", "float32", "element type: float32, float16, bfloat16")
	iters := fs.Int("iters", 100, "benchmark iterations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *textPath == "" {
		return fmt.Errorf("missing -text")
	}

	dtype, err := parseDType(*dtypeName)
	if err != nil {
		return err
	}

	seqLens, err := tokenizeLines(*textPath)
	if err != nil {
		return err
	}
	if len(seqLens) == 0 {
		return fmt.Errorf("no non-empty lines in %s", *textPath)
	}

	cuSeqLens := make([]int32, len(seqLens)+1)
	maxSeqLen := 0
	for i, n := range seqLens {
		cuSeqLens[i+1] = cuSeqLens[i] + n
		if int(n) > maxSeqLen {
			maxSeqLen = int(n)
		}
	}
	totalTokens := int(cuSeqLens[len(seqLens)])

	maxBlocksPerSeq := (maxSeqLen + *blockSize - 1) / *blockSize
	numBlocks := (totalTokens + *blockSize - 1) / *blockSize
	// Headroom so per-sequence rounding never exhausts the pool.
	numBlocks += len(seqLens)

	cfg := kvcache.Config{
		NumBlocks: numBlocks,
		BlockSize: *blockSize,
		NumHeads:  *numHeads,
		HeadDim:   *headDim,
	}
	hidden := cfg.HiddenSize()

	key, err := tensor.NewRaw(tensor.Shape{totalTokens, hidden}, dtype)
	if err != nil {
		return err
	}
	value, err := tensor.NewRaw(tensor.Shape{totalTokens, hidden}, dtype)
	if err != nil {
		return err
	}
	for i := range key.Data() {
		key.Data()[i] = byte(i)
		value.Data()[i] = byte(i >> 1)
	}

	keyCache, valueCache, err := kvcache.NewCaches(cfg, dtype)
	if err != nil {
		return err
	}
	table, err := kvcache.NewAllocator(cfg.NumBlocks).AllocTable(seqLens, cfg.BlockSize, maxBlocksPerSeq)
	if err != nil {
		return err
	}

	fmt.Printf("batch=%d tokens=%d max_seq_len=%d blocks=%d dtype=%s\n",
		len(seqLens), totalTokens, maxSeqLen, numBlocks, dtype)

	start := time.Now()
	for i := 0; i < *iters; i++ {
		if err := kvcache.CopyToPaged(cfg, key, value, keyCache, valueCache, seqLens, cuSeqLens, table, maxSeqLen); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	perIter := elapsed / time.Duration(*iters)
	bytesPerIter := float64(totalTokens*hidden*dtype.Size()) * 2 // key + value
	fmt.Printf("iters=%d per_iter=%s tokens_per_sec=%.0f throughput=%.2f GB/s\n",
		*iters, perIter,
		float64(totalTokens)/perIter.Seconds(),
		bytesPerIter/perIter.Seconds()/1e9)
	return nil
}

// tokenizeLines returns one token count per non-empty line of path.
func tokenizeLines(path string) ([]int32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer: %w", err)
	}

	var seqLens []int32
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		seqLens = append(seqLens, int32(len(enc.Encode(line, nil, nil))))
	}
	return seqLens, scanner.Err()
}

func parseDType(name string) (tensor.DataType, error) {
	switch name {
	case "float32":
		return tensor.Float32, nil
	case "float16":
		return tensor.Float16, nil
	case "bfloat16":
		return tensor.BFloat16, nil
	default:
		return 0, fmt.Errorf("unknown dtype %q", name)
	}
}
