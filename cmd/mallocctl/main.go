// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mallocctl drives a malloc.Allocator from a trace, either one
// generated from a random seed or read line-by-line from stdin, and
// reports the final heap statistics and consistency check results.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cznic/mathutil"
	"github.com/xjq817/malloc"
)

func main() {
	var (
		seed      = flag.Int("seed", 1, "PRNG seed for -random")
		random    = flag.Int("random", 0, "generate and replay a random trace of this many ops instead of reading stdin")
		live      = flag.Int("live", 64, "max concurrently live allocations in a -random trace")
		maxSize   = flag.Int("max-size", 4096, "max single allocation size in a -random trace")
		capacity  = flag.Int("capacity", 0, "heap capacity in bytes (0 selects the default)")
		verbose   = flag.Bool("v", false, "log each replayed operation")
		checkAll  = flag.Bool("check", true, "run all consistency checks after replay")
		histogram = flag.Bool("histogram", false, "print a bit-length histogram of every requested allocation size")
	)
	flag.Parse()

	opts := malloc.Options{}
	if *capacity > 0 {
		opts = malloc.WithCapacity(*capacity)
	}
	var a malloc.Allocator
	if err := a.Init(opts); err != nil {
		fmt.Fprintln(os.Stderr, "mallocctl:", err)
		os.Exit(1)
	}

	var out io.Writer
	if *verbose {
		out = os.Stdout
	}

	hist := map[int]int{}
	record := func(size int) {
		if *histogram && size > 0 {
			hist[mathutil.BitLen(size)]++
		}
	}

	if *random > 0 {
		tr, err := malloc.GenerateRandomTrace(uint32(*seed), *random, *live, *maxSize)
		if err != nil {
			fmt.Fprintln(os.Stderr, "mallocctl:", err)
			os.Exit(1)
		}
		for _, op := range tr.Ops {
			if op.Kind == malloc.OpMalloc || op.Kind == malloc.OpRealloc {
				record(op.Size)
			}
		}
		if err := tr.Replay(&a, out); err != nil {
			fmt.Fprintln(os.Stderr, "mallocctl:", err)
			os.Exit(1)
		}
	} else {
		if err := replayStdin(&a, out, record); err != nil {
			fmt.Fprintln(os.Stderr, "mallocctl:", err)
			os.Exit(1)
		}
	}

	allocs, bytes := a.Stats()
	fmt.Printf("allocs=%d bytes=%d\n", allocs, bytes)

	if *histogram {
		printHistogram(hist)
	}

	if *checkAll {
		for mode := malloc.CheckSentinels; mode <= malloc.CheckSizeClass; mode++ {
			if err := a.Check(mode, io.Discard); err != nil {
				fmt.Fprintf(os.Stderr, "mallocctl: check %d failed: %v\n", mode, err)
				os.Exit(1)
			}
		}
	}
}

// printHistogram reports how many requested sizes fell in each bit-length
// bucket, i.e. each power-of-two range [2^(n-1), 2^n).
func printHistogram(hist map[int]int) {
	bits := make([]int, 0, len(hist))
	for n := range hist {
		bits = append(bits, n)
	}
	sort.Ints(bits)
	for _, n := range bits {
		fmt.Printf("bitlen=%2d count=%d\n", n, hist[n])
	}
}

// replayStdin reads one instruction per line in the form
// "a <id> <size>", "r <id> <size>" or "f <id>", the same three-letter
// vocabulary the original trace-file format used, and applies it to a.
// record is called with every requested allocation/reallocation size.
func replayStdin(a *malloc.Allocator, log io.Writer, record func(int)) error {
	live := map[string][]byte{}
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "a":
			if len(fields) != 3 {
				return fmt.Errorf("malformed alloc line: %q", sc.Text())
			}
			size, err := strconv.Atoi(fields[2])
			if err != nil {
				return err
			}
			record(size)
			b, err := a.Malloc(size)
			if err != nil {
				return err
			}
			live[fields[1]] = b
			if log != nil {
				fmt.Fprintf(log, "malloc id=%s size=%d\n", fields[1], size)
			}
		case "r":
			if len(fields) != 3 {
				return fmt.Errorf("malformed realloc line: %q", sc.Text())
			}
			size, err := strconv.Atoi(fields[2])
			if err != nil {
				return err
			}
			record(size)
			b, err := a.Realloc(live[fields[1]], size)
			if err != nil {
				return err
			}
			live[fields[1]] = b
			if log != nil {
				fmt.Fprintf(log, "realloc id=%s size=%d\n", fields[1], size)
			}
		case "f":
			if len(fields) != 2 {
				return fmt.Errorf("malformed free line: %q", sc.Text())
			}
			if err := a.Free(live[fields[1]]); err != nil {
				return err
			}
			delete(live, fields[1])
			if log != nil {
				fmt.Fprintf(log, "free id=%s\n", fields[1])
			}
		default:
			return fmt.Errorf("unknown op %q", fields[0])
		}
	}
	return sc.Err()
}
