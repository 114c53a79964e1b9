// Command cascadesim wires two Cascade entities across a simulated
// classical channel with a fixed-error BB84 oracle, runs the timeline to
// completion, and reports how many bits (if any) remain in disagreement.
//
// This is a minimal demonstration harness, not a configurable benchmarking
// or plotting tool; those are out of scope.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/joeycumines/stumpy"

	"github.com/SagarPatange/sequence-go/internal/bb84"
	"github.com/SagarPatange/sequence-go/internal/cascade"
	"github.com/SagarPatange/sequence-go/internal/kernel"
)

func main() {
	keyLen := flag.Int("keylen", 10000, "length, in bits, of the key to reconcile")
	numErrors := flag.Int("errors", 50, "number of bit errors to inject into the receiver's copy")
	delay := flag.Int64("delay", 5, "classical channel one-way delay, in picoseconds")
	w := flag.Int("passes", 4, "maximum number of cascade passes")
	seed := flag.Uint64("seed", 1, "seed for deterministic error-position selection")
	flag.Parse()

	logger := stumpy.L.New(stumpy.L.WithStumpy()).Logger()

	tl := kernel.NewTimeline(kernel.WithLogger(logger), kernel.WithSeed(*seed))

	sender, err := cascade.NewCascade("cascade-1", cascade.RoleSender, cascade.WithW(*w))
	if err != nil {
		fmt.Fprintln(os.Stderr, "sender:", err)
		os.Exit(1)
	}
	receiver, err := cascade.NewCascade("cascade-2", cascade.RoleReceiver, cascade.WithW(*w))
	if err != nil {
		fmt.Fprintln(os.Stderr, "receiver:", err)
		os.Exit(1)
	}

	if err := tl.Register(sender); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := tl.Register(receiver); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cascade.NewClassicalChannel(kernel.PicoSeconds(*delay), sender, receiver)

	errorBits := pickErrorBits(*keyLen, *numErrors, *seed)
	bb84.NewFixedErrorOracle(tl, sender, receiver, errorBits, kernel.PicoSeconds(*delay))

	tl.Init()
	if err := sender.GenerateKey(*keyLen); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := tl.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if sender.Key() == nil || receiver.Key() == nil {
		fmt.Println("reconciliation did not complete: one or both keys never arrived")
		return
	}
	diff := sender.Key().HammingDistance(receiver.Key())
	fmt.Printf("finished at %s, remaining bit differences: %d/%d\n",
		kernel.FormatDuration(tl.Now()), diff, *keyLen)
}

func pickErrorBits(keyLen, numErrors int, seed uint64) []int {
	rng := rand.New(rand.NewPCG(seed, seed))
	seen := make(map[int]struct{}, numErrors)
	bits := make([]int, 0, numErrors)
	for len(bits) < numErrors && len(bits) < keyLen {
		i := rng.IntN(keyLen)
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		bits = append(bits, i)
	}
	return bits
}
