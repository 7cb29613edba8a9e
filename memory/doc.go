// Package memory implements a holographic associative memory.
//
// A value vector is bound to a key vector into a fixed-size trace; several
// bindings superpose in the same trace, and a stored value is recovered
// approximately by unbinding with its key. Each key is routed through
// num_models independently permuted copies so that cross-talk between
// superposed items averages down on recall.
//
// Architecture:
//   - Codec: real vectors of even length read as complex vectors (first half
//     real parts, second half imaginary parts)
//   - Key normalization: complex modulus or L2, plus verification
//   - Permutations: one immutable matrix per model, seeded base_seed+i
//   - Binding: circular convolution (spectral or direct) or zero-padded
//     linear convolution; unbinding convolves with the index-reversed key
//   - Hebbian: decayed outer-product accumulation as an alternative store
//
// Orchestration:
//   - KeyGenerator: key policy (onehot, normal, uniform, data-derived)
//   - Store: cleanup memory mapping a noisy recall to the nearest original
//   - TraceStore: persistence of encoded traces
//   - SimpleManager: record → keys → normalize → encode → store, and
//     retrieve → recall → cleanup
package memory
