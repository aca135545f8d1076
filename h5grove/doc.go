// Package h5grove adapts HDF5 entities and numeric arrays for a lightweight
// client-side numpy decoder.
//
// It covers four concerns:
//
//   - Entity resolution: [Resolve] maps a path to a group, a dataset or,
//     when a soft or external link cannot be followed, to the link itself.
//     The outcome is an explicit [Resolution].
//   - Slice parsing: [ParseSlice] turns NumPy-style selections such as
//     "2:5,:" into a [Selection], which [Selection.Apply] evaluates on an
//     [Array].
//   - Dtype sanitizing: [SanitizeDtype] maps a NumPy dtype onto the
//     little-endian set the client decodes (int32, uint32, float32,
//     float64, plus the narrower integers which pass through).
//   - Array sanitizing: [SanitizeArray] produces a C-contiguous array in a
//     sanitized dtype, sharing the input buffer when nothing must change.
//
// On top of these, [EntityMeta], [Attributes] and [ReadData] extract the
// content of an entity, and [Encode] writes arrays as JSON, .npy or raw
// bytes.
package h5grove
