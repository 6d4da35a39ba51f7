// Package descriptor contains the pure value types that describe scene
// resources without owning GPU state. Descriptors are hashable and
// comparable; two descriptors are equal exactly when their realizations are
// interchangeable, which is what makes them usable as realization cache keys.
// Float fields participate in hashes via their raw bit patterns (see
// common.Hasher), so bit-equal values always collide onto the same key.
package descriptor
