package iface

import "golang.org/x/crypto/sha3"

// ComputeDigest returns the 32-byte SHA3-256 digest of i's canonical
// serialization (spec §3, §4.1). digest(i) = SHA3-256(serialize(i)): two
// interfaces with equal digest therefore have byte-identical canonical
// forms, and vice versa.
func ComputeDigest(i Interface) Digest {
	return Digest(sha3.Sum256([]byte(Serialize(i))))
}
