package hpav

import "crypto/sha256"

// DeriveNID 按 HomePlug AV 规则由 NMK 推导 NID：
// SHA-256 迭代 5 次，取前 52 位，再在 bit 4-5 写入安全等级（0 = simple connect）。
func DeriveNID(nmk NMK, level byte) NID {
	digest := sha256.Sum256(nmk[:])
	for i := 1; i < 5; i++ {
		digest = sha256.Sum256(digest[:])
	}
	var nid NID
	copy(nid[:], digest[:7])
	nid[6] >>= 4
	nid[6] |= (level & 0x03) << 4
	return nid
}
