package makita

// Two checksum groups protect the record. Group one is three nibbles over
// bytes 0..20 (byte 20 contributes its low nibble only) stored in byte 20 high
// and byte 21; group two is two nibbles over bytes 22..30 stored in byte 31.
// Each checksum is min(sum of nibbles, 255) & 0x0F.

func nybbles(p []byte) int {
	s := 0
	for _, b := range p {
		s += int(b&0x0F) + int(b>>4)
	}
	return s
}

func checkNybble(sum int) byte {
	if sum > 0xFF {
		sum = 0xFF
	}
	return byte(sum) & 0x0F
}

// NybbleSum is the checksum nibble over whole bytes of p.
func NybbleSum(p []byte) byte { return checkNybble(nybbles(p)) }

// checksums computes chk1..chk5 from the current field values.
func (r *Record) checksums() [5]byte {
	return [5]byte{
		NybbleSum(r[0:8]),
		NybbleSum(r[8:16]),
		checkNybble(nybbles(r[16:20]) + int(r[20]&0x0F)),
		NybbleSum(r[22:24]),
		NybbleSum(r[24:31]),
	}
}

// Checksums returns the stored chk1..chk5 nibbles.
func (r *Record) Checksums() [5]byte {
	return [5]byte{
		r[offErrorChk1] >> 4,
		r[offChk23] & 0x0F,
		r[offChk23] >> 4,
		r[offChk45] & 0x0F,
		r[offChk45] >> 4,
	}
}

// Verify reports whether both checksum groups match. A record whose bytes 20
// and 21 are both 0xFF is never valid.
func (r *Record) Verify() bool {
	if r[offErrorChk1] == sentinel && r[offChk23] == sentinel {
		return false
	}
	return r.checksums() == r.Checksums()
}

// Recompute overwrites the checksum nibbles from the current field values.
func (r *Record) Recompute() {
	c := r.checksums()
	r[offErrorChk1] = r[offErrorChk1]&0x0F | c[0]<<4
	r[offChk23] = c[1] | c[2]<<4
	r[offChk45] = c[3] | c[4]<<4
}
