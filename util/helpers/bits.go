package helpers

func GetBit(b uint8, pos uint8) bool {
	return b&(1<<pos) != 0
}

func SetBit(b *uint8, pos uint8, val bool) {
	if val {
		*b |= 1 << pos
	} else {
		*b &^= 1 << pos
	}
}
