package strip

import (
	"encoding/binary"
	"math/bits"
)

// Transaction is one burst handed to a Device. Bits counts the bits of
// Words to shift out.
type Transaction struct {
	Words []uint16
	Bits  int
}

// Pack appends the bytes of the transaction to dst in the order the
// controller reads them from memory: each word little endian. With
// reverse set every byte is bit-reversed, so a controller that only shifts
// MSB first puts the same waveform on the wire as an LSB first one.
func (tx Transaction) Pack(dst []byte, reverse bool) []byte {
	n := (tx.Bits + 7) / 8
	if limit := len(tx.Words) * 2; n > limit {
		n = limit
	}
	start := len(dst)
	for _, w := range tx.Words {
		if len(dst)-start >= n {
			break
		}
		dst = binary.LittleEndian.AppendUint16(dst, w)
	}
	dst = dst[:start+n]
	if reverse {
		for i := start; i < len(dst); i++ {
			dst[i] = bits.Reverse8(dst[i])
		}
	}
	return dst
}

func (s *Strip) transmit() error {
	tx := Transaction{Words: s.tx, Bits: len(s.tx) * bitsPerWord}
	if err := s.periph.dev.Transfer(tx); err != nil {
		s.log.Debug().Err(err).Int("bits", tx.Bits).Msg("transfer failed")
		return &TransferError{Err: err}
	}
	return nil
}
