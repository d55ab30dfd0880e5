package writer

// MemWriter captures resource file bytes in memory.
type MemWriter struct {
	Buf    []byte
	Writes int
}

// WriteFork stores a copy of buf.
func (w *MemWriter) WriteFork(buf []byte) error {
	w.Buf = append(w.Buf[:0], buf...)
	w.Writes++
	return nil
}
