package network

import "golang.org/x/sys/unix"

// wakePipe interrupts a blocking poll. Its read end sits in every poll set;
// writing a byte to the other end makes the poll return.
type wakePipe struct {
	r, w int
}

func newWakePipe() (*wakePipe, error) {
	p := make([]int, 2)
	if err := unix.Pipe(p); err != nil {
		return nil, err
	}
	for _, fd := range p {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			unix.Close(p[0])
			unix.Close(p[1])
			return nil, err
		}
	}
	return &wakePipe{r: p[0], w: p[1]}, nil
}

// signal never blocks; a full pipe already guarantees a pending wake
func (p *wakePipe) signal() {
	unix.Write(p.w, []byte{1})
}

func (p *wakePipe) drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.r, buf[:])
		if err != nil || n <= 0 {
			return
		}
	}
}

func (p *wakePipe) close() {
	unix.Close(p.r)
	unix.Close(p.w)
}
