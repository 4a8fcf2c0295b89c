package storage

import "io"

type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	fn    ProgressFunc
}

// withProgress reports fractions of total as r is consumed.
func withProgress(r io.Reader, total int64, fn ProgressFunc) io.Reader {
	if fn == nil || total <= 0 {
		return r
	}
	return &progressReader{r: r, total: total, fn: fn}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		f := float64(p.read) / float64(p.total)
		if f > 1 {
			f = 1
		}
		p.fn(f)
	}
	return n, err
}
