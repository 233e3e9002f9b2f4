package present

import "github.com/opd-ai/go-xui/internal/render"

// toBGRX appends rows [y0, y0+rows) of the first w columns of s in the
// byte order of a 24 or 32 bit ZPixmap. Premultiplied color is already the
// color over black.
func toBGRX(dst []byte, s *render.Surface, w, y0, rows int) []byte {
	for y := y0; y < y0+rows; y++ {
		row := s.Pix[y*s.Stride : y*s.Stride+4*w]
		for i := 0; i < len(row); i += 4 {
			dst = append(dst, row[i+2], row[i+1], row[i], 0xff)
		}
	}
	return dst
}
