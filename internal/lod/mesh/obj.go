package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// WriteOBJ writes s as a Wavefront OBJ document: one "v" line per vertex
// and one "f" line per face, with 1-based indices.
func WriteOBJ(w io.Writer, s *PolygonSoup) error {
	bw := bufio.NewWriter(w)
	for _, v := range s.Vertices {
		fmt.Fprintf(bw, "v %s %s %s\n", formatCoord(v.X), formatCoord(v.Y), formatCoord(v.Z))
	}
	for _, f := range s.Faces {
		bw.WriteString("f")
		for _, v := range f {
			bw.WriteByte(' ')
			bw.WriteString(strconv.Itoa(v + 1))
		}
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write obj: %w", err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
