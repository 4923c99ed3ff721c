package readfiles

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/benhills/icepack/geometry2D"
	"github.com/benhills/icepack/types"
	"github.com/benhills/icepack/utils"
)

// From here: https://su2code.github.io/docs_v7/Mesh-File/
type SU2ElementType uint8

const (
	ELType_LINE          SU2ElementType = 3
	ELType_Triangle                     = 5
	ELType_Quadrilateral                = 9
)

var ErrBadSU2 = errors.New("readfiles: malformed SU2 file")

/*
ReadSU2 reads a two dimensional triangle mesh in SU2 format. Boundary markers are converted to segment ids through
the markers map, names missing from the map are looked up with utils.ParseBoundaryName.
*/
func ReadSU2(filename string, markers map[string]int, verbose bool) (m *geometry2D.Mesh, err error) {
	var (
		file *os.File
	)
	if verbose {
		fmt.Printf("Reading SU2 file named: %s\n", filename)
	}
	if file, err = os.Open(filename); err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", filename, err)
	}
	defer file.Close()
	return ParseSU2(file, markers, verbose)
}

func ParseSU2(r io.Reader, markers map[string]int, verbose bool) (m *geometry2D.Mesh, err error) {
	var (
		reader         = bufio.NewReader(r)
		dimensionality int
		cells          [][3]int
		X, Y           []float64
		bids           map[types.EdgeKey]int
	)
	if dimensionality, err = readNumber(reader); err != nil {
		return
	}
	if dimensionality != 2 {
		return nil, fmt.Errorf("%w: NDIME = %d, only 2D meshes are supported", ErrBadSU2, dimensionality)
	}
	if cells, err = readElements(reader); err != nil {
		return
	}
	if X, Y, err = readVertices(reader); err != nil {
		return
	}
	if bids, err = readBCs(reader, markers); err != nil {
		return
	}
	if verbose {
		fmt.Printf("Read %d triangles, %d vertices and %d boundary edges\n", len(cells), len(X), len(bids))
	}
	return geometry2D.NewMesh(X, Y, cells, bids)
}

func readBCs(reader *bufio.Reader, markers map[string]int) (bids map[types.EdgeKey]int, err error) {
	var (
		nType  int
		v1, v2 int
		NBCs   int
		label  string
		nEdges int
	)
	if NBCs, err = readCount(reader, "marker"); err != nil {
		return
	}
	bids = make(map[types.EdgeKey]int)
	for n := 0; n < NBCs; n++ {
		if label, err = readLabel(reader); err != nil {
			return
		}
		id, ok := markers[label]
		if !ok {
			id = int(utils.ParseBoundaryName(label))
		}
		if nEdges, err = readCount(reader, "marker element"); err != nil {
			return
		}
		for i := 0; i < nEdges; i++ {
			var line string
			if line, err = getLine(reader); err != nil {
				return
			}
			if _, err = fmt.Sscanf(line, "%d %d %d", &nType, &v1, &v2); err != nil {
				return nil, fmt.Errorf("%w: marker %s: %v", ErrBadSU2, label, err)
			}
			if SU2ElementType(nType) != ELType_LINE {
				return nil, fmt.Errorf("%w: BCs should only contain line elements in 2D", ErrBadSU2)
			}
			bids[types.NewEdgeKey([2]int{v1, v2})] = id
		}
	}
	return
}

func readVertices(reader *bufio.Reader) (VX, VY []float64, err error) {
	var (
		n, Nv int
		x, y  float64
		line  string
	)
	if Nv, err = readCount(reader, "vertex"); err != nil {
		return
	}
	VX, VY = make([]float64, Nv), make([]float64, Nv)
	for i := 0; i < Nv; i++ {
		if line, err = getLine(reader); err != nil {
			return
		}
		if n, err = fmt.Sscanf(line, "%f %f", &x, &y); err != nil || n != 2 {
			return nil, nil, fmt.Errorf("%w: unable to read coordinates from [%s]", ErrBadSU2, line)
		}
		VX[i], VY[i] = x, y
	}
	return
}

func readElements(reader *bufio.Reader) (cells [][3]int, err error) {
	var (
		n, K       int
		nType      int
		v1, v2, v3 int
		line       string
	)
	if K, err = readCount(reader, "element"); err != nil {
		return
	}
	cells = make([][3]int, K)
	for k := 0; k < K; k++ {
		if line, err = getLine(reader); err != nil {
			return
		}
		if n, err = fmt.Sscanf(line, "%d %d %d %d", &nType, &v1, &v2, &v3); err != nil || n != 4 {
			return nil, fmt.Errorf("%w: unable to read vertices from [%s]", ErrBadSU2, line)
		}
		if SU2ElementType(nType) != ELType_Triangle {
			return nil, fmt.Errorf("%w: element type %d, only triangles are supported", ErrBadSU2, nType)
		}
		cells[k] = [3]int{v1, v2, v3}
	}
	return
}

func getToken(reader *bufio.Reader) (token string, err error) {
	var (
		line string
	)
	if line, err = getLineNoComments(reader); err != nil {
		return
	}
	ind := strings.Index(line, "=")
	if ind < 0 {
		return "", fmt.Errorf("%w: badly formed input line [%s], should have an =", ErrBadSU2, line)
	}
	token = line[ind+1:]
	return
}

func readLabel(reader *bufio.Reader) (label string, err error) {
	var (
		token string
	)
	if token, err = getToken(reader); err != nil {
		return
	}
	if _, err = fmt.Sscanf(token, "%s", &label); err != nil {
		return "", fmt.Errorf("%w: unable to read label from token: [%s]", ErrBadSU2, token)
	}
	label = strings.Trim(label, " ")
	return
}

func readNumber(reader *bufio.Reader) (num int, err error) {
	var (
		token string
	)
	if token, err = getToken(reader); err != nil {
		return
	}
	if _, err = fmt.Sscanf(token, "%d", &num); err != nil {
		return 0, fmt.Errorf("%w: unable to read number from token: [%s]", ErrBadSU2, token)
	}
	return
}

// readCount reads a section size, which must not be negative
func readCount(reader *bufio.Reader, what string) (num int, err error) {
	if num, err = readNumber(reader); err != nil {
		return
	}
	if num < 0 {
		return 0, fmt.Errorf("%w: negative %s count %d", ErrBadSU2, what, num)
	}
	return
}

func getLineNoComments(reader *bufio.Reader) (line string, err error) {
	for {
		if line, err = getLine(reader); err != nil {
			return
		}
		line = strings.Trim(line, " ")
		if len(line) != 0 && line[0] != '%' {
			return
		}
	}
}

func getLine(reader *bufio.Reader) (line string, err error) {
	line, err = reader.ReadString('\n')
	if err == io.EOF && len(line) != 0 {
		err = nil
	}
	if err != nil {
		if err == io.EOF {
			err = fmt.Errorf("%w: early end of file", ErrBadSU2)
		}
		return
	}
	line = strings.TrimRight(line, "\r\n") // Strip away the newline
	return
}
