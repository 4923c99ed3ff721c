package readfiles

import (
	"bufio"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/benhills/icepack/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSU2(t *testing.T) {
	{ // Test reading the file structure
		reader := bufio.NewReader(bytes.NewReader(inputFile))
		dim, err := readNumber(reader)
		require.NoError(t, err)
		assert.Equal(t, 2, dim)
		cells, err := readElements(reader)
		require.NoError(t, err)
		assert.Equal(t, [][3]int{{0, 1, 4}, {0, 4, 3}, {1, 2, 5}, {1, 5, 4}}, cells)
		X, Y, err := readVertices(reader)
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 1000, 2000, 0, 1000, 2000}, X)
		assert.Equal(t, 1000., Y[5])
	}
	{ // Test the assembled mesh, with markers mapped by name
		m, err := ParseSU2(bytes.NewReader(inputFile), map[string]int{"lateral": int(utils.BoundarySlipWall)}, false)
		require.NoError(t, err)
		assert.Equal(t, 4, m.NumCells())
		assert.Equal(t, 6, len(m.BoundaryEdges))
		count := make(map[int]int)
		for _, be := range m.BoundaryEdges {
			count[be.ID]++
		}
		assert.Equal(t, map[int]int{
			int(utils.BoundaryDirichlet):    1,
			int(utils.BoundaryCalvingFront): 1,
			int(utils.BoundarySlipWall):     4,
		}, count)
	}
	{ // Test reading from disk
		fname := filepath.Join(t.TempDir(), "shelf.su2")
		require.NoError(t, os.WriteFile(fname, inputFile, 0644))
		m, err := ReadSU2(fname, nil, false)
		require.NoError(t, err)
		assert.Equal(t, 6, m.NumVertices())
		_, err = ReadSU2(filepath.Join(t.TempDir(), "missing.su2"), nil, false)
		assert.Error(t, err)
	}
	{ // Test truncated and malformed input
		_, err := ParseSU2(bytes.NewReader(inputFile[:60]), nil, false)
		assert.True(t, errors.Is(err, ErrBadSU2))
		_, err = ParseSU2(bytes.NewReader([]byte("NDIME= 3\n")), nil, false)
		assert.True(t, errors.Is(err, ErrBadSU2))
	}
	{ // Test negative section sizes
		for _, input := range []string{
			"NDIME= 2\nNELEM= -1\n",
			"NDIME= 2\nNELEM= 0\nNPOIN= -3\n",
			"NDIME= 2\nNELEM= 0\nNPOIN= 0\nNMARK= -2\n",
		} {
			var err error
			assert.NotPanics(t, func() {
				_, err = ParseSU2(bytes.NewReader([]byte(input)), nil, false)
			})
			assert.True(t, errors.Is(err, ErrBadSU2), input)
		}
	}
}

var inputFile = []byte(`%
% Problem dimension
%
NDIME= 2
%
% Inner element connectivity
%
NELEM= 4
5 0 1 4
5 0 4 3
5 1 2 5
5 1 5 4
%
% Node coordinates
%
NPOIN= 6
0 0
1000 0
2000 0
0 1000
1000 1000
2000 1000
%
% Boundary elements
%
NMARK= 3
MARKER_TAG= inflow
MARKER_ELEMS= 1
3 0 3
MARKER_TAG= calving
MARKER_ELEMS= 1
3 2 5
MARKER_TAG= lateral
MARKER_ELEMS= 4
3 0 1
3 1 2
3 3 4
3 4 5
`)
