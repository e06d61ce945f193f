package dist

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/phil-mansfield/grainsynth/crystal"
	"github.com/phil-mansfield/table"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// LoadError is returned when a distribution file is missing, malformed, or
// (in strict mode) has fewer records than its table requires.
type LoadError struct {
	File              string
	Records, Expected int
	Err               error
}

func (e *LoadError) Error() string {
	if e.Expected > 0 && e.Records < e.Expected {
		return fmt.Sprintf(
			"Distribution file '%s' has %d records, but %d are required.",
			e.File, e.Records, e.Expected,
		)
	}
	return fmt.Sprintf(
		"Could not load distribution file '%s': %s", e.File, e.Err.Error(),
	)
}

// Cause returns the underlying error, if any.
func (e *LoadError) Cause() error { return e.Err }

// readColumns reads the given columns of a whitespace-separated table and
// checks that at least expected rows are present.
func readColumns(
	file string, colIdxs []int, expected int, strict bool,
) (cols [][]float64, rows int, err error) {
	cols, err = table.ReadTable(file, colIdxs, nil)
	if err != nil {
		return nil, 0, &LoadError{
			File: file, Err: errors.Wrap(err, "reading table"),
		}
	}
	if len(cols) != len(colIdxs) {
		return nil, 0, &LoadError{
			File: file,
			Err:  errors.Errorf("expected %d columns", len(colIdxs)),
		}
	}

	rows = len(cols[0])
	if rows < expected && strict {
		return nil, rows, &LoadError{
			File: file, Records: rows, Expected: expected,
			Err: errors.New("short table"),
		}
	}
	return cols, rows, nil
}

// LoadDiameters reads n rows of (probability, diameter) pairs.
func LoadDiameters(file string, n int, strict bool) ([]Bin, error) {
	cols, rows, err := readColumns(file, []int{0, 1}, n, strict)
	if err != nil {
		return nil, err
	}

	bins := make([]Bin, n)
	for i := 0; i < n && i < rows; i++ {
		bins[i] = Bin{Prob: cols[0][i], Value: cols[1][i]}
	}
	return bins, nil
}

// LoadShape reads sizeBins * shapeBins rows of (ratio, probability) pairs,
// grouped by size bin.
func LoadShape(file string, sizeBins, shapeBins int, strict bool) ([][]Bin, error) {
	cols, rows, err := readColumns(file, []int{0, 1}, sizeBins*shapeBins, strict)
	if err != nil {
		return nil, err
	}

	out := make([][]Bin, sizeBins)
	for s := range out {
		out[s] = make([]Bin, shapeBins)
		for j := range out[s] {
			i := s*shapeBins + j
			if i < rows {
				out[s][j] = Bin{Prob: cols[1][i], Value: cols[0][i]}
			}
		}
	}
	return out, nil
}

// LoadNValues reads sizeBins * nBins rows of (unused, probability, N)
// triplets, grouped by size bin.
func LoadNValues(file string, sizeBins, nBins int, strict bool) ([][]Bin, error) {
	cols, rows, err := readColumns(file, []int{1, 2}, sizeBins*nBins, strict)
	if err != nil {
		return nil, err
	}

	out := make([][]Bin, sizeBins)
	for s := range out {
		out[s] = make([]Bin, nBins)
		for j := range out[s] {
			i := s*nBins + j
			if i < rows {
				out[s][j] = Bin{Prob: cols[0][i], Value: cols[1][i]}
			}
		}
	}
	return out, nil
}

// LoadSVN reads sizeBins * neighborBins rows of (neighbor count,
// probability) pairs.
func LoadSVN(file string, sizeBins, neighborBins int, strict bool) ([][]float64, error) {
	cols, rows, err := readColumns(
		file, []int{0, 1}, sizeBins*neighborBins, strict,
	)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, sizeBins)
	for s := range out {
		out[s] = make([]float64, neighborBins)
		for j := range out[s] {
			if i := s*neighborBins + j; i < rows {
				out[s][j] = cols[1][i]
			}
		}
	}
	return out, nil
}

// LoadSVS reads sizeBins rows, each holding a bin label followed by
// sizeBins neighbor-size probabilities.
func LoadSVS(file string, sizeBins int, strict bool) ([][]float64, error) {
	colIdxs := make([]int, sizeBins+1)
	for i := range colIdxs {
		colIdxs[i] = i
	}
	cols, rows, err := readColumns(file, colIdxs, sizeBins, strict)
	if err != nil {
		return nil, err
	}

	out := make([][]float64, sizeBins)
	for s := range out {
		out[s] = make([]float64, sizeBins)
		if s >= rows {
			continue
		}
		for j := range out[s] {
			out[s][j] = cols[j+1][s]
		}
	}
	return out, nil
}

// LoadHeights reads n histogram heights, one per row.
func LoadHeights(file string, n int, strict bool) ([]float64, error) {
	cols, rows, err := readColumns(file, []int{0}, n, strict)
	if err != nil {
		return nil, err
	}

	out := make([]float64, n)
	for i := 0; i < n && i < rows; i++ {
		out[i] = cols[0][i]
	}
	return out, nil
}

// tokenReader reads whitespace-separated numbers from files whose first
// token is a record count and whose records may be split across lines.
type tokenReader struct {
	file string
	sc   *bufio.Scanner
	n    int
}

func newTokenReader(file string, f *os.File) *tokenReader {
	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	return &tokenReader{file: file, sc: sc}
}

// next returns the next number. ok is false at the end of the file.
func (tr *tokenReader) next() (x float64, ok bool, err error) {
	if !tr.sc.Scan() {
		if err := tr.sc.Err(); err != nil {
			return 0, false, &LoadError{File: tr.file, Err: err}
		}
		return 0, false, nil
	}
	tr.n++
	x, err = strconv.ParseFloat(tr.sc.Text(), 64)
	if err != nil {
		return 0, false, &LoadError{
			File: tr.file,
			Err:  errors.Wrapf(err, "token %d", tr.n),
		}
	}
	return x, true, nil
}

const (
	// maxRecords bounds the count header of a record file.
	maxRecords = math.MaxInt32
	// recordBlock caps the records allocated before any are read.
	recordBlock = 1 << 12
)

// readRecords reads a count header followed by up to count records of width
// numbers each.
func readRecords(file string, width int, strict bool) ([][]float64, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, &LoadError{File: file, Err: err}
	}
	defer f.Close()

	tr := newTokenReader(file, f)
	header, ok, err := tr.next()
	if err != nil {
		return nil, err
	} else if !ok {
		return nil, &LoadError{File: file, Err: errors.New("missing count")}
	}
	if math.IsNaN(header) || header < 0 || header > maxRecords ||
		header != math.Trunc(header) {
		return nil, &LoadError{
			File: file, Err: errors.Errorf("invalid record count %g", header),
		}
	}
	count := int(header)

	capacity := count
	if capacity > recordBlock {
		capacity = recordBlock
	}
	recs := make([][]float64, 0, capacity)
	for len(recs) < count {
		rec := make([]float64, width)
		for i := range rec {
			x, ok, err := tr.next()
			if err != nil {
				return nil, err
			} else if !ok {
				if strict {
					return nil, &LoadError{
						File: file, Records: len(recs), Expected: count,
						Err: errors.New("short file"),
					}
				}
				return recs, nil
			}
			rec[i] = x
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// LoadOrientations reads a count followed by that many frames of nine
// direction cosines. Each direction is normalized.
func LoadOrientations(file string, strict bool) ([]Axes, error) {
	recs, err := readRecords(file, 9, strict)
	if err != nil {
		return nil, err
	}

	out := make([]Axes, len(recs))
	for i, rec := range recs {
		for k := 0; k < 3; k++ {
			v := r3.Vec{X: rec[3*k], Y: rec[3*k+1], Z: rec[3*k+2]}
			if r3.Norm(v) == 0 {
				return nil, &LoadError{
					File: file,
					Err:  errors.Errorf("record %d has a zero-length axis", i),
				}
			}
			out[i][k] = r3.Unit(v)
		}
	}
	return out, nil
}

// LoadEulers reads a count followed by that many Euler angle triplets, and
// bins them into a fundamental-zone histogram.
func LoadEulers(file string, strict bool) (*crystal.EulerHistogram, error) {
	recs, err := readRecords(file, 3, strict)
	if err != nil {
		return nil, err
	}

	h := &crystal.EulerHistogram{}
	for _, rec := range recs {
		h.Add(crystal.Euler{rec[0], rec[1], rec[2]})
	}
	return h, nil
}
