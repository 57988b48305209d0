package eifl

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sbinet/npyio"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

//Height returns the number of rows of a matrix.
func Height(m mat.Matrix) int {
	h, _ := m.Dims()
	return h
}

//Width returns the number of columns of a matrix.
func Width(m mat.Matrix) int {
	_, w := m.Dims()
	return w
}

//Bootstrap draws size rows of source with replacement into a new dense matrix.
func Bootstrap(source mat.Matrix, size int, rng *rand.Rand) *mat.Dense {
	h, w := source.Dims()
	sample := mat.NewDense(size, w, nil)
	row := make([]float64, w)
	for p := 0; p < size; p++ {
		sample.SetRow(p, rowView(source, rng.Intn(h), row))
	}
	return sample
}

//rowView returns row p of m. Dense-like matrices hand out their backing storage,
//everything else is copied into buf, so the result must be treated as read-only.
func rowView(m mat.Matrix, p int, buf []float64) []float64 {
	if rv, ok := m.(mat.RawRowViewer); ok {
		return rv.RawRowView(p)
	}
	return mat.Row(buf, p, m)
}

//ReadNpy reads the content of npy file
func ReadNpy(fileName string) (*mat.Dense, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "npy header of %s", fileName)
	}

	denseMat := &mat.Dense{}
	if err := r.Read(denseMat); err != nil {
		return nil, errors.Wrapf(err, "npy data of %s", fileName)
	}
	return denseMat, nil
}

//WriteNpy stores values as a one-dimensional npy array.
func WriteNpy(fileName string, values []float64) error {
	dst, err := os.Create(fileName)
	if err != nil {
		return err
	}

	if err := npyio.Write(dst, values); err != nil {
		dst.Close()
		return errors.Wrapf(err, "write %s", fileName)
	}
	return dst.Close()
}
