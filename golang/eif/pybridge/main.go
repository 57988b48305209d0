// SPDX-License-Identifier: Apache-2.0

package main

/*
#cgo CFLAGS: -I.
#include <stdlib.h>
*/
import "C"

import (
	"io"
	"sync"
	"unsafe"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/tarstars/extended_isolation_forest/golang/eif/eifl"
	"github.com/tarstars/extended_isolation_forest/golang/eif/workers"
)

var (
	handleMu   sync.Mutex
	nextHandle uint64 = 1
	forests           = make(map[uint64]*eifl.EForest)

	lastErrorMu sync.Mutex
	lastError   string

	logSilenceOnce sync.Once
)

func setLastError(err error) {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	if err != nil {
		lastError = err.Error()
	} else {
		lastError = ""
	}
}

func getLastError() string {
	lastErrorMu.Lock()
	defer lastErrorMu.Unlock()
	return lastError
}

func storeForest(forest *eifl.EForest) uint64 {
	handleMu.Lock()
	defer handleMu.Unlock()
	handle := nextHandle
	forests[handle] = forest
	nextHandle++
	return handle
}

func fetchForest(handle uint64) (*eifl.EForest, error) {
	handleMu.Lock()
	defer handleMu.Unlock()
	forest, ok := forests[handle]
	if !ok {
		return nil, errors.New("invalid forest handle")
	}
	return forest, nil
}

//export FreeModel
func FreeModel(handle C.ulonglong) {
	handleMu.Lock()
	defer handleMu.Unlock()
	delete(forests, uint64(handle))
}

func sliceFromPtr(ptr *C.double, length int) ([]float64, error) {
	if length < 0 {
		return nil, errors.New("negative length")
	}
	if length == 0 {
		return nil, nil
	}
	if ptr == nil {
		return nil, errors.New("null pointer for non-empty slice")
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(ptr)), length), nil
}

//buildDense copies a row-major C matrix into Go memory.
func buildDense(ptr *C.double, rows, cols C.int) (*mat.Dense, error) {
	r := int(rows)
	c := int(cols)
	if r <= 0 || c <= 0 {
		return nil, errors.Errorf("invalid matrix dimensions %dx%d", r, c)
	}
	src, err := sliceFromPtr(ptr, r*c)
	if err != nil {
		return nil, err
	}
	data := make([]float64, r*c)
	copy(data, src)
	return mat.NewDense(r, c, data), nil
}

func buildLocked(lockMode C.int, lockedPtr *C.int, lockedLen C.int) (eifl.LockedDims, error) {
	switch eifl.LockMode(lockMode) {
	case eifl.LockNone:
		return eifl.NoLock(), nil
	case eifl.LockAll:
		return eifl.LockAllDims(), nil
	case eifl.LockSubset:
		if lockedLen < 0 || (lockedLen > 0 && lockedPtr == nil) {
			return eifl.LockedDims{}, errors.New("invalid locked dimensions")
		}
		dims := make([]int, int(lockedLen))
		if lockedLen > 0 {
			for ind, q := range unsafe.Slice((*C.int)(unsafe.Pointer(lockedPtr)), int(lockedLen)) {
				dims[ind] = int(q)
			}
		}
		return eifl.LockSubsetDims(dims...), nil
	}
	return eifl.LockedDims{}, errors.Errorf("unsupported lock mode %d", int(lockMode))
}

//export TrainForest
func TrainForest(
	featuresPtr *C.double,
	rows C.int,
	cols C.int,
	nEstimators C.int,
	maxSamples C.int,
	plus C.double,
	lockMode C.int,
	lockedPtr *C.int,
	lockedLen C.int,
	seed C.ulonglong,
	threadsNum C.int,
) C.ulonglong {
	setLastError(nil)
	logSilenceOnce.Do(func() {
		logrus.SetOutput(io.Discard)
	})

	features, err := buildDense(featuresPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return 0
	}

	locked, err := buildLocked(lockMode, lockedPtr, lockedLen)
	if err != nil {
		setLastError(err)
		return 0
	}

	params := eifl.EForestParams{
		NEstimators: int(nEstimators),
		MaxSamples:  int(maxSamples),
		Plus:        float64(plus),
		Locked:      locked,
		Seed:        uint64(seed),
	}
	if threadsNum != 1 {
		params.Scheduler = workers.NewPool(int(threadsNum))
	}

	forest, err := eifl.NewEForest(params)
	if err != nil {
		setLastError(err)
		return 0
	}
	if err := forest.Fit(features); err != nil {
		setLastError(err)
		return 0
	}
	return C.ulonglong(storeForest(forest))
}

//export ScoreForest
func ScoreForest(
	handle C.ulonglong,
	featuresPtr *C.double,
	rows C.int,
	cols C.int,
	outputPtr *C.double,
) C.int {
	setLastError(nil)
	forest, err := fetchForest(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}

	features, err := buildDense(featuresPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return 2
	}

	scores, err := forest.Score(features)
	if err != nil {
		setLastError(err)
		return 3
	}

	outSlice, err := sliceFromPtr(outputPtr, int(rows))
	if err != nil {
		setLastError(err)
		return 4
	}
	copy(outSlice, scores)
	return 0
}

//export LabelForest
func LabelForest(
	handle C.ulonglong,
	featuresPtr *C.double,
	rows C.int,
	cols C.int,
	contamination C.double,
	outputPtr *C.double,
) C.int {
	setLastError(nil)
	forest, err := fetchForest(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}

	features, err := buildDense(featuresPtr, rows, cols)
	if err != nil {
		setLastError(err)
		return 2
	}

	labels, err := forest.Label(features, float64(contamination))
	if err != nil {
		setLastError(err)
		return 3
	}

	outSlice, err := sliceFromPtr(outputPtr, int(rows))
	if err != nil {
		setLastError(err)
		return 4
	}
	for ind, label := range labels {
		outSlice[ind] = 0
		if label {
			outSlice[ind] = 1
		}
	}
	return 0
}

//export RenderTrees
func RenderTrees(handle C.ulonglong, prefix, figureType, directory *C.char, limit C.int) C.int {
	setLastError(nil)
	forest, err := fetchForest(uint64(handle))
	if err != nil {
		setLastError(err)
		return 1
	}
	goPrefix := C.GoString(prefix)
	goFigureType := C.GoString(figureType)
	goDir := C.GoString(directory)
	if goPrefix == "" {
		goPrefix = "tree"
	}
	if goFigureType == "" {
		goFigureType = "svg"
	}
	if goDir == "" {
		goDir = "."
	}
	if err := forest.RenderTrees(goPrefix, goFigureType, goDir, int(limit)); err != nil {
		setLastError(err)
		return 2
	}
	return 0
}

//export GetLastError
func GetLastError() *C.char {
	errStr := getLastError()
	if errStr == "" {
		return nil
	}
	return C.CString(errStr)
}

//export FreeCString
func FreeCString(str *C.char) {
	if str != nil {
		C.free(unsafe.Pointer(str))
	}
}

func main() {}
