package eifl

import "github.com/pkg/errors"

var (
	//ErrInvalidConfiguration is returned for hyperparameters or inputs a forest can never be built from.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	//ErrCapacityExceeded is returned when a tree outgrows the bound of its node store.
	ErrCapacityExceeded = errors.New("node capacity exceeded")

	//ErrNotFitted is returned by inference calls made before a successful Fit.
	ErrNotFitted = errors.New("forest is not fitted")

	//ErrDimensionMismatch is returned when a batch has a different number of columns than the training data.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
