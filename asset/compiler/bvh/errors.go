package bvh

import "errors"

var (
	ErrBuildDepthExceeded   = errors.New("bvh: maximum leaf build depth exceeded")
	ErrInternal             = errors.New("bvh: internal error")
	ErrInvalidOptions       = errors.New("bvh: invalid build options")
	ErrUnknownPrimitiveType = errors.New("bvh: unknown primitive type")
)
