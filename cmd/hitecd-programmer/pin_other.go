//go:build !linux

package main

import (
	"github.com/pkg/errors"

	"github.com/rattrayalex/HitecDServo/links"
)

func openPin(int) (links.Pin, error) {
	return nil, errors.New("direct GPIO access is only supported on linux; use -serial instead")
}
