//go:build linux

package main

import "github.com/rattrayalex/HitecDServo/links"

func openPin(bcm int) (links.Pin, error) {
	return links.OpenGPIO(bcm)
}
