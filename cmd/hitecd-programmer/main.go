// Command hitecd-programmer is an interactive console for inspecting,
// moving and reprogramming Hitec D-series servos, over either a Raspberry
// Pi GPIO pin or a single-wire serial adapter.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
	"github.com/pkg/errors"

	hitecd "github.com/rattrayalex/HitecDServo"
	"github.com/rattrayalex/HitecDServo/links"
)

var (
	gpioPin    = flag.Int("gpio", -1, "BCM number of the GPIO pin wired to the servo")
	serialPort = flag.String("serial", "", "serial port wired to the servo (e.g. /dev/ttyUSB0)")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	link, err := openLink()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer link.Close()

	servo := hitecd.New()
	if err := servo.Attach(link); err != nil {
		fmt.Fprintln(os.Stderr, describeAttachError(err))
		os.Exit(1)
	}

	shell := ishell.New()
	shell.Println(fmt.Sprintf("Connected to servo model D%d. Type 'help' for commands.", servo.ModelNumber()))
	registerCommands(shell, servo)
	shell.Run()
}

func openLink() (hitecd.Link, error) {
	switch {
	case *serialPort != "" && *gpioPin >= 0:
		return nil, errors.New("pass either -gpio or -serial, not both")
	case *serialPort != "":
		link, err := links.OpenSerial(links.SerialConfig{Port: *serialPort})
		return link, errors.Wrap(err, "opening serial link")
	case *gpioPin >= 0:
		pin, err := openPin(*gpioPin)
		if err != nil {
			return nil, errors.Wrap(err, "opening gpio pin")
		}
		return links.NewBitBang(pin), nil
	default:
		return nil, errors.New("pass -gpio <bcm> or -serial <port>")
	}
}

func describeAttachError(err error) string {
	switch {
	case hitecd.IsNoServo(err):
		return "No servo detected. Check the wiring and the power supply."
	case hitecd.IsNoPullup(err):
		return "Servo detected, but the pull-up resistor is missing. Wire a 2k resistor between the signal line and +5V."
	case hitecd.IsCorrupt(err):
		return "Garbled response from the servo. Check for loose wiring or interference."
	default:
		return err.Error()
	}
}
