package main

import (
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/pkg/errors"

	hitecd "github.com/rattrayalex/HitecDServo"
)

func registerCommands(shell *ishell.Shell, servo *hitecd.Servo) {
	shell.AddCmd(&ishell.Cmd{
		Name: "model",
		Help: "show the servo model number",
		Func: func(c *ishell.Context) {
			model, err := servo.ReadModelNumber()
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("Servo model: D%d\n", model)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "position",
		Help: "show the current position",
		Func: func(c *ishell.Context) {
			raw, err := servo.ReadPosition()
			if err != nil {
				c.Err(err)
				return
			}
			micros, err := servo.ReadCurrentMicroseconds()
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("Position: %d raw (~%dus pulse)\n", raw, micros)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "move",
		Help: "move <microseconds 850..2150>: move and wait for the servo to settle",
		Func: func(c *ishell.Context) {
			micros, err := intArg(c, 0)
			if err != nil {
				c.Err(err)
				return
			}
			if micros < 850 || micros > 2150 {
				c.Err(errors.Errorf("pulse width %dus out of range 850..2150", micros))
				return
			}
			pos, settled, err := servo.MoveAndSettle(micros * 4)
			if err != nil {
				c.Err(err)
				return
			}
			if !settled {
				c.Println("Servo did not settle; it may be fighting a load.")
			}
			c.Printf("Position: %d raw\n", pos)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "config",
		Help: "show the full servo configuration",
		Func: func(c *ishell.Context) {
			cfg, err := servo.ReadConfig()
			if err != nil {
				c.Err(err)
				return
			}
			printConfig(c, cfg)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "configure",
		Help: "configure <field> <value>: change one setting and reprogram the servo",
		LongHelp: "Fields: id, direction (cw|ccw), speed, deadband, softstart,\n" +
			"failsafe (hold|limp|<microseconds>), overload, smartsense (on|off),\n" +
			"sensitivity",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(errors.New("usage: configure <field> <value>"))
				return
			}
			cfg, err := servo.ReadConfig()
			if err != nil {
				c.Err(err)
				return
			}
			if err := setConfigField(&cfg, c.Args[0], c.Args[1]); err != nil {
				c.Err(err)
				return
			}
			c.Println("Reprogramming; this takes a few seconds...")
			if err := servo.WriteConfig(cfg, false); err != nil {
				c.Err(err)
				return
			}
			c.Println("Done.")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "detect-range",
		Help: "probe the mechanical range of travel using gentle movement",
		Func: func(c *ishell.Context) {
			c.Println("Probing gently toward each end stop; this takes a while...")
			if err := servo.EnterGentleMovement(); err != nil {
				c.Err(err)
				return
			}
			defer func() {
				if err := servo.ExitGentleMovement(); err != nil {
					c.Err(errors.Wrap(err, "restoring servo settings"))
				}
			}()

			left, err := servo.MoveGently(0)
			if err != nil {
				c.Err(err)
				return
			}
			right, err := servo.MoveGently(hitecd.MaxRawAngle)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("Mechanical range: %d .. %d raw\n", left, right)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "reg",
		Help: "reg read <hex addr> | reg write <hex addr> <hex value>: raw register access",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(errors.New("usage: reg read <addr> | reg write <addr> <value>"))
				return
			}
			addr, err := hexArg(c.Args[1])
			if err != nil {
				c.Err(err)
				return
			}
			switch c.Args[0] {
			case "read":
				val, err := servo.ReadRegister(byte(addr))
				if err != nil {
					c.Err(err)
					return
				}
				c.Printf("0x%02X = 0x%04X\n", addr, val)
			case "write":
				if len(c.Args) != 3 {
					c.Err(errors.New("usage: reg write <addr> <value>"))
					return
				}
				val, err := hexArg(c.Args[2])
				if err != nil {
					c.Err(err)
					return
				}
				if err := servo.WriteRegister(byte(addr), uint16(val)); err != nil {
					c.Err(err)
					return
				}
				c.Printf("0x%02X <- 0x%04X\n", addr, val)
			default:
				c.Err(errors.Errorf("unknown subcommand %q", c.Args[0]))
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "reset",
		Help: "restore the factory configuration",
		Func: func(c *ishell.Context) {
			c.Print("Restore factory settings? [y/N] ")
			if strings.ToLower(strings.TrimSpace(c.ReadLine())) != "y" {
				c.Println("Aborted.")
				return
			}
			if err := servo.WriteConfig(hitecd.DefaultConfig(), false); err != nil {
				c.Err(err)
				return
			}
			c.Println("Factory settings restored.")
		},
	})
}

func printConfig(c *ishell.Context, cfg hitecd.Config) {
	c.Printf("ID:                  %d\n", cfg.ID)
	dir := "clockwise"
	if cfg.Counterclockwise {
		dir = "counterclockwise"
	}
	c.Printf("Direction:           %s\n", dir)
	c.Printf("Speed:               %d%%\n", cfg.Speed)
	c.Printf("Deadband:            %d\n", cfg.Deadband)
	c.Printf("Soft start:          %d%%\n", cfg.SoftStart)
	c.Printf("Angle at 850us:      %d\n", cfg.AngleFor850)
	c.Printf("Angle at 1500us:     %d\n", cfg.AngleFor1500)
	c.Printf("Angle at 2150us:     %d\n", cfg.AngleFor2150)
	switch {
	case cfg.FailSafeLimp:
		c.Println("Fail safe:           go limp")
	case cfg.FailSafeMicros != 0:
		c.Printf("Fail safe:           move to %dus\n", cfg.FailSafeMicros)
	default:
		c.Println("Fail safe:           hold last position")
	}
	if cfg.OverloadProtection == 100 {
		c.Println("Overload protection: off")
	} else {
		c.Printf("Overload protection: reduce power to %d%%\n", cfg.OverloadProtection)
	}
	c.Printf("Smart sense:         %v\n", cfg.SmartSense)
	if !cfg.SmartSense {
		c.Printf("Sensitivity ratio:   %d\n", cfg.SensitivityRatio)
	}
}

func setConfigField(cfg *hitecd.Config, field, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		return n, errors.Wrapf(err, "bad value %q", value)
	}
	switch field {
	case "id":
		n, err := atoi()
		if err != nil {
			return err
		}
		cfg.ID = n
	case "direction":
		switch value {
		case "cw":
			cfg.Counterclockwise = false
		case "ccw":
			cfg.Counterclockwise = true
		default:
			return errors.Errorf("direction must be cw or ccw, got %q", value)
		}
	case "speed":
		n, err := atoi()
		if err != nil {
			return err
		}
		cfg.Speed = n
	case "deadband":
		n, err := atoi()
		if err != nil {
			return err
		}
		cfg.Deadband = n
	case "softstart":
		n, err := atoi()
		if err != nil {
			return err
		}
		cfg.SoftStart = n
	case "failsafe":
		switch value {
		case "hold":
			cfg.FailSafeMicros, cfg.FailSafeLimp = 0, false
		case "limp":
			cfg.FailSafeMicros, cfg.FailSafeLimp = 0, true
		default:
			n, err := atoi()
			if err != nil {
				return err
			}
			cfg.FailSafeMicros, cfg.FailSafeLimp = n, false
		}
	case "overload":
		n, err := atoi()
		if err != nil {
			return err
		}
		cfg.OverloadProtection = n
	case "smartsense":
		switch value {
		case "on":
			cfg.SmartSense = true
			cfg.SensitivityRatio = 4095
		case "off":
			cfg.SmartSense = false
		default:
			return errors.Errorf("smartsense must be on or off, got %q", value)
		}
	case "sensitivity":
		n, err := atoi()
		if err != nil {
			return err
		}
		cfg.SmartSense = false
		cfg.SensitivityRatio = n
	default:
		return errors.Errorf("unknown field %q", field)
	}
	return nil
}

func intArg(c *ishell.Context, i int) (int, error) {
	if len(c.Args) <= i {
		return 0, errors.New("missing argument")
	}
	n, err := strconv.Atoi(c.Args[i])
	return n, errors.Wrapf(err, "bad number %q", c.Args[i])
}

func hexArg(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 16)
	return v, errors.Wrapf(err, "bad hex value %q", s)
}
