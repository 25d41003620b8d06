// motorctl is a maintenance tool for serial servo chains: scanning for
// devices, raw register access, torque control and calibration procedures.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/jessevdk/go-flags"
	"go.bug.st/serial"

	"github.com/lerobot-go/motorbus"
)

type globalOptions struct {
	Port        string `short:"p" long:"port" description:"serial device node, e.g. /dev/ttyUSB0"`
	Baud        int    `short:"b" long:"baud" default:"1000000" description:"line speed"`
	Family      string `long:"family" default:"feetech" choice:"feetech" choice:"dynamixel" description:"device family"`
	Model       string `long:"model" description:"motor model (default: first model of the family)"`
	IDs         []int  `long:"id" description:"motor id, repeatable; defaults to a bus scan"`
	Calibration string `long:"calibration" description:"calibration JSON file to load or save"`
	NumRetry    int    `long:"retries" default:"20" description:"retries per failed transaction"`
}

func main() {
	opts := &globalOptions{}
	parser := flags.NewParser(opts, flags.Default)

	parser.AddCommand("scan", "Scan the bus for devices",
		"Broadcast-ping the chain and list responding ids with their model. "+
			"Without a port, list the available serial ports instead.",
		&scanCommand{opts: opts})
	parser.AddCommand("read", "Read a register",
		"Read a named register from the selected motors and print raw values.",
		&readCommand{opts: opts})
	parser.AddCommand("write", "Write a register",
		"Write a named register on the selected motors.",
		&writeCommand{opts: opts})
	parser.AddCommand("torque", "Enable or disable torque",
		"Switch torque on or off for the selected motors.",
		&torqueCommand{opts: opts})
	parser.AddCommand("home", "Set half-turn homing offsets",
		"Place every joint at its physical midpoint first; offsets mapping "+
			"that pose to the encoder center are computed and written.",
		&homeCommand{opts: opts})
	parser.AddCommand("range", "Record ranges of motion",
		"Sample positions while you move each joint through its range; "+
			"stop with Ctrl-C.",
		&rangeCommand{opts: opts})
	parser.AddCommand("setid", "Reassign a motor's bus id",
		"Write a new id to a single motor and verify it answers.",
		&setIDCommand{opts: opts})

	if _, err := parser.Parse(); err != nil {
		os.Exit(1)
	}
}

func (o *globalOptions) family() (*motorbus.Family, error) {
	switch o.Family {
	case "feetech":
		return motorbus.FeetechSTS(), nil
	case "dynamixel":
		return motorbus.DynamixelX(), nil
	default:
		return nil, fmt.Errorf("unknown family %q", o.Family)
	}
}

// openBus connects a bus over the selected ids. Without --id it scans the
// chain first and registers every responding device.
func (o *globalOptions) openBus(ctx context.Context) (*motorbus.Bus, error) {
	if o.Port == "" {
		return nil, fmt.Errorf("no port given, use --port")
	}
	family, err := o.family()
	if err != nil {
		return nil, err
	}

	model := o.Model
	if model == "" {
		model = family.Models()[0]
	}

	ids := o.IDs
	if len(ids) == 0 {
		found, err := scanBus(ctx, o, family)
		if err != nil {
			return nil, err
		}
		for id := range found {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		if len(ids) == 0 {
			return nil, fmt.Errorf("no devices found on %s", o.Port)
		}
	}

	motors := make([]motorbus.Motor, 0, len(ids))
	for _, id := range ids {
		motors = append(motors, motorbus.Motor{
			Name:     fmt.Sprintf("motor_%d", id),
			ID:       id,
			Model:    model,
			NormMode: motorbus.Degrees,
		})
	}

	bus, err := motorbus.NewBus(motorbus.BusConfig{
		Port:     o.Port,
		BaudRate: o.Baud,
		NumRetry: o.NumRetry,
		Family:   family,
		Motors:   motors,
	})
	if err != nil {
		return nil, err
	}
	if err := bus.Connect(ctx); err != nil {
		return nil, err
	}

	if o.Calibration != "" {
		cal, err := motorbus.LoadCalibrationFile(o.Calibration)
		if err == nil {
			if err := bus.SetCalibration(cal); err != nil {
				bus.Close()
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			bus.Close()
			return nil, err
		}
	}
	return bus, nil
}

// scanBus runs a broadcast ping on a throwaway bus with no registered motors.
func scanBus(ctx context.Context, o *globalOptions, family *motorbus.Family) (map[int]int, error) {
	bus, err := motorbus.NewBus(motorbus.BusConfig{
		Port:     o.Port,
		BaudRate: o.Baud,
		NumRetry: o.NumRetry,
		Family:   family,
	})
	if err != nil {
		return nil, err
	}
	if err := bus.Connect(ctx); err != nil {
		return nil, err
	}
	defer bus.Close()

	return bus.BroadcastPing(ctx)
}

type scanCommand struct {
	opts *globalOptions
}

func (c *scanCommand) Execute(args []string) error {
	if c.opts.Port == "" {
		ports, err := serial.GetPortsList()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("no serial ports found")
			return nil
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return nil
	}

	family, err := c.opts.family()
	if err != nil {
		return err
	}
	ctx := context.Background()

	bus, err := motorbus.NewBus(motorbus.BusConfig{
		Port:     c.opts.Port,
		BaudRate: c.opts.Baud,
		NumRetry: c.opts.NumRetry,
		Family:   family,
	})
	if err != nil {
		return err
	}
	if err := bus.Connect(ctx); err != nil {
		return err
	}
	defer bus.Close()

	found, err := bus.BroadcastPing(ctx)
	if err != nil {
		return err
	}
	if len(found) > 0 {
		printDevices(family, c.opts.Port, c.opts.Baud, found)
		return nil
	}

	// Nothing at the requested rate; sweep the family's baud table, the
	// way a chain with a misconfigured adapter rate is found.
	fmt.Printf("no devices on %s at %d baud, trying other rates\n", c.opts.Port, c.opts.Baud)
	for _, rate := range family.BaudRates() {
		if rate == c.opts.Baud {
			continue
		}
		if err := bus.SetBaudRate(rate); err != nil {
			return err
		}
		found, err = bus.BroadcastPing(ctx)
		if err != nil {
			return err
		}
		if len(found) > 0 {
			printDevices(family, c.opts.Port, rate, found)
			return nil
		}
	}
	fmt.Printf("no devices on %s at any rate %s supports\n", c.opts.Port, family.Name())
	return nil
}

func printDevices(family *motorbus.Family, port string, baud int, found map[int]int) {
	fmt.Printf("devices on %s at %d baud:\n", port, baud)

	ids := make([]int, 0, len(found))
	for id := range found {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		name := "unknown"
		if spec, ok := family.ModelByNumber(found[id]); ok {
			name = spec.Name
		}
		fmt.Printf("id %3d  model %d (%s)\n", id, found[id], name)
	}
}

type readCommand struct {
	opts *globalOptions
}

func (c *readCommand) Execute(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: read <register>")
	}
	ctx := context.Background()

	bus, err := c.opts.openBus(ctx)
	if err != nil {
		return err
	}
	defer bus.Close()

	for _, name := range bus.Motors() {
		value, err := bus.Read(ctx, args[0], name, false)
		if err != nil {
			return err
		}
		fmt.Printf("%s  %s = %d\n", name, args[0], int(value))
	}
	return nil
}

type writeCommand struct {
	opts *globalOptions
}

func (c *writeCommand) Execute(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: write <register> <value>")
	}
	value, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", args[1], err)
	}
	ctx := context.Background()

	bus, err := c.opts.openBus(ctx)
	if err != nil {
		return err
	}
	defer bus.Close()

	values := make(map[string]float64)
	for _, name := range bus.Motors() {
		values[name] = float64(value)
	}
	return bus.SyncWrite(ctx, args[0], values, false)
}

type torqueCommand struct {
	opts *globalOptions
}

func (c *torqueCommand) Execute(args []string) error {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		return fmt.Errorf("usage: torque on|off")
	}
	ctx := context.Background()

	bus, err := c.opts.openBus(ctx)
	if err != nil {
		return err
	}
	defer bus.Close()

	if args[0] == "on" {
		return bus.EnableTorque(ctx)
	}
	return bus.DisableTorque(ctx)
}

type homeCommand struct {
	opts *globalOptions
}

func (c *homeCommand) Execute(args []string) error {
	ctx := context.Background()

	bus, err := c.opts.openBus(ctx)
	if err != nil {
		return err
	}
	defer bus.Close()

	fmt.Println("hold every joint at its physical midpoint, then press enter")
	fmt.Scanln()

	offsets, err := bus.SetHalfTurnHomings(ctx)
	if err != nil {
		return err
	}
	for _, name := range bus.Motors() {
		fmt.Printf("%s  homing_offset = %d\n", name, offsets[name])
	}

	if c.opts.Calibration != "" {
		if err := motorbus.SaveCalibrationFile(c.opts.Calibration, bus.Calibration()); err != nil {
			return err
		}
		fmt.Printf("calibration written to %s\n", c.opts.Calibration)
	}
	return nil
}

type rangeCommand struct {
	opts *globalOptions

	FullTurn []string `long:"full-turn" description:"motor that rotates continuously, repeatable; pinned to the full tick range"`
}

func (c *rangeCommand) Execute(args []string) error {
	ctx := context.Background()

	bus, err := c.opts.openBus(ctx)
	if err != nil {
		return err
	}
	defer bus.Close()

	stop := make(chan struct{})
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		signal.Stop(sigs)
		close(stop)
	}()

	fmt.Println("move every joint through its full range, then press Ctrl-C")
	mins, maxes, err := bus.RecordRangesOfMotion(ctx, nil, c.FullTurn, stop)
	if err != nil {
		return err
	}
	for _, name := range bus.Motors() {
		fmt.Printf("%s  range = [%d, %d]\n", name, mins[name], maxes[name])
	}

	if c.opts.Calibration != "" {
		cal := bus.Calibration()
		for _, name := range bus.Motors() {
			entry := cal[name]
			entry.RangeMin = mins[name]
			entry.RangeMax = maxes[name]
			cal[name] = entry
		}
		if err := bus.WriteCalibration(ctx, cal); err != nil {
			return err
		}
		if err := motorbus.SaveCalibrationFile(c.opts.Calibration, cal); err != nil {
			return err
		}
		fmt.Printf("calibration written to %s\n", c.opts.Calibration)
	}
	return nil
}

type setIDCommand struct {
	opts *globalOptions
}

func (c *setIDCommand) Execute(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: setid <current-id> <new-id>")
	}
	currentID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[0], err)
	}
	newID, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", args[1], err)
	}
	ctx := context.Background()

	family, err := c.opts.family()
	if err != nil {
		return err
	}
	if c.opts.Port == "" {
		return fmt.Errorf("no port given, use --port")
	}

	bus, err := motorbus.NewBus(motorbus.BusConfig{
		Port:     c.opts.Port,
		BaudRate: c.opts.Baud,
		NumRetry: c.opts.NumRetry,
		Family:   family,
	})
	if err != nil {
		return err
	}
	if err := bus.Connect(ctx); err != nil {
		return err
	}
	defer bus.Close()

	if err := bus.SetupMotorID(ctx, currentID, newID); err != nil {
		return err
	}
	fmt.Printf("motor %d is now id %d\n", currentID, newID)
	return nil
}
