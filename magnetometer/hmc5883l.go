// Package magnetometer implements a driver for the Honeywell HMC5883L 3-axis
// digital compass and its register compatible clones.
//
// Typical usage:
//
//	dev, err := magnetometer.New(ctx, bus, magnetometer.WithGain(1.3), magnetometer.WithDeclination(8, 29))
//	heading, err := dev.ReadHeading(ctx)
//	fmt.Println(heading) // 123° 4'
//
// The driver does no locking of its own. When several drivers share a bus the
// caller serializes whole operations (a write followed by its settle delay, or
// a block read).
package magnetometer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mklimuk/compass"
)

var (
	ErrBus                = errors.New("hmc5883l: bus error")
	ErrInvalidGain        = errors.New("hmc5883l: unsupported gain")
	ErrNoReading          = errors.New("hmc5883l: axis overflow, no valid reading")
	ErrUnsupported        = errors.New("hmc5883l: operation not supported by register map")
	ErrInvalidRegisterMap = errors.New("hmc5883l: invalid register map")
	// ErrNotSettled means the register was written but the context ended during
	// the settle delay. Driver state already reflects the write.
	ErrNotSettled = errors.New("hmc5883l: interrupted before the device settled")
)

// DefaultSettleDelay is the wait after every configuration write before the
// device may be read.
const DefaultSettleDelay = 100 * time.Millisecond

// Magnetometer is the read side of a compass as used by polling loops.
type Magnetometer interface {
	ReadScaledAxes(ctx context.Context) (ScaledSample, error)
	ReadHeading(ctx context.Context) (Heading, error)
	IsDataReady(ctx context.Context) (bool, error)
	Declination() Declination
}

var _ Magnetometer = &HMC5883L{}

type Options struct {
	Address     byte
	Gauss       float64
	Declination Declination
	ConfigA     byte
	Registers   RegisterMap
	SettleDelay time.Duration
	RetryLimit  int
	Logger      *slog.Logger
}

type Option func(*Options)

// WithAddress overrides the register map's default device address.
func WithAddress(address byte) Option {
	return func(o *Options) {
		o.Address = address
	}
}

func WithGain(gauss float64) Option {
	return func(o *Options) {
		o.Gauss = gauss
	}
}

func WithDeclination(degrees, minutes int) Option {
	return func(o *Options) {
		o.Declination = NewDeclination(degrees, minutes)
	}
}

// WithConfigA sets the raw averaging/output rate/measurement byte written to
// configuration register A. It is passed through unchanged.
func WithConfigA(value byte) Option {
	return func(o *Options) {
		o.ConfigA = value
	}
}

func WithRegisterMap(m RegisterMap) Option {
	return func(o *Options) {
		o.Registers = m
	}
}

func WithSettleDelay(delay time.Duration) Option {
	return func(o *Options) {
		o.SettleDelay = delay
	}
}

// WithRetryLimit sets how many attempts a register write gets when the bus
// reports compass.ErrBusBusy. Other bus errors are never retried.
func WithRetryLimit(limit int) Option {
	return func(o *Options) {
		o.RetryLimit = limit
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// HMC5883L represents a Honeywell HMC5883L (or compatible) magnetometer.
// See: https://cdn-shop.adafruit.com/datasheets/HMC5883L_3-Axis_Digital_Compass_IC.pdf
type HMC5883L struct {
	transport   compass.RegisterBus
	address     byte
	regs        RegisterMap
	configA     byte
	gain        GainSetting
	declination Declination
	mode        Mode
	settleDelay time.Duration
	retryLimit  int
	log         *slog.Logger
	lastHeading Heading
	hasHeading  bool
	buf         []byte
}

// New validates the configuration and initializes the device. Gain and
// register map problems are reported before any bus traffic.
func New(ctx context.Context, bus compass.RegisterBus, opts ...Option) (*HMC5883L, error) {
	config := Options{
		Gauss:       DefaultGauss,
		ConfigA:     DefaultConfigA,
		Registers:   HMC5883LRegisters,
		SettleDelay: DefaultSettleDelay,
		RetryLimit:  1,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if err := config.Registers.Validate(); err != nil {
		return nil, err
	}
	gain, err := LookupGain(config.Gauss)
	if err != nil {
		return nil, err
	}
	if config.Registers.HasFixedGain {
		gain = config.Registers.FixedGain
	}
	if config.Address == 0 {
		config.Address = config.Registers.DefaultAddress
	}
	if config.RetryLimit < 1 {
		config.RetryLimit = 1
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	d := &HMC5883L{
		transport:   bus,
		address:     config.Address,
		regs:        config.Registers,
		configA:     config.ConfigA,
		gain:        gain,
		declination: config.Declination,
		mode:        ModeIdle,
		settleDelay: config.SettleDelay,
		retryLimit:  config.RetryLimit,
		log:         config.Logger.With("device", "hmc5883l", "map", config.Registers.Name, "addr", fmt.Sprintf("%#x", config.Address)),
		buf:         make([]byte, SampleSize),
	}
	if err := d.Init(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Init writes configuration register A, the gain and continuous mode, or the
// map's InitSequence when it has one. It stops at the first failing write; the
// device state is then unknown and Init must succeed before the driver is used again.
func (d *HMC5883L) Init(ctx context.Context) error {
	seq := d.regs.InitSequence
	if len(seq) == 0 {
		seq = []RegisterWrite{
			{Reg: d.regs.ConfigA, Value: d.configA},
			{Reg: d.regs.ConfigB, Value: d.gain.ConfigB()},
			{Reg: d.regs.Mode, Value: byte(ModeContinuous)},
		}
	}
	for i, w := range seq {
		if err := d.writeRegister(ctx, w.Reg, w.Value); err != nil {
			return fmt.Errorf("could not write register %#x: %w", w.Reg, err)
		}
		if i == len(seq)-1 {
			d.mode = ModeContinuous
		}
		if err := d.settle(ctx); err != nil {
			return err
		}
	}
	d.log.Debug("device initialized", "gain", d.gain.Gauss, "declination", d.declination.String())
	return nil
}

// SetGain selects a new full scale range. The previous gain stays active if the
// value is not supported or the write fails. Once written the new gain is active
// even if the settle delay is interrupted (ErrNotSettled).
func (d *HMC5883L) SetGain(ctx context.Context, gauss float64) error {
	gain, err := LookupGain(gauss)
	if err != nil {
		return err
	}
	if d.regs.HasFixedGain {
		return fmt.Errorf("%w: %s has a fixed gain", ErrUnsupported, d.regs.Name)
	}
	if err := d.writeRegister(ctx, d.regs.ConfigB, gain.ConfigB()); err != nil {
		return fmt.Errorf("could not write gain: %w", err)
	}
	d.gain = gain
	return d.settle(ctx)
}

// SetDeclination only updates driver state, see NewDeclination for normalization.
func (d *HMC5883L) SetDeclination(degrees, minutes int) {
	d.declination = NewDeclination(degrees, minutes)
}

// SetMode writes the mode register. Maps with an InitSequence do not share the
// HMC5883L mode encoding and return ErrUnsupported.
func (d *HMC5883L) SetMode(ctx context.Context, mode Mode) error {
	if len(d.regs.InitSequence) > 0 {
		return fmt.Errorf("%w: %s mode register layout", ErrUnsupported, d.regs.Name)
	}
	if err := d.writeRegister(ctx, d.regs.Mode, byte(mode)); err != nil {
		return fmt.Errorf("could not set %s mode: %w", mode, err)
	}
	d.mode = mode
	return d.settle(ctx)
}

// ReadRawAxes reads the data output block and decodes it with the register map.
func (d *HMC5883L) ReadRawAxes(ctx context.Context) (RawSample, error) {
	err := d.transport.ReadBlock(ctx, d.address, d.regs.Data, d.buf)
	if err != nil {
		return RawSample{}, fmt.Errorf("%w: could not read data block at %#x: %w", ErrBus, d.regs.Data, err)
	}
	raw := d.regs.Decode(d.buf)
	d.log.Debug("raw sample", "x", raw.X, "y", raw.Y, "z", raw.Z)
	return raw, nil
}

// ReadScaledAxes returns the field in mG. Overflowed axes are returned as invalid readings.
func (d *HMC5883L) ReadScaledAxes(ctx context.Context) (ScaledSample, error) {
	raw, err := d.ReadRawAxes(ctx)
	if err != nil {
		return ScaledSample{}, err
	}
	return raw.Scale(d.gain), nil
}

// ReadSingle triggers one measurement and reads it. The device returns to idle afterwards.
func (d *HMC5883L) ReadSingle(ctx context.Context) (ScaledSample, error) {
	if err := d.SetMode(ctx, ModeSingleShot); err != nil {
		return ScaledSample{}, err
	}
	d.mode = ModeIdle
	return d.ReadScaledAxes(ctx)
}

// ReadHeading computes the declination corrected heading from the X and Y axes.
// Z is not used, so an overflowed Z does not fail the read.
func (d *HMC5883L) ReadHeading(ctx context.Context) (Heading, error) {
	d.hasHeading = false
	sample, err := d.ReadScaledAxes(ctx)
	if err != nil {
		return 0, err
	}
	h, err := headingFrom(sample, d.declination)
	if err != nil {
		return 0, err
	}
	d.lastHeading, d.hasHeading = h, true
	return h, nil
}

// IsDataReady reports the RDY bit of the status register.
func (d *HMC5883L) IsDataReady(ctx context.Context) (bool, error) {
	if !d.regs.HasStatus {
		return false, ErrUnsupported
	}
	status, err := d.transport.ReadRegister(ctx, d.address, d.regs.Status)
	if err != nil {
		return false, fmt.Errorf("%w: could not read status register: %w", ErrBus, err)
	}
	return status&statusReady != 0, nil
}

// ReadIdentification returns identification registers A, B and C ("H43" on genuine parts).
func (d *HMC5883L) ReadIdentification(ctx context.Context) ([3]byte, error) {
	var id [3]byte
	if !d.regs.HasIdentification {
		return id, ErrUnsupported
	}
	err := d.transport.ReadBlock(ctx, d.address, d.regs.Identification, id[:])
	if err != nil {
		return id, fmt.Errorf("%w: could not read identification: %w", ErrBus, err)
	}
	return id, nil
}

func (d *HMC5883L) FormatDeclination() string {
	return d.declination.String()
}

// FormatHeading renders the heading computed by the last ReadHeading, or "none"
// when there was no read yet or the last one failed.
func (d *HMC5883L) FormatHeading() string {
	if !d.hasHeading {
		return "none"
	}
	return d.lastHeading.String()
}

func (d *HMC5883L) Gain() GainSetting {
	return d.gain
}

func (d *HMC5883L) Declination() Declination {
	return d.declination
}

func (d *HMC5883L) Mode() Mode {
	return d.mode
}

func (d *HMC5883L) Address() byte {
	return d.address
}

func (d *HMC5883L) RegisterMap() RegisterMap {
	return d.regs
}

// writeRegister writes one register, retrying while the bus reports busy.
// Callers record the new state and then call settle.
func (d *HMC5883L) writeRegister(ctx context.Context, reg, value byte) error {
	var err error
	for i := d.retryLimit; i > 0; i-- {
		err = d.transport.WriteRegister(ctx, d.address, reg, value)
		if err == nil {
			d.log.Debug("register written", "reg", fmt.Sprintf("%#x", reg), "value", fmt.Sprintf("%#x", value))
			return nil
		}
		if !errors.Is(err, compass.ErrBusBusy) {
			return fmt.Errorf("%w: %w", ErrBus, err)
		}
		// try to release the bus
		if r, ok := d.transport.(compass.Releaser); ok {
			_ = r.Release(ctx)
		}
	}
	return fmt.Errorf("%w: retry limit reached: %w", ErrBus, err)
}

// settle waits for the device after a configuration write.
func (d *HMC5883L) settle(ctx context.Context) error {
	if d.settleDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(d.settleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrNotSettled, ctx.Err())
	}
}
