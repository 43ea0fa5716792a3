// Package ble connects to a GoCube smart cube so that physical turns can be
// mirrored on the virtual cube.
package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"

	"github.com/SeamusWaldron/cubeturn/internal/protocol"
)

var (
	ErrNotConnected     = errors.New("ble: not connected to device")
	ErrAlreadyConnected = errors.New("ble: already connected to a device")
	ErrDeviceNotFound   = errors.New("ble: device not found")
	ErrServiceMissing   = errors.New("ble: cube service not found")
)

var (
	serviceUUID = mustParseUUID(protocol.ServiceUUID)
	txCharUUID  = mustParseUUID(protocol.TxCharUUID)
	rxCharUUID  = mustParseUUID(protocol.RxCharUUID)
)

func mustParseUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(fmt.Sprintf("ble: bad UUID %q: %v", s, err))
	}
	return u
}

// ScanResult is a discovered cube.
type ScanResult struct {
	Name    string
	Address string
	RSSI    int16

	addr bluetooth.Address
}

// Client is a connection to one cube. Callbacks run on the BLE driver's
// goroutine; callers forward them to their own loop.
type Client struct {
	adapter *bluetooth.Adapter
	device  bluetooth.Device
	rxChar  bluetooth.DeviceCharacteristic
	log     logrus.FieldLogger

	mu         sync.RWMutex
	connected  bool
	deviceName string
	address    string
	battery    int

	onRotation func(protocol.RotationEvent)
	onFrame    func(*protocol.Frame)
}

// NewClient enables the default adapter.
func NewClient(log logrus.FieldLogger) (*Client, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("failed to enable BLE adapter: %w", err)
	}
	return &Client{adapter: adapter, log: log, battery: -1}, nil
}

// OnRotation sets the callback for decoded face turns.
func (c *Client) OnRotation(cb func(protocol.RotationEvent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRotation = cb
}

// OnFrame sets the callback for every valid frame.
func (c *Client) OnFrame(cb func(*protocol.Frame)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFrame = cb
}

// Scan lists cubes advertising within timeout.
func (c *Client) Scan(ctx context.Context, timeout time.Duration) ([]ScanResult, error) {
	if c.IsConnected() {
		return nil, ErrAlreadyConnected
	}

	var (
		mu      sync.Mutex
		results []ScanResult
		seen    = make(map[string]bool)
		done    = make(chan struct{})
	)

	go func() {
		defer close(done)
		err := c.adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
			name := r.LocalName()
			addr := r.Address.String()

			mu.Lock()
			defer mu.Unlock()
			if seen[addr] || !IsCube(name) {
				return
			}
			seen[addr] = true
			results = append(results, ScanResult{Name: name, Address: addr, RSSI: r.RSSI, addr: r.Address})
		})
		if err != nil {
			c.log.WithError(err).Warn("scan stopped")
		}
	}()

	select {
	case <-time.After(timeout):
	case <-ctx.Done():
	}
	c.adapter.StopScan()
	<-done

	mu.Lock()
	defer mu.Unlock()
	return results, nil
}

// IsCube reports whether an advertised name belongs to a GoCube.
func IsCube(name string) bool {
	return strings.HasPrefix(strings.ToLower(name), "gocube")
}

// Connect scans for the cube at address and connects to it.
func (c *Client) Connect(ctx context.Context, address string, timeout time.Duration) error {
	if c.IsConnected() {
		return ErrAlreadyConnected
	}

	found := make(chan ScanResult, 1)
	go func() {
		c.adapter.Scan(func(a *bluetooth.Adapter, r bluetooth.ScanResult) {
			if r.Address.String() == address {
				select {
				case found <- ScanResult{Name: r.LocalName(), Address: address, RSSI: r.RSSI, addr: r.Address}:
				default:
				}
				a.StopScan()
			}
		})
	}()

	select {
	case r := <-found:
		return c.ConnectTo(r)
	case <-time.After(timeout):
		c.adapter.StopScan()
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, address)
	case <-ctx.Done():
		c.adapter.StopScan()
		return ctx.Err()
	}
}

// ConnectTo connects to a scanned cube and subscribes to its notifications.
func (c *Client) ConnectTo(r ScanResult) error {
	if c.IsConnected() {
		return ErrAlreadyConnected
	}

	device, err := c.adapter.Connect(r.addr, bluetooth.ConnectionParams{})
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	rx, err := c.subscribe(device)
	if err != nil {
		device.Disconnect()
		return err
	}

	c.mu.Lock()
	c.device = device
	c.rxChar = rx
	c.connected = true
	c.deviceName = r.Name
	c.address = r.Address
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"name": r.Name, "address": r.Address}).Info("smart cube connected")

	if err := c.SendCommand(protocol.CmdRequestBattery); err != nil {
		c.log.WithError(err).Debug("battery request failed")
	}
	return nil
}

func (c *Client) subscribe(device bluetooth.Device) (bluetooth.DeviceCharacteristic, error) {
	var rx bluetooth.DeviceCharacteristic

	services, err := device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil {
		return rx, fmt.Errorf("failed to discover services: %w", err)
	}
	if len(services) == 0 {
		return rx, ErrServiceMissing
	}

	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{txCharUUID, rxCharUUID})
	if err != nil {
		return rx, fmt.Errorf("failed to discover characteristics: %w", err)
	}

	var tx bluetooth.DeviceCharacteristic
	var haveTx bool
	for _, ch := range chars {
		switch ch.UUID() {
		case txCharUUID:
			tx, haveTx = ch, true
		case rxCharUUID:
			rx = ch
		}
	}
	if !haveTx {
		return rx, fmt.Errorf("%w: notify characteristic missing", ErrServiceMissing)
	}

	if err := tx.EnableNotifications(c.handleNotification); err != nil {
		return rx, fmt.Errorf("failed to enable notifications: %w", err)
	}
	return rx, nil
}

// Disconnect drops the connection.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	err := c.device.Disconnect()
	c.connected = false
	c.deviceName = ""
	c.address = ""
	c.battery = -1
	return err
}

// IsConnected reports whether a cube is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// DeviceName returns the connected cube's name.
func (c *Client) DeviceName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deviceName
}

// Address returns the connected cube's address.
func (c *Client) Address() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.address
}

// Battery returns the last reported battery level, or -1.
func (c *Client) Battery() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.battery
}

// SendCommand writes a command frame.
func (c *Client) SendCommand(code byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected {
		return ErrNotConnected
	}
	data := protocol.Command(code)
	if _, err := c.rxChar.WriteWithoutResponse(data); err != nil {
		if _, err := c.rxChar.Write(data); err != nil {
			return fmt.Errorf("failed to send command 0x%02X: %w", code, err)
		}
	}
	return nil
}

// FlashBacklight flashes the cube's lights, used to confirm which cube is
// connected.
func (c *Client) FlashBacklight() error {
	return c.SendCommand(protocol.CmdFlashBacklight)
}

func (c *Client) handleNotification(data []byte) {
	frame, err := protocol.Parse(data)
	if err != nil {
		c.log.WithError(err).Debug("dropping malformed frame")
		return
	}

	c.mu.RLock()
	onFrame, onRotation := c.onFrame, c.onRotation
	c.mu.RUnlock()

	if onFrame != nil {
		onFrame(frame)
	}

	switch frame.Type {
	case protocol.TypeBattery:
		if b, err := protocol.DecodeBattery(frame.Payload); err == nil {
			c.mu.Lock()
			c.battery = b.Level
			c.mu.Unlock()
		}
	case protocol.TypeRotation:
		events, err := protocol.DecodeRotation(frame.Payload)
		if err != nil {
			c.log.WithError(err).Warn("bad rotation frame")
			return
		}
		if onRotation != nil {
			for _, ev := range events {
				onRotation(ev)
			}
		}
	}
}
