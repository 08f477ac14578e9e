package gateway

import (
	"sync"

	"tinygo.org/x/bluetooth"
)

var (
	ServiceUUID = mustUUID("9ecadc24-0ee5-a9e0-93f3-a3b50100406e")
	StatusUUID  = mustUUID("9ecadc24-0ee5-a9e0-93f3-a3b50200406e")
	WeatherUUID = mustUUID("9ecadc24-0ee5-a9e0-93f3-a3b50300406e")
)

func mustUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// BLE is a Transport over a GATT peripheral with one writable characteristic
// per payload kind.
type BLE struct {
	Adapter *bluetooth.Adapter

	mu      sync.Mutex
	adv     *bluetooth.Advertisement
	started bool
}

func NewBLE() *BLE { return &BLE{Adapter: bluetooth.DefaultAdapter} }

func (b *BLE) Start(name string, deliver func(Characteristic, []byte)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started {
		return b.adv.Start()
	}
	if err := b.Adapter.Enable(); err != nil {
		return err
	}
	const flags = bluetooth.CharacteristicWritePermission | bluetooth.CharacteristicWriteWithoutResponsePermission
	err := b.Adapter.AddService(&bluetooth.Service{
		UUID: ServiceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				UUID:  StatusUUID,
				Flags: flags,
				WriteEvent: func(_ bluetooth.Connection, _ int, value []byte) {
					deliver(CharStatus, value)
				},
			},
			{
				UUID:  WeatherUUID,
				Flags: flags,
				WriteEvent: func(_ bluetooth.Connection, _ int, value []byte) {
					deliver(CharWeather, value)
				},
			},
		},
	})
	if err != nil {
		return err
	}
	b.adv = b.Adapter.DefaultAdvertisement()
	if err := b.adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    name,
		ServiceUUIDs: []bluetooth.UUID{ServiceUUID},
	}); err != nil {
		return err
	}
	b.started = true
	return b.adv.Start()
}

// Advertise restarts advertising so a new central can connect.
func (b *BLE) Advertise() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	_ = b.adv.Stop()
	return b.adv.Start()
}

func (b *BLE) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil
	}
	return b.adv.Stop()
}
