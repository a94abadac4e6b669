package rv32

import (
	"eerhal-go/errcode"
	"eerhal-go/hal"
)

// The FE310 has neither an ADC nor an I2C controller. The drivers exist
// so the aggregate satisfies the full interface set, but they refuse Init
// and every operation with NotSupported.

type noADC struct{}

func (noADC) Init(*hal.ADCConfig) error { return errcode.NotSupported }
func (noADC) Deinit() error             { return errcode.NotSupported }
func (noADC) StartConversion(uint8) error {
	return errcode.NotSupported
}
func (noADC) StopConversion() error                     { return errcode.NotSupported }
func (noADC) IsConversionComplete(uint8, *bool) error   { return errcode.NotSupported }
func (noADC) Read(uint8, *uint16) error                 { return errcode.NotSupported }
func (noADC) ReadVoltage(uint8, *float32) error         { return errcode.NotSupported }
func (noADC) RegisterCallback(uint8, hal.ADCConversionHandler, any) error {
	return errcode.NotSupported
}
func (noADC) UnregisterCallback(uint8) error { return errcode.NotSupported }

type noI2C struct{}

func (noI2C) Init(*hal.I2CConfig) error { return errcode.NotSupported }
func (noI2C) Deinit() error             { return errcode.NotSupported }
func (noI2C) MasterTransmit(uint16, []byte, uint32) error {
	return errcode.NotSupported
}
func (noI2C) MasterReceive(uint16, []byte, uint32) error {
	return errcode.NotSupported
}
func (noI2C) MasterTransmitReceive(uint16, []byte, []byte, uint32) error {
	return errcode.NotSupported
}
func (noI2C) IsBusy(*bool) error            { return errcode.NotSupported }
func (noI2C) Scan([]uint16) (int, error)    { return 0, errcode.NotSupported }
func (noI2C) RegisterCallback(hal.I2CTransferHandler, any) error {
	return errcode.NotSupported
}
func (noI2C) UnregisterCallback() error { return errcode.NotSupported }
