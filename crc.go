package spp

import "github.com/snksoft/crc"

// frameCRCParams reproduces the CRC-16/XMODEM variant the wire protocol
// uses to checksum a frame: no reflection, initial value 0xFFFF, no
// final XOR. The protocol then XORs the raw CRC with frameCRCConstant
// before placing it on the wire.
var frameCRCParams = &crc.Parameters{
	Width:      16,
	Polynomial: 0x1021,
	Init:       0xFFFF,
	ReflectIn:  false,
	ReflectOut: false,
	FinalXor:   0x0000,
}

const frameCRCConstant = 0xACE1

// frameCRC computes the frame checksum placed in a frame's trailer.
func frameCRC(data []byte) uint16 {
	raw := uint16(crc.CalculateCRC(frameCRCParams, data))
	return raw ^ frameCRCConstant
}

// firmwareCRCParams is CRC-32C (Castagnoli), the checksum the flashing
// macro uses to validate a firmware image before writing it piecewise
// over syspoke commands.
var firmwareCRCParams = &crc.Parameters{
	Width:      32,
	Polynomial: 0x1EDC6F41,
	Init:       0xFFFFFFFF,
	ReflectIn:  true,
	ReflectOut: true,
	FinalXor:   0xFFFFFFFF,
}

// firmwareCRC computes the CRC-32C of a firmware image.
func firmwareCRC(data []byte) uint32 {
	return uint32(crc.CalculateCRC(firmwareCRCParams, data))
}
