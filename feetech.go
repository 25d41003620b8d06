package motorbus

import "github.com/lerobot-go/motorbus/protocol"

// FeetechSTS is the Feetech STS serial bus family: SCS/STS framing with the
// additive-complement checksum, 12-bit magnetic encoders, sign-magnitude
// Homing_Offset with the sign in bit 11.
func FeetechSTS() *Family {
	return newFamily(
		"feetech-sts",
		protocol.Feetech{},
		Register{Address: 3, Width: 2},
		feetechBaudRates,
		[]*ModelSpec{
			{Name: "sts3215", Number: 777, Resolution: 4096, Registers: stsRegisters},
			{Name: "sts3250", Number: 2825, Resolution: 4096, Registers: stsRegisters},
		},
	)
}

// Baud-rate register value to line speed, per the STS memory map.
var feetechBaudRates = map[int]int{
	0: 1000000,
	1: 500000,
	2: 250000,
	3: 128000,
	4: 115200,
	5: 57600,
	6: 38400,
	7: 19200,
}

// The STS series shares one control table across models.
var stsRegisters = map[string]Register{
	"Firmware_Major_Version": {Address: 0, Width: 1},
	"Firmware_Minor_Version": {Address: 1, Width: 1},
	"Model_Number":           {Address: 3, Width: 2},
	"ID":                     {Address: 5, Width: 1},
	"Baud_Rate":              {Address: 6, Width: 1},
	"Return_Delay_Time":      {Address: 7, Width: 1},
	"Response_Status_Level":  {Address: 8, Width: 1},
	"Min_Position_Limit":     {Address: 9, Width: 2},
	"Max_Position_Limit":     {Address: 11, Width: 2},
	"Max_Temperature_Limit":  {Address: 13, Width: 1},
	"Max_Voltage_Limit":      {Address: 14, Width: 1},
	"Min_Voltage_Limit":      {Address: 15, Width: 1},
	"Max_Torque_Limit":       {Address: 16, Width: 2},
	"Protection_Current":     {Address: 28, Width: 2},
	"P_Coefficient":          {Address: 21, Width: 1},
	"D_Coefficient":          {Address: 22, Width: 1},
	"I_Coefficient":          {Address: 23, Width: 1},
	"Minimum_Startup_Force":  {Address: 24, Width: 2},
	"Homing_Offset":          {Address: 31, Width: 2, SignBit: 11},
	"Operating_Mode":         {Address: 33, Width: 1},
	"Torque_Enable":          {Address: 40, Width: 1},
	"Acceleration":           {Address: 41, Width: 1},
	"Goal_Position":          {Address: 42, Width: 2},
	"Goal_Time":              {Address: 44, Width: 2},
	"Goal_Velocity":          {Address: 46, Width: 2},
	"Torque_Limit":           {Address: 48, Width: 2},
	"Lock":                   {Address: 55, Width: 1},
	"Present_Position":       {Address: 56, Width: 2},
	"Present_Velocity":       {Address: 58, Width: 2},
	"Present_Load":           {Address: 60, Width: 2},
	"Present_Voltage":        {Address: 62, Width: 1},
	"Present_Temperature":    {Address: 63, Width: 1},
	"Moving":                 {Address: 66, Width: 1},
	"Present_Current":        {Address: 69, Width: 2},
}
