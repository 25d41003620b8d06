package motorbus

import "github.com/lerobot-go/motorbus/protocol"

// DynamixelX is the Dynamixel X-series family on Protocol 2.0: four-byte
// header, CRC16 trailer, two's-complement signed registers.
func DynamixelX() *Family {
	return newFamily(
		"dynamixel-x",
		protocol.DynamixelV2{},
		Register{Address: 0, Width: 2},
		dynamixelBaudRates,
		[]*ModelSpec{
			{Name: "xl330-m288", Number: 1200, Resolution: 4096, Registers: xSeriesRegisters},
			{Name: "xl430-w250", Number: 1060, Resolution: 4096, Registers: xSeriesRegisters},
			{Name: "xm430-w350", Number: 1020, Resolution: 4096, Registers: xSeriesRegisters},
			{Name: "xm540-w270", Number: 1120, Resolution: 4096, Registers: xSeriesRegisters},
		},
	)
}

var dynamixelBaudRates = map[int]int{
	0: 9600,
	1: 57600,
	2: 115200,
	3: 1000000,
	4: 2000000,
	5: 3000000,
	6: 4000000,
}

var xSeriesRegisters = map[string]Register{
	"Model_Number":         {Address: 0, Width: 2},
	"Firmware_Version":     {Address: 6, Width: 1},
	"ID":                   {Address: 7, Width: 1},
	"Baud_Rate":            {Address: 8, Width: 1},
	"Return_Delay_Time":    {Address: 9, Width: 1},
	"Drive_Mode":           {Address: 10, Width: 1},
	"Operating_Mode":       {Address: 11, Width: 1},
	"Homing_Offset":        {Address: 20, Width: 4, Signed: true},
	"Temperature_Limit":    {Address: 31, Width: 1},
	"Max_Voltage_Limit":    {Address: 32, Width: 2},
	"Min_Voltage_Limit":    {Address: 34, Width: 2},
	"Current_Limit":        {Address: 38, Width: 2},
	"Velocity_Limit":       {Address: 44, Width: 4},
	"Max_Position_Limit":   {Address: 48, Width: 4},
	"Min_Position_Limit":   {Address: 52, Width: 4},
	"Shutdown":             {Address: 63, Width: 1},
	"Torque_Enable":        {Address: 64, Width: 1},
	"LED":                  {Address: 65, Width: 1},
	"Status_Return_Level":  {Address: 68, Width: 1},
	"Velocity_I_Gain":      {Address: 76, Width: 2},
	"Velocity_P_Gain":      {Address: 78, Width: 2},
	"Position_D_Gain":      {Address: 80, Width: 2},
	"Position_I_Gain":      {Address: 82, Width: 2},
	"Position_P_Gain":      {Address: 84, Width: 2},
	"Goal_Current":         {Address: 102, Width: 2, Signed: true},
	"Goal_Velocity":        {Address: 104, Width: 4, Signed: true},
	"Profile_Acceleration": {Address: 108, Width: 4},
	"Profile_Velocity":     {Address: 112, Width: 4},
	"Goal_Position":        {Address: 116, Width: 4},
	"Moving":               {Address: 122, Width: 1},
	"Present_Current":      {Address: 126, Width: 2, Signed: true},
	"Present_Velocity":     {Address: 128, Width: 4, Signed: true},
	"Present_Position":     {Address: 132, Width: 4},
	"Present_Temperature":  {Address: 146, Width: 1},
}
