package qcaspi

// QCA7000 SPI 命令字（16 位，MSB 先发）
const (
	CmdRead     uint16 = 1 << 15
	CmdWrite    uint16 = 0
	CmdInternal uint16 = 1 << 14
	CmdExternal uint16 = 0
)

// 内部寄存器
const (
	RegBfrSize        uint16 = 0x0100
	RegWrbufSpcAva    uint16 = 0x0200
	RegRdbufByteAva   uint16 = 0x0300
	RegSpiConfig      uint16 = 0x0400
	RegIntrCause      uint16 = 0x0C00
	RegIntrEnable     uint16 = 0x0D00
	RegRdbufWatermark uint16 = 0x1200
	RegWrbufWatermark uint16 = 0x1300
	RegSignature      uint16 = 0x1A00
	RegActionCtrl     uint16 = 0x1B00
)

// 中断位 / SPI_CONFIG 位
const (
	IntPktAvlbl   uint16 = 1 << 0
	IntRdbufError uint16 = 1 << 1
	IntWrbufError uint16 = 1 << 2
	IntCPUOn      uint16 = 1 << 6
)

const (
	GoodSignature uint16 = 0xAA55
	BufferSize           = 3163 // 芯片内部读写缓冲区容量

	// 外部突发传输帧格式
	burstHeaderLen  = 8 // AA AA AA AA | len(LE16) | 00 00
	burstTrailerLen = 2 // 55 55
	burstOverhead   = burstHeaderLen + burstTrailerLen

	// 接收缓冲区中每帧: 4 字节总长 + 8 字节头 + 帧 + 2 字节尾
	rxHeaderLen   = 12
	rxOverhead    = rxHeaderLen + burstTrailerLen
	minRxFrameLen = 60
)

const (
	preambleByte = 0xAA
	trailerByte  = 0x55
)
