package hw

// DMAStatus bits of the abnormal interrupt line status register.
const (
	DMAStatusTS   uint32 = 1 << 0  // transmit interrupt
	DMAStatusTPS  uint32 = 1 << 1  // transmit process stopped
	DMAStatusTBUS uint32 = 1 << 2  // transmit buffer unavailable
	DMAStatusTJT  uint32 = 1 << 3  // transmit jabber timeout
	DMAStatusROS  uint32 = 1 << 4  // receive overflow
	DMAStatusTUS  uint32 = 1 << 5  // transmit underflow
	DMAStatusRS   uint32 = 1 << 6  // receive interrupt
	DMAStatusRBUS uint32 = 1 << 7  // receive buffer unavailable
	DMAStatusRPS  uint32 = 1 << 8  // receive process stopped
	DMAStatusRWT  uint32 = 1 << 9  // receive watchdog timeout
	DMAStatusETS  uint32 = 1 << 10 // early transmit
	DMAStatusFBES uint32 = 1 << 13 // fatal bus error
	DMAStatusERS  uint32 = 1 << 14 // early receive
	DMAStatusAIS  uint32 = 1 << 15 // abnormal interrupt summary
	DMAStatusNIS  uint32 = 1 << 16 // normal interrupt summary

	// DMAStatusSummary contains summary bits that do not indicate a condition by themselves.
	DMAStatusSummary = DMAStatusAIS | DMAStatusNIS

	// DMAStatusNormal contains bits of normal, non-error conditions.
	DMAStatusNormal = DMAStatusTS | DMAStatusTBUS | DMAStatusRS | DMAStatusERS
)

// Receive descriptor status bits, as written back by hardware.
const (
	RxStatusPCE   uint32 = 1 << 0  // payload checksum error
	RxStatusCE    uint32 = 1 << 1  // CRC error
	RxStatusRE    uint32 = 1 << 3  // receive error
	RxStatusRWT   uint32 = 1 << 4  // receive watchdog timeout
	RxStatusFT    uint32 = 1 << 5  // frame type: Ethernet II
	RxStatusLCO   uint32 = 1 << 6  // late collision
	RxStatusIPHCE uint32 = 1 << 7  // IP header checksum error
	RxStatusLS    uint32 = 1 << 8  // last descriptor of frame
	RxStatusFS    uint32 = 1 << 9  // first descriptor of frame
	RxStatusOE    uint32 = 1 << 11 // overflow error
	RxStatusLE    uint32 = 1 << 12 // length error
	RxStatusDE    uint32 = 1 << 14 // descriptor error
	RxStatusES    uint32 = 1 << 15 // error summary

	// RxStatusWhole marks a frame that fits in one descriptor.
	RxStatusWhole = RxStatusFS | RxStatusLS
)

// Transmit descriptor status bits, as written back by hardware.
const (
	TxStatusUF  uint32 = 1 << 1  // underflow error
	TxStatusED  uint32 = 1 << 2  // excessive deferral
	TxStatusEC  uint32 = 1 << 8  // excessive collision
	TxStatusLCO uint32 = 1 << 9  // late collision
	TxStatusNC  uint32 = 1 << 10 // no carrier
	TxStatusLCA uint32 = 1 << 11 // loss of carrier
	TxStatusIPE uint32 = 1 << 12 // IP payload error
	TxStatusFF  uint32 = 1 << 13 // frame flushed
	TxStatusJT  uint32 = 1 << 14 // jabber timeout
	TxStatusES  uint32 = 1 << 15 // error summary
	TxStatusIHE uint32 = 1 << 16 // IP header error
)
