package program

import (
	"encoding/binary"
	"fmt"
)

// Opcode 指令操作码
type Opcode uint8

const (
	OpInitialize Opcode = 0
	OpContribute Opcode = 1
	OpCheckout   Opcode = 2
	OpRefund     Opcode = 3
)

func (o Opcode) String() string {
	switch o {
	case OpInitialize:
		return "initialize"
	case OpContribute:
		return "contribute"
	case OpCheckout:
		return "checkout"
	case OpRefund:
		return "refund"
	default:
		return fmt.Sprintf("opcode(%d)", uint8(o))
	}
}

// 各指令负载长度
const (
	initializeLen = 1 + 8 + 1
	contributeLen = 1 + 8
	refundLen     = 1
)

// InitializeArgs 初始化参数
type InitializeArgs struct {
	Bump          uint8
	AmountToRaise uint64
	DurationDays  uint8
}

// ContributeArgs 贡献参数
type ContributeArgs struct {
	Bump   uint8
	Amount uint64
}

// RefundArgs 退款参数
type RefundArgs struct {
	Bump uint8
}

// SplitInstruction 拆分操作码和负载
func SplitInstruction(data []byte) (Opcode, []byte, error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("%w: empty instruction", ErrInvalidInstructionData)
	}
	op := Opcode(data[0])
	if op > OpRefund {
		return 0, nil, fmt.Errorf("%w: unknown opcode %d", ErrInvalidInstructionData, data[0])
	}
	return op, data[1:], nil
}

func checkPayload(op Opcode, payload []byte, want int) error {
	if len(payload) != want {
		return fmt.Errorf("%w: %s payload is %d bytes, want %d", ErrInvalidInstructionData, op, len(payload), want)
	}
	return nil
}

// DecodeInitialize 解码初始化负载
func DecodeInitialize(payload []byte) (InitializeArgs, error) {
	if err := checkPayload(OpInitialize, payload, initializeLen); err != nil {
		return InitializeArgs{}, err
	}
	return InitializeArgs{
		Bump:          payload[0],
		AmountToRaise: binary.LittleEndian.Uint64(payload[1:9]),
		DurationDays:  payload[9],
	}, nil
}

// Encode 编码为完整指令数据（含操作码）
func (a InitializeArgs) Encode() []byte {
	buf := make([]byte, 1+initializeLen)
	buf[0] = byte(OpInitialize)
	buf[1] = a.Bump
	binary.LittleEndian.PutUint64(buf[2:10], a.AmountToRaise)
	buf[10] = a.DurationDays
	return buf
}

// DecodeContribute 解码贡献负载
func DecodeContribute(payload []byte) (ContributeArgs, error) {
	if err := checkPayload(OpContribute, payload, contributeLen); err != nil {
		return ContributeArgs{}, err
	}
	return ContributeArgs{
		Bump:   payload[0],
		Amount: binary.LittleEndian.Uint64(payload[1:9]),
	}, nil
}

func (a ContributeArgs) Encode() []byte {
	buf := make([]byte, 1+contributeLen)
	buf[0] = byte(OpContribute)
	buf[1] = a.Bump
	binary.LittleEndian.PutUint64(buf[2:10], a.Amount)
	return buf
}

// DecodeRefund 解码退款负载
func DecodeRefund(payload []byte) (RefundArgs, error) {
	if err := checkPayload(OpRefund, payload, refundLen); err != nil {
		return RefundArgs{}, err
	}
	return RefundArgs{Bump: payload[0]}, nil
}

func (a RefundArgs) Encode() []byte {
	return []byte{byte(OpRefund), a.Bump}
}

// EncodeCheckout 结算指令没有负载
func EncodeCheckout() []byte {
	return []byte{byte(OpCheckout)}
}
