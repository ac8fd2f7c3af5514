package runtime

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/blues/fundraiser/internal/pubkey"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrMissingSignature = errors.New("missing signature")
	ErrBadSignature     = errors.New("signature verification failed")
	ErrUnknownProgram   = errors.New("unknown program")
	ErrMessageTooLarge  = errors.New("message too large")
)

// AccountMeta 指令引用的账户
type AccountMeta struct {
	Address    pubkey.Address `json:"address"`
	IsSigner   bool           `json:"is_signer"`
	IsWritable bool           `json:"is_writable"`
}

// Message 待签名的指令消息
type Message struct {
	ProgramID pubkey.Address `json:"program_id"`
	Accounts  []AccountMeta  `json:"accounts"`
	Data      hexutil.Bytes  `json:"data"`
	Nonce     uint64         `json:"nonce"`
}

// Serialize 规范化编码，签名覆盖此编码
func (m *Message) Serialize() ([]byte, error) {
	if len(m.Accounts) > 255 || len(m.Data) > 0xffff {
		return nil, ErrMessageTooLarge
	}
	buf := make([]byte, 0, pubkey.Size+1+len(m.Accounts)*(pubkey.Size+1)+2+len(m.Data)+8)
	buf = append(buf, m.ProgramID[:]...)
	buf = append(buf, byte(len(m.Accounts)))
	for _, meta := range m.Accounts {
		var flags byte
		if meta.IsSigner {
			flags |= 1
		}
		if meta.IsWritable {
			flags |= 2
		}
		buf = append(buf, meta.Address[:]...)
		buf = append(buf, flags)
	}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(m.Data)))
	buf = append(buf, m.Data...)
	buf = binary.LittleEndian.AppendUint64(buf, m.Nonce)
	return buf, nil
}

// Signature 签名
type Signature struct {
	Address   pubkey.Address `json:"address"`
	Signature hexutil.Bytes  `json:"signature"`
}

// Transaction 已签名的单指令交易
type Transaction struct {
	Message    Message     `json:"message"`
	Signatures []Signature `json:"signatures"`
}

// NewTransaction 构造并用给定私钥签名
func NewTransaction(msg Message, keys ...ed25519.PrivateKey) (*Transaction, error) {
	tx := &Transaction{Message: msg}
	for _, key := range keys {
		if err := tx.Sign(key); err != nil {
			return nil, err
		}
	}
	return tx, nil
}

// Sign 追加签名
func (tx *Transaction) Sign(key ed25519.PrivateKey) error {
	payload, err := tx.Message.Serialize()
	if err != nil {
		return err
	}
	pub := key.Public().(ed25519.PublicKey)
	tx.Signatures = append(tx.Signatures, Signature{
		Address:   pubkey.FromPublicKey(pub),
		Signature: ed25519.Sign(key, payload),
	})
	return nil
}

// ID 交易标识
func (tx *Transaction) ID() string {
	payload, _ := tx.Message.Serialize()
	parts := [][]byte{payload}
	for _, sig := range tx.Signatures {
		parts = append(parts, sig.Signature)
	}
	return crypto.Keccak256Hash(parts...).Hex()
}

// verify 校验每个标记为签名者的账户都有合法签名
func (tx *Transaction) verify() error {
	payload, err := tx.Message.Serialize()
	if err != nil {
		return err
	}
	sigs := make(map[pubkey.Address][]byte, len(tx.Signatures))
	for _, sig := range tx.Signatures {
		sigs[sig.Address] = sig.Signature
	}
	for _, meta := range tx.Message.Accounts {
		if !meta.IsSigner {
			continue
		}
		sig, ok := sigs[meta.Address]
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingSignature, meta.Address)
		}
		if len(sig) != ed25519.SignatureSize || !ed25519.Verify(ed25519.PublicKey(meta.Address[:]), payload, sig) {
			return fmt.Errorf("%w: %s", ErrBadSignature, meta.Address)
		}
	}
	return nil
}
