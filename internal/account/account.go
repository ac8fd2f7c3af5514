package account

import (
	"errors"
	"unsafe"

	"github.com/blues/fundraiser/internal/pubkey"
)

var (
	ErrAccountBorrowed = errors.New("account data already borrowed")
	ErrNotWritable     = errors.New("account is not writable")
)

// Account 账户，承载存储押金、所有者程序和数据
type Account struct {
	Address    pubkey.Address
	Lamports   uint64
	Owner      pubkey.Address
	Data       []byte
	Executable bool

	signer   bool
	writable bool
	borrowed bool
}

// New 创建账户
func New(address pubkey.Address, lamports uint64, owner pubkey.Address, size int) *Account {
	return &Account{
		Address:  address,
		Lamports: lamports,
		Owner:    owner,
		Data:     NewData(size),
	}
}

// NewData 分配按8字节对齐的数据缓冲区
func NewData(size int) []byte {
	if size <= 0 {
		return nil
	}
	words := make([]uint64, (size+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), size)
}

// SetMeta 设置本次调用中的签名与可写标记，由宿主调用
func (a *Account) SetMeta(signer, writable bool) {
	a.signer = signer
	a.writable = writable
}

// IsSigner 是否为本次调用的活跃签名者
func (a *Account) IsSigner() bool {
	return a.signer
}

// IsWritable 是否可写
func (a *Account) IsWritable() bool {
	return a.writable
}

// IsAllocated 账户是否已分配
func (a *Account) IsAllocated() bool {
	return a.Lamports > 0 || len(a.Data) > 0
}

// Borrow 租借数据缓冲区，同一时刻只允许一个租借。返回的 release 结束租借。
func (a *Account) Borrow() ([]byte, func(), error) {
	if a.borrowed {
		return nil, nil, ErrAccountBorrowed
	}
	a.borrowed = true
	released := false
	release := func() {
		if !released {
			released = true
			a.borrowed = false
		}
	}
	return a.Data, release, nil
}

// Borrowed 当前是否处于租借中
func (a *Account) Borrowed() bool {
	return a.borrowed
}

// Reset 释放账户存储，恢复为系统所有的空账户
func (a *Account) Reset(system pubkey.Address) {
	a.Lamports = 0
	a.Data = nil
	a.Owner = system
	a.Executable = false
}

// Clone 深拷贝，用于快照
func (a *Account) Clone() *Account {
	c := *a
	c.borrowed = false
	if a.Data != nil {
		c.Data = NewData(len(a.Data))
		copy(c.Data, a.Data)
	}
	return &c
}
