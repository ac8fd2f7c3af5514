package runtime

import (
	"sync/atomic"
	"time"
)

// Clock 时钟来源
type Clock interface {
	Now() int64
}

// SystemClock 墙上时钟
type SystemClock struct{}

func (SystemClock) Now() int64 {
	return time.Now().Unix()
}

// FixedClock 可手动设置的时钟，测试使用
type FixedClock struct {
	now atomic.Int64
}

// NewFixedClock 创建固定时钟
func NewFixedClock(now int64) *FixedClock {
	c := &FixedClock{}
	c.now.Store(now)
	return c
}

func (c *FixedClock) Now() int64 {
	return c.now.Load()
}

// Set 设置当前时间
func (c *FixedClock) Set(now int64) {
	c.now.Store(now)
}

// Advance 前进若干秒
func (c *FixedClock) Advance(seconds int64) {
	c.now.Add(seconds)
}

// Rent 存储押金规则: (size + overhead) × lamportsPerByte
type Rent struct {
	LamportsPerByte uint64
	AccountOverhead uint64
}

// DefaultRent 默认押金规则
var DefaultRent = Rent{LamportsPerByte: 6960, AccountOverhead: 128}

// MinimumBalance 保持 size 字节账户所需押金
func (r Rent) MinimumBalance(size int) uint64 {
	return (uint64(size) + r.AccountOverhead) * r.LamportsPerByte
}
