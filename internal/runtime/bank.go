package runtime

import (
	"sort"
	"sync"

	"github.com/blues/fundraiser/internal/account"
	"github.com/blues/fundraiser/internal/pubkey"
)

// Bank 内存账户存储，按地址加锁保证同一账户集合上的调用串行
type Bank struct {
	mu       sync.RWMutex
	accounts map[pubkey.Address]*account.Account

	lockMu sync.Mutex
	locks  map[pubkey.Address]*sync.Mutex
}

// NewBank 创建账户存储
func NewBank() *Bank {
	return &Bank{
		accounts: make(map[pubkey.Address]*account.Account),
		locks:    make(map[pubkey.Address]*sync.Mutex),
	}
}

// Get 返回账户副本
func (b *Bank) Get(addr pubkey.Address) (*account.Account, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	acc, ok := b.accounts[addr]
	if !ok {
		return nil, false
	}
	return acc.Clone(), true
}

// Put 写入账户副本，未分配的账户被删除
func (b *Bank) Put(acc *account.Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.put(acc)
}

func (b *Bank) put(acc *account.Account) {
	if !acc.IsAllocated() {
		delete(b.accounts, acc.Address)
		return
	}
	c := acc.Clone()
	c.SetMeta(false, false)
	b.accounts[acc.Address] = c
}

// commit 原子写入一组账户
func (b *Bank) commit(accounts []*account.Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range accounts {
		b.put(acc)
	}
}

// Len 已分配账户数量
func (b *Bank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.accounts)
}

// Accounts 按地址排序返回全部账户副本
func (b *Bank) Accounts() []*account.Account {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*account.Account, 0, len(b.accounts))
	for _, acc := range b.accounts {
		out = append(out, acc.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address.Compare(out[j].Address) < 0 })
	return out
}

// lock 按地址排序加锁，返回解锁函数
func (b *Bank) lock(addrs []pubkey.Address) func() {
	sorted := make([]pubkey.Address, len(addrs))
	copy(sorted, addrs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Compare(sorted[j]) < 0 })

	b.lockMu.Lock()
	mutexes := make([]*sync.Mutex, 0, len(sorted))
	for i, addr := range sorted {
		if i > 0 && sorted[i-1] == addr {
			continue
		}
		m, ok := b.locks[addr]
		if !ok {
			m = &sync.Mutex{}
			b.locks[addr] = m
		}
		mutexes = append(mutexes, m)
	}
	b.lockMu.Unlock()

	for _, m := range mutexes {
		m.Lock()
	}
	return func() {
		for i := len(mutexes) - 1; i >= 0; i-- {
			mutexes[i].Unlock()
		}
	}
}
