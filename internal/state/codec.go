package state

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/blues/fundraiser/internal/account"
)

var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrViewReleased    = errors.New("record view used after release")
)

// checkLayout 在访问任何字段前校验长度和对齐
func checkLayout(buf []byte, width, align int) error {
	if len(buf) != width {
		return fmt.Errorf("%w: length %d, want %d", ErrMalformedRecord, len(buf), width)
	}
	if align > 1 && uintptr(unsafe.Pointer(unsafe.SliceData(buf)))%uintptr(align) != 0 {
		return fmt.Errorf("%w: buffer not %d-byte aligned", ErrMalformedRecord, align)
	}
	return nil
}

// lease 账户数据租借，释放后视图失效
type lease struct {
	buf     []byte
	release func()
}

func acquire(acc *account.Account, width, align int) (lease, error) {
	buf, release, err := acc.Borrow()
	if err != nil {
		return lease{}, err
	}
	if err := checkLayout(buf, width, align); err != nil {
		release()
		return lease{}, err
	}
	return lease{buf: buf, release: release}, nil
}

func (l *lease) bytes() []byte {
	if l.buf == nil {
		panic(ErrViewReleased)
	}
	return l.buf
}

// Release 结束租借，此后视图不可再用
func (l *lease) Release() {
	if l.release != nil {
		l.release()
	}
	l.buf = nil
	l.release = nil
}
