// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txvm implements the stack machine that executes the concatenation
// of a spending input script and the output script it redeems. The VM is
// pure and stateless across calls; the only capability it is given is an
// Environment that knows how to verify a signature for the message the
// caller constructed (the validator builds that message, see package
// blockchain).
package txvm

import (
	"encoding/binary"
	"errors"

	"github.com/btxsuite/btx/chainutil"
	"github.com/btxsuite/btx/wire"
)

// Environment is the single capability the VM asks of its caller.
type Environment interface {
	// VerifySign reports whether acc's signatures authorize the message
	// under test. The environment knows that message; the VM does not.
	VerifySign(acc *chainutil.Account) bool
}

// elemKind distinguishes the dynamic type of a stack element.
type elemKind int

const (
	elemBool elemKind = iota
	elemInt
	elemBytes
)

type element struct {
	kind  elemKind
	b     bool
	i     int64
	bytes []byte
}

// Error codes a failed execution reports. These are wrapped into
// blockchain.RuleError (ErrScriptFailed) by the validator; the VM itself just
// needs to fail loudly and specifically for tests.
var (
	ErrStackUnderflow  = errors.New("txvm: stack underflow")
	ErrTypeMismatch    = errors.New("txvm: stack element type mismatch")
	ErrUnknownOpcode   = errors.New("txvm: unknown opcode")
	ErrTooManyOps      = errors.New("txvm: exceeded maximum operation count")
	ErrScriptTooBig    = errors.New("txvm: script exceeds maximum size")
	ErrVerifyFailed    = errors.New("txvm: OP_VERIFY failed")
	ErrShapeMismatch   = errors.New("txvm: kind register shape mismatch")
	ErrTruncated       = errors.New("txvm: truncated script")
)

// Execute runs the concatenation of in and out (the spending input script
// followed by the output script it redeems) against env: the input script
// is concatenated with the referenced output script and the result is
// executed from the start.
func Execute(in, out wire.Script, env Environment) error {
	full := make([]byte, 0, len(in)+len(out))
	full = append(full, in...)
	full = append(full, out...)
	if len(full) > wire.MaxScriptBytes {
		return ErrScriptTooBig
	}

	vm := &vm{env: env}
	return vm.run(full)
}

type vm struct {
	stack []element
	kinds []wire.Kind
	ops   int
	env   Environment
}

func (m *vm) run(script []byte) error {
	if len(script) == 0 {
		return ErrTruncated
	}
	pos := 0
	for pos < len(script) {
		m.ops++
		if m.ops > wire.MaxScriptOps {
			return ErrTooManyOps
		}
		op := script[pos]
		pos++

		switch {
		case op >= wire.OP_00 && op <= wire.OP_16:
			m.push(element{kind: elemInt, i: int64(op)})

		case op == wire.OP_TRUE:
			m.push(element{kind: elemBool, b: true})
		case op == wire.OP_FALSE:
			m.push(element{kind: elemBool, b: false})

		case op == wire.OP_NUMBER_1, op == wire.OP_NUMBER_2,
			op == wire.OP_NUMBER_4, op == wire.OP_NUMBER_8:
			n := numberLen(op)
			if pos+n > len(script) {
				return ErrTruncated
			}
			v := decodeSignedLE(script[pos : pos+n])
			pos += n
			m.push(element{kind: elemInt, i: v})

		case op == wire.OP_DATA_1, op == wire.OP_DATA_2, op == wire.OP_DATA_4:
			lenBytes := lengthPrefixLen(op)
			if pos+lenBytes > len(script) {
				return ErrTruncated
			}
			l := int(decodeUnsignedLE(script[pos : pos+lenBytes]))
			pos += lenBytes
			if pos+l > len(script) {
				return ErrTruncated
			}
			data := append([]byte(nil), script[pos:pos+l]...)
			pos += l
			m.push(element{kind: elemBytes, bytes: data})

		case op == wire.OP_TYPE:
			if pos+1 > len(script) {
				return ErrTruncated
			}
			m.kinds = append(m.kinds, wire.Kind(script[pos]))
			pos++

		case op == wire.OP_EQUAL:
			if err := m.opEqual(); err != nil {
				return err
			}
		case op == wire.OP_NOT:
			if err := m.opNot(); err != nil {
				return err
			}
		case op == wire.OP_VERIFY:
			if err := m.opVerify(); err != nil {
				return err
			}
		case op == wire.OP_EQUAL_VERIFY:
			if err := m.opEqual(); err != nil {
				return err
			}
			if err := m.opVerify(); err != nil {
				return err
			}
		case op == wire.OP_HASHER:
			if err := m.opHasher(); err != nil {
				return err
			}
		case op == wire.OP_CHECKSIG:
			if err := m.opChecksig(); err != nil {
				return err
			}
		case op == wire.OP_CHECKSIG_VERIFY:
			if err := m.opChecksig(); err != nil {
				return err
			}
			if err := m.opVerify(); err != nil {
				return err
			}
		case op == wire.OP_VERIFY_INOUT:
			if err := m.opVerifyInOut(); err != nil {
				return err
			}

		default:
			return ErrUnknownOpcode
		}
	}
	return nil
}

func numberLen(op byte) int {
	switch op {
	case wire.OP_NUMBER_1:
		return 1
	case wire.OP_NUMBER_2:
		return 2
	case wire.OP_NUMBER_4:
		return 4
	default:
		return 8
	}
}

func lengthPrefixLen(op byte) int {
	switch op {
	case wire.OP_DATA_1:
		return 1
	case wire.OP_DATA_2:
		return 2
	default:
		return 4
	}
}

func decodeUnsignedLE(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	default:
		return binary.LittleEndian.Uint64(b)
	}
}

func decodeSignedLE(b []byte) int64 {
	switch len(b) {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(binary.LittleEndian.Uint16(b)))
	case 4:
		return int64(int32(binary.LittleEndian.Uint32(b)))
	default:
		return int64(binary.LittleEndian.Uint64(b))
	}
}

func (m *vm) push(e element) {
	m.stack = append(m.stack, e)
}

// top returns the element n from the top (1-based).
func (m *vm) top(n int) (*element, error) {
	l := len(m.stack)
	if n < 1 || n > l {
		return nil, ErrStackUnderflow
	}
	return &m.stack[l-n], nil
}

func (m *vm) popN(n int) error {
	if len(m.stack) < n {
		return ErrStackUnderflow
	}
	m.stack = m.stack[:len(m.stack)-n]
	return nil
}

func (m *vm) opVerify() error {
	e, err := m.top(1)
	if err != nil {
		return err
	}
	if e.kind != elemBool {
		return ErrTypeMismatch
	}
	val := e.b
	if err := m.popN(1); err != nil {
		return err
	}
	if !val {
		return ErrVerifyFailed
	}
	return nil
}

func (m *vm) opNot() error {
	e, err := m.top(1)
	if err != nil {
		return err
	}
	if e.kind != elemBool {
		return ErrTypeMismatch
	}
	val := e.b
	if err := m.popN(1); err != nil {
		return err
	}
	m.push(element{kind: elemBool, b: !val})
	return nil
}

func elemsEqual(a, b *element) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case elemBool:
		return a.b == b.b
	case elemInt:
		return a.i == b.i
	default:
		if len(a.bytes) != len(b.bytes) {
			return false
		}
		for i := range a.bytes {
			if a.bytes[i] != b.bytes[i] {
				return false
			}
		}
		return true
	}
}

func (m *vm) opEqual() error {
	if len(m.stack) < 2 {
		return ErrStackUnderflow
	}
	l, err := m.top(1)
	if err != nil {
		return err
	}
	r, err := m.top(2)
	if err != nil {
		return err
	}
	eq := elemsEqual(l, r)
	if err := m.popN(2); err != nil {
		return err
	}
	m.push(element{kind: elemBool, b: eq})
	return nil
}

// opHasher reads the top element, interprets it as an encoded account, and
// pushes the account's 32-byte address hash on top — without popping the
// account itself, so a later OP_CHECKSIG(_VERIFY) still finds it.
func (m *vm) opHasher() error {
	e, err := m.top(1)
	if err != nil {
		return err
	}
	if e.kind != elemBytes {
		return ErrTypeMismatch
	}
	acc, err := chainutil.DecodeAccount(e.bytes)
	if err != nil {
		return err
	}
	addr, err := acc.Address()
	if err != nil {
		return err
	}
	m.push(element{kind: elemBytes, bytes: append([]byte(nil), addr[:]...)})
	return nil
}

func (m *vm) opChecksig() error {
	e, err := m.top(1)
	if err != nil {
		return err
	}
	if e.kind != elemBytes {
		return ErrTypeMismatch
	}
	acc, err := chainutil.DecodeAccount(e.bytes)
	if err != nil {
		return err
	}
	if err := m.popN(1); err != nil {
		return err
	}
	ok := m.env != nil && m.env.VerifySign(acc)
	m.push(element{kind: elemBool, b: ok})
	return nil
}

func (m *vm) opVerifyInOut() error {
	if len(m.kinds) != 2 || m.kinds[0] != wire.KindIN || m.kinds[1] != wire.KindOUT {
		return ErrShapeMismatch
	}
	return nil
}
