// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"errors"

	"github.com/btxsuite/btx/chainutil"
)

// Kind identifies which of the three script roles a Script fills. It is
// carried as the operand of the mandatory leading OP_TYPE opcode.
type Kind uint8

// The three script kinds.
const (
	KindCB  Kind = iota // coinbase input script
	KindIN              // spending input script
	KindOUT             // output script
)

// Opcodes, grouped by role: constants, meta, logic/comparison, hashing,
// signature, shape assertion.
const (
	OP_00 byte = 0x00 // OP_00..OP_16 push the integers 0..16
	OP_01 byte = 0x01
	OP_02 byte = 0x02
	OP_03 byte = 0x03
	OP_04 byte = 0x04
	OP_05 byte = 0x05
	OP_06 byte = 0x06
	OP_07 byte = 0x07
	OP_08 byte = 0x08
	OP_09 byte = 0x09
	OP_10 byte = 0x0a
	OP_11 byte = 0x0b
	OP_12 byte = 0x0c
	OP_13 byte = 0x0d
	OP_14 byte = 0x0e
	OP_15 byte = 0x0f
	OP_16 byte = 0x10

	OP_TRUE  byte = 0x20
	OP_FALSE byte = 0x21

	OP_NUMBER_1 byte = 0x30 // push a 1-byte signed little-endian integer
	OP_NUMBER_2 byte = 0x31 // push a 2-byte signed little-endian integer
	OP_NUMBER_4 byte = 0x32 // push a 4-byte signed little-endian integer
	OP_NUMBER_8 byte = 0x33 // push an 8-byte signed little-endian integer

	OP_DATA_1 byte = 0x40 // push bytes, 1-byte unsigned little-endian length
	OP_DATA_2 byte = 0x41 // push bytes, 2-byte unsigned little-endian length
	OP_DATA_4 byte = 0x42 // push bytes, 4-byte unsigned little-endian length

	OP_TYPE byte = 0x50 // read next byte as a Kind, append to the kind register

	OP_EQUAL        byte = 0x60
	OP_NOT          byte = 0x61
	OP_VERIFY       byte = 0x62
	OP_EQUAL_VERIFY byte = 0x63

	OP_HASHER         byte = 0x70
	OP_CHECKSIG       byte = 0x71
	OP_CHECKSIG_VERIFY byte = 0x72

	OP_VERIFY_INOUT byte = 0x80
)

// Script size and op-count limits, per kind.
const (
	MaxScriptBytes = 4096
	MaxScriptOps   = 256

	MaxCBScriptBytes  = 128
	MaxINScriptBytes  = 2048
	MaxOUTScriptBytes = 2048
)

// Script is an opaque, executable byte sequence. Every Script begins with
// the mandatory two-byte {OP_TYPE, kind} prefix.
type Script []byte

// Kind reports the script's declared kind, read from its mandatory leading
// {OP_TYPE, kind} prefix without executing it.
func (s Script) Kind() (Kind, error) {
	if len(s) < 2 || s[0] != OP_TYPE {
		return 0, errors.New("wire: script missing type prefix")
	}
	return Kind(s[1]), nil
}

// scriptBuilder accumulates opcodes for the canonical constructors below.
type scriptBuilder struct {
	buf []byte
}

func (b *scriptBuilder) op(op byte) *scriptBuilder {
	b.buf = append(b.buf, op)
	return b
}

func (b *scriptBuilder) typ(k Kind) *scriptBuilder {
	return b.op(OP_TYPE).op(byte(k))
}

func (b *scriptBuilder) data(d []byte) *scriptBuilder {
	l := len(d)
	switch {
	case l <= 0xFF:
		b.op(OP_DATA_1)
		b.buf = append(b.buf, byte(l))
	case l <= 0xFFFF:
		b.op(OP_DATA_2)
		var lb [2]byte
		binary.LittleEndian.PutUint16(lb[:], uint16(l))
		b.buf = append(b.buf, lb[:]...)
	default:
		b.op(OP_DATA_4)
		var lb [4]byte
		binary.LittleEndian.PutUint32(lb[:], uint32(l))
		b.buf = append(b.buf, lb[:]...)
	}
	b.buf = append(b.buf, d...)
	return b
}

func (b *scriptBuilder) i32(v int32) *scriptBuilder {
	b.op(OP_NUMBER_4)
	var lb [4]byte
	binary.LittleEndian.PutUint32(lb[:], uint32(v))
	b.buf = append(b.buf, lb[:]...)
	return b
}

// CBScript builds the coinbase input script: a CB-kind script carrying the
// block height and arbitrary miner data.
func CBScript(height int32, data []byte) (Script, error) {
	b := new(scriptBuilder)
	b.typ(KindCB)
	b.i32(height)
	b.data(data)
	if len(b.buf) > MaxCBScriptBytes {
		return nil, errors.New("wire: coinbase script too large")
	}
	return Script(b.buf), nil
}

// INScript builds a spending input script: an IN-kind script pushing the
// spending account (with its signatures already attached).
func INScript(acc *chainutil.Account) (Script, error) {
	encoded, err := acc.Encode()
	if err != nil {
		return nil, err
	}
	b := new(scriptBuilder)
	b.typ(KindIN)
	b.data(encoded)
	if len(b.buf) > MaxINScriptBytes {
		return nil, errors.New("wire: input script too large")
	}
	return Script(b.buf), nil
}

// stripScriptSignatures returns s unchanged unless it is an IN-kind script,
// in which case it returns an equivalent script whose embedded account has
// had its signatures cleared. Used to compute the signature-independent
// transaction identifier.
func stripScriptSignatures(s Script) (Script, error) {
	kind, err := s.Kind()
	if err != nil || kind != KindIN {
		return s, nil
	}
	accountBytes, err := readSoleDataPush(s[2:])
	if err != nil {
		return nil, err
	}
	acc, err := chainutil.DecodeAccount(accountBytes)
	if err != nil {
		return nil, err
	}
	for i := range acc.Sigs {
		acc.Sigs[i] = nil
	}
	return INScript(acc)
}

// readSoleDataPush decodes a single OP_DATA_{1,2,4} push from the start of
// buf and returns the pushed bytes. INScript never emits anything else.
func readSoleDataPush(buf []byte) ([]byte, error) {
	if len(buf) < 1 {
		return nil, errors.New("wire: truncated script")
	}
	op := buf[0]
	buf = buf[1:]
	var l int
	switch op {
	case OP_DATA_1:
		if len(buf) < 1 {
			return nil, errors.New("wire: truncated script")
		}
		l = int(buf[0])
		buf = buf[1:]
	case OP_DATA_2:
		if len(buf) < 2 {
			return nil, errors.New("wire: truncated script")
		}
		l = int(binary.LittleEndian.Uint16(buf[:2]))
		buf = buf[2:]
	case OP_DATA_4:
		if len(buf) < 4 {
			return nil, errors.New("wire: truncated script")
		}
		l = int(binary.LittleEndian.Uint32(buf[:4]))
		buf = buf[4:]
	default:
		return nil, errors.New("wire: expected a data push")
	}
	if len(buf) < l {
		return nil, errors.New("wire: truncated script data")
	}
	return buf[:l], nil
}

// AccountBytesFromINScript extracts the encoded account pushed by an
// IN-kind script as raw bytes, for callers (the validator's signing-message
// builder) that decode it themselves with chainutil.DecodeAccount.
func AccountBytesFromINScript(s Script) ([]byte, error) {
	kind, err := s.Kind()
	if err != nil || kind != KindIN {
		return nil, errors.New("wire: not an IN-kind script")
	}
	return readSoleDataPush(s[2:])
}

// AddrFromOUTScript extracts the destination address an OUT-kind script
// pays to, for callers (the indexer, recording a new coin's owner) that
// need the address without re-running script execution.
func AddrFromOUTScript(s Script) ([32]byte, error) {
	var addr [32]byte
	kind, err := s.Kind()
	if err != nil || kind != KindOUT {
		return addr, errors.New("wire: not an OUT-kind script")
	}
	rest := s[2:]
	if len(rest) < 2 || rest[0] != OP_VERIFY_INOUT || rest[1] != OP_HASHER {
		return addr, errors.New("wire: malformed OUT script")
	}
	pushed, err := readSoleDataPush(rest[2:])
	if err != nil {
		return addr, err
	}
	if len(pushed) != 32 {
		return addr, errors.New("wire: OUT script address is not 32 bytes")
	}
	copy(addr[:], pushed)
	return addr, nil
}

// OUTScript builds an output script paying to addr:
// OP_VERIFY_INOUT, OP_HASHER, PUSH(addr), OP_EQUAL_VERIFY, OP_CHECKSIG_VERIFY.
func OUTScript(addr [32]byte) (Script, error) {
	b := new(scriptBuilder)
	b.typ(KindOUT)
	b.op(OP_VERIFY_INOUT)
	b.op(OP_HASHER)
	b.data(addr[:])
	b.op(OP_EQUAL_VERIFY)
	b.op(OP_CHECKSIG_VERIFY)
	if len(b.buf) > MaxOUTScriptBytes {
		return nil, errors.New("wire: output script too large")
	}
	return Script(b.buf), nil
}
