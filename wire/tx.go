// Copyright (c) 2024 The btx developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/btxsuite/btx/chainhash"
)

// TxIn is a transaction input: a reference to a previously confirmed
// output, an unlocking script, and a sequence number.
type TxIn struct {
	Out    chainhash.Hash
	Idx    uint16
	Script Script
	Seq    uint32
}

// IsCoinbase reports whether in is the null-outpoint, CB-kind input that
// only ever appears as a coinbase transaction's sole input.
func (in *TxIn) IsCoinbase() bool {
	var zero chainhash.Hash
	if in.Out != zero || in.Idx != 0 {
		return false
	}
	kind, err := in.Script.Kind()
	return err == nil && kind == KindCB
}

// TxOut is a transaction output: a value and a locking script.
type TxOut struct {
	Value  int64
	Script Script
}

// Tx is a transaction: a version, inputs, and outputs.
type Tx struct {
	Ver  uint32
	Ins  []TxIn
	Outs []TxOut
}

// IsCoinbase reports whether tx's sole input is a coinbase input.
func (tx *Tx) IsCoinbase() bool {
	return len(tx.Ins) == 1 && tx.Ins[0].IsCoinbase()
}

// writeScript writes a Script using a varint length encoding: one byte if
// the high bit is clear (0..127), else a 2-byte big-endian form with the
// high bit of the first byte set and the remaining 15 bits the length
// (max 32767).
func writeScript(w io.Writer, s Script) error {
	l := len(s)
	if l > 32767 {
		return errors.New("wire: script exceeds maximum representable length")
	}
	if l <= 127 {
		if _, err := w.Write([]byte{byte(l)}); err != nil {
			return err
		}
	} else {
		var lb [2]byte
		binary.BigEndian.PutUint16(lb[:], uint16(l)|0x8000)
		if _, err := w.Write(lb[:]); err != nil {
			return err
		}
	}
	_, err := w.Write(s)
	return err
}

func readScript(r io.Reader) (Script, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return nil, err
	}
	var l int
	if b[0]&0x80 == 0 {
		l = int(b[0])
	} else {
		var b2 [1]byte
		if _, err := io.ReadFull(r, b2[:]); err != nil {
			return nil, err
		}
		l = (int(b[0]&0x7F) << 8) | int(b2[0])
	}
	if l > MaxScriptBytes {
		return nil, errors.New("wire: script exceeds maximum size")
	}
	data := make([]byte, l)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return Script(data), nil
}

// Serialize writes the encoded input to w: 32B out, u16 idx, Script, u32 seq.
func (in *TxIn) Serialize(w io.Writer) error {
	if _, err := w.Write(in.Out[:]); err != nil {
		return err
	}
	if err := writeUint16(w, in.Idx); err != nil {
		return err
	}
	if err := writeScript(w, in.Script); err != nil {
		return err
	}
	return writeUint32(w, in.Seq)
}

// Deserialize reads an encoded input from r.
func (in *TxIn) Deserialize(r io.Reader) error {
	if _, err := io.ReadFull(r, in.Out[:]); err != nil {
		return err
	}
	idx, err := readUint16(r)
	if err != nil {
		return err
	}
	in.Idx = idx
	script, err := readScript(r)
	if err != nil {
		return err
	}
	in.Script = script
	seq, err := readUint32(r)
	if err != nil {
		return err
	}
	in.Seq = seq
	return nil
}

// Serialize writes the encoded output to w: i64 value, Script.
func (out *TxOut) Serialize(w io.Writer) error {
	if err := writeInt64(w, out.Value); err != nil {
		return err
	}
	return writeScript(w, out.Script)
}

// Deserialize reads an encoded output from r.
func (out *TxOut) Deserialize(r io.Reader) error {
	v, err := readInt64(r)
	if err != nil {
		return err
	}
	out.Value = v
	script, err := readScript(r)
	if err != nil {
		return err
	}
	out.Script = script
	return nil
}

// Serialize writes the encoded transaction to w: u32 ver, u16 in_count,
// ins, u16 out_count, outs.
func (tx *Tx) Serialize(w io.Writer) error {
	if err := writeUint32(w, tx.Ver); err != nil {
		return err
	}
	if len(tx.Ins) > 0xFFFF || len(tx.Outs) > 0xFFFF {
		return errors.New("wire: too many inputs or outputs")
	}
	if err := writeUint16(w, uint16(len(tx.Ins))); err != nil {
		return err
	}
	for i := range tx.Ins {
		if err := tx.Ins[i].Serialize(w); err != nil {
			return err
		}
	}
	if err := writeUint16(w, uint16(len(tx.Outs))); err != nil {
		return err
	}
	for i := range tx.Outs {
		if err := tx.Outs[i].Serialize(w); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize reads an encoded transaction from r.
func (tx *Tx) Deserialize(r io.Reader) error {
	ver, err := readUint32(r)
	if err != nil {
		return err
	}
	tx.Ver = ver

	inCount, err := readUint16(r)
	if err != nil {
		return err
	}
	tx.Ins = make([]TxIn, inCount)
	for i := range tx.Ins {
		if err := tx.Ins[i].Deserialize(r); err != nil {
			return err
		}
	}

	outCount, err := readUint16(r)
	if err != nil {
		return err
	}
	tx.Outs = make([]TxOut, outCount)
	for i := range tx.Outs {
		if err := tx.Outs[i].Deserialize(r); err != nil {
			return err
		}
	}
	return nil
}

// Bytes returns the encoded transaction.
func (tx *Tx) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TxFromBytes decodes a Tx from its encoded form.
func TxFromBytes(b []byte) (*Tx, error) {
	tx := new(Tx)
	if err := tx.Deserialize(bytes.NewReader(b)); err != nil {
		return nil, err
	}
	return tx, nil
}

// ID is the transaction identifier: the double hash of the transaction's
// canonical for-signature encoding. That encoding is identical to the wire
// encoding except that every IN-kind input script carries its account with
// signatures stripped, so the identifier is stable across incremental
// multisig signing and cannot be mutated by re-signing alone.
func (tx *Tx) ID() (chainhash.Hash, error) {
	stripped, err := tx.signatureStrippedCopy()
	if err != nil {
		return chainhash.Hash{}, err
	}
	b, err := stripped.Bytes()
	if err != nil {
		return chainhash.Hash{}, err
	}
	return chainhash.HashH(b), nil
}

// signatureStrippedCopy returns a copy of tx in which every IN-kind input's
// embedded account has had its signatures cleared.
func (tx *Tx) signatureStrippedCopy() (*Tx, error) {
	out := &Tx{Ver: tx.Ver, Outs: tx.Outs}
	out.Ins = make([]TxIn, len(tx.Ins))
	for i, in := range tx.Ins {
		stripped, err := stripScriptSignatures(in.Script)
		if err != nil {
			return nil, err
		}
		out.Ins[i] = TxIn{Out: in.Out, Idx: in.Idx, Script: stripped, Seq: in.Seq}
	}
	return out, nil
}

func writeUint16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeInt64(w io.Writer, v int64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	_, err := w.Write(b[:])
	return err
}

func readUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readInt64(r io.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
