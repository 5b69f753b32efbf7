package wasm

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Binary encoding utilities.

func writeByte(buf *bytes.Buffer, b byte) {
	buf.WriteByte(b)
}

func writeBytes(buf *bytes.Buffer, data []byte) {
	buf.Write(data)
}

func writeLEB128(buf *bytes.Buffer, val uint32) {
	for val >= 0x80 {
		buf.WriteByte(byte(val&0x7F) | 0x80)
		val >>= 7
	}
	buf.WriteByte(byte(val & 0x7F))
}

func writeLEB128Signed(buf *bytes.Buffer, val int64) {
	for {
		b := byte(val & 0x7F)
		val >>= 7

		if (val == 0 && (b&0x40) == 0) || (val == -1 && (b&0x40) != 0) {
			buf.WriteByte(b)
			break
		}

		buf.WriteByte(b | 0x80)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	writeLEB128(buf, uint32(len(s)))
	buf.WriteString(s)
}

func writeF64(buf *bytes.Buffer, v float64) {
	buf.Write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)))
}

// writeSection writes a section with its id and size prefix.
func writeSection(buf *bytes.Buffer, id byte, content *bytes.Buffer) {
	writeByte(buf, id)
	writeLEB128(buf, uint32(content.Len()))
	writeBytes(buf, content.Bytes())
}

func writeHeader(buf *bytes.Buffer) {
	// magic number
	writeBytes(buf, []byte{0x00, 0x61, 0x73, 0x6D})
	// version
	writeBytes(buf, []byte{0x01, 0x00, 0x00, 0x00})
}

// Section ids.
const (
	sectionType     = 0x01
	sectionImport   = 0x02
	sectionFunction = 0x03
	sectionExport   = 0x07
	sectionCode     = 0x0A
)

// Value and definition types.
const (
	typeI32  = 0x7F
	typeF64  = 0x7C
	typeFunc = 0x60

	kindFunc = 0x00
)

// Opcodes.
const (
	opLocalGet = 0x20
	opCall     = 0x10
	opEnd      = 0x0B

	opI32Const = 0x41
	opI32Add   = 0x6A
	opI32Sub   = 0x6B
	opI32Mul   = 0x6C
	opI32DivS  = 0x6D

	opF64Const = 0x44
	opF64Neg   = 0x9A
	opF64Add   = 0xA0
	opF64Sub   = 0xA1
	opF64Mul   = 0xA2
	opF64Div   = 0xA3
)
