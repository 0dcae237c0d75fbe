// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"bytes"
	"encoding/binary"
)

const (
	machoMagic64    = 0xfeedfacf
	machoCPUArm64   = 0x0100000c
	machoTypeDylib  = 0x6
	lcIDDylib       = 0xd
	lcLoadDylib     = 0xc
	dylibCmdHdrSize = 24
)

// ThinDylib returns a minimal arm64 dylib identified by installName that
// regularly loads every dep. It has no segments, only dylib commands.
func ThinDylib(installName string, deps ...string) []byte {
	var cmds bytes.Buffer
	putDylib(&cmds, lcIDDylib, installName)
	for _, d := range deps {
		putDylib(&cmds, lcLoadDylib, d)
	}

	var buf bytes.Buffer
	for _, v := range []uint32{machoMagic64, machoCPUArm64, 0, machoTypeDylib, uint32(1 + len(deps)), uint32(cmds.Len()), 0, 0} {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.Write(cmds.Bytes())
	return buf.Bytes()
}

func putDylib(buf *bytes.Buffer, cmd uint32, name string) {
	size := uint32(dylibCmdHdrSize + len(name) + 1)
	if size%8 != 0 {
		size += 8 - size%8
	}
	for _, v := range []uint32{cmd, size, dylibCmdHdrSize, 2, 0x10000, 0x10000} {
		_ = binary.Write(buf, binary.LittleEndian, v)
	}
	name0 := make([]byte, int(size)-dylibCmdHdrSize)
	copy(name0, name)
	buf.Write(name0)
}
