// SPDX-License-Identifier: MPL-2.0

package testutil

// WasmImport is a function imported by a module built with WasmModule.
type WasmImport struct {
	Module string
	Name   string
}

const (
	wasmSectionType     = 0x01
	wasmSectionImport   = 0x02
	wasmSectionFunction = 0x03
	wasmSectionExport   = 0x07
	wasmSectionCode     = 0x0a

	wasmKindFunc = 0x00
)

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// WasmModule encodes a minimal valid WebAssembly module. Every import is a
// function of type () -> (), and every export names the module's single
// defined function, which does nothing.
func WasmModule(imports []WasmImport, exports []string) []byte {
	out := append([]byte(nil), wasmHeader...)

	// type 0: () -> ()
	out = appendSection(out, wasmSectionType, []byte{0x01, 0x60, 0x00, 0x00})

	if len(imports) > 0 {
		content := appendULEB128(nil, uint32(len(imports)))
		for _, imp := range imports {
			content = appendName(content, imp.Module)
			content = appendName(content, imp.Name)
			content = append(content, wasmKindFunc, 0x00)
		}
		out = appendSection(out, wasmSectionImport, content)
	}

	out = appendSection(out, wasmSectionFunction, []byte{0x01, 0x00})

	if len(exports) > 0 {
		// Imported functions come first in the function index space.
		funcIndex := uint32(len(imports))
		content := appendULEB128(nil, uint32(len(exports)))
		for _, name := range exports {
			content = appendName(content, name)
			content = append(content, wasmKindFunc)
			content = appendULEB128(content, funcIndex)
		}
		out = appendSection(out, wasmSectionExport, content)
	}

	// one body: no locals, end
	return appendSection(out, wasmSectionCode, []byte{0x01, 0x02, 0x00, 0x0b})
}

// WasiCommand is a module importing fd_write and proc_exit from WASI and
// exporting _start.
func WasiCommand() []byte {
	return WasmModule([]WasmImport{
		{Module: "wasi_snapshot_preview1", Name: "fd_write"},
		{Module: "wasi_snapshot_preview1", Name: "proc_exit"},
	}, []string{"_start"})
}

func appendSection(out []byte, id byte, content []byte) []byte {
	out = append(out, id)
	out = appendULEB128(out, uint32(len(content)))
	return append(out, content...)
}

func appendName(out []byte, name string) []byte {
	out = appendULEB128(out, uint32(len(name)))
	return append(out, name...)
}

func appendULEB128(out []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}
