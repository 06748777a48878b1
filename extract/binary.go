package extract

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Compact reader for the component binary outer structure. Only the sections
// the structural backend needs are decoded: custom sections (0), imports (10)
// and exports (11); everything else is skipped by size.

// extern kinds
const (
	externCoreModule byte = 0x00
	externFunc       byte = 0x01
	externType       byte = 0x03
	externInstance   byte = 0x05
)

// sort kinds
const (
	sortCore     byte = 0x00
	sortFunc     byte = 0x01
	sortInstance byte = 0x05
)

// maxNameLength bounds allocations to prevent OOM from malformed binaries
const maxNameLength = 100000

const maxSections = 100000

// IsComponent reports whether data carries the component-model layer version
// in its wasm header. Core modules use version 1.
func IsComponent(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	if data[0] != 0x00 || data[1] != 0x61 || data[2] != 0x73 || data[3] != 0x6D {
		return false
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	return version > 1
}

// IsCoreModule reports whether data is a version-1 core wasm module.
func IsCoreModule(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	if data[0] != 0x00 || data[1] != 0x61 || data[2] != 0x73 || data[3] != 0x6D {
		return false
	}
	return binary.LittleEndian.Uint32(data[4:8]) == 1
}

type componentImport struct {
	Name       string
	ExternKind byte
}

type componentExport struct {
	Name string
	Sort byte
}

type customSection struct {
	Name string
	Data []byte
}

// componentOutline is the shallow decode of a component binary: enough to
// name its instance-level imports and exports without resolving types.
type componentOutline struct {
	Imports        []componentImport
	Exports        []componentExport
	CustomSections []customSection
}

func decodeOutline(data []byte) (*componentOutline, error) {
	if !IsComponent(data) {
		return nil, fmt.Errorf("not a component")
	}

	r := bytes.NewReader(data[8:])
	outline := &componentOutline{}

	for section := 0; ; section++ {
		if section > maxSections {
			return nil, fmt.Errorf("exceeded maximum section count %d", maxSections)
		}

		sectionID, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read section ID: %w", err)
		}

		size, err := readLEB128(r)
		if err != nil {
			return nil, fmt.Errorf("read section size: %w", err)
		}
		if size > uint32(len(data)) {
			return nil, fmt.Errorf("section %d size %d exceeds component size %d", section, size, len(data))
		}

		sectionData := make([]byte, size)
		if _, err := io.ReadFull(r, sectionData); err != nil {
			return nil, fmt.Errorf("read section data: %w", err)
		}

		switch sectionID {
		case 0:
			cs, err := decodeCustomSection(sectionData)
			if err != nil {
				return nil, fmt.Errorf("decode custom section: %w", err)
			}
			outline.CustomSections = append(outline.CustomSections, cs)
		case 10:
			imports, err := decodeImports(sectionData)
			if err != nil {
				return nil, fmt.Errorf("decode imports: %w", err)
			}
			outline.Imports = append(outline.Imports, imports...)
		case 11:
			exports, err := decodeExports(sectionData)
			if err != nil {
				return nil, fmt.Errorf("decode exports: %w", err)
			}
			outline.Exports = append(outline.Exports, exports...)
		}
	}

	return outline, nil
}

func decodeCustomSection(data []byte) (customSection, error) {
	r := bytes.NewReader(data)

	nameLen, err := readLEB128(r)
	if err != nil {
		return customSection{}, fmt.Errorf("read name length: %w", err)
	}
	if nameLen > maxNameLength || nameLen > uint32(len(data)) {
		return customSection{}, fmt.Errorf("custom section name length %d out of range", nameLen)
	}

	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return customSection{}, fmt.Errorf("read name: %w", err)
	}

	remaining := make([]byte, r.Len())
	if _, err := io.ReadFull(r, remaining); err != nil && !errors.Is(err, io.EOF) {
		return customSection{}, fmt.Errorf("read data: %w", err)
	}

	return customSection{Name: string(nameBytes), Data: remaining}, nil
}

func decodeImports(data []byte) ([]componentImport, error) {
	r := bytes.NewReader(data)

	count, err := readLEB128(r)
	if err != nil {
		return nil, err
	}
	if count > 100000 {
		return nil, fmt.Errorf("import count %d exceeds maximum", count)
	}

	imports := make([]componentImport, 0, count)

	for i := uint32(0); i < count; i++ {
		// name kind byte precedes the name; 0x01 means a version is embedded
		// in the name string
		if _, err := r.ReadByte(); err != nil {
			return nil, fmt.Errorf("import %d: read name kind: %w", i, err)
		}

		name, err := readName(r)
		if err != nil {
			return nil, fmt.Errorf("import %d: %w", i, err)
		}

		externKind, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("import %d: read extern kind: %w", i, err)
		}

		if externKind == externCoreModule {
			extra, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("import %d: read core module extra byte: %w", i, err)
			}
			if extra != 0x11 {
				return nil, fmt.Errorf("import %d: expected 0x11 after 0x00, got 0x%02x", i, extra)
			}
		}

		if externKind == externType {
			boundsKind, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("import %d: read type bounds kind: %w", i, err)
			}
			switch boundsKind {
			case 0x00:
				if _, err := readLEB128(r); err != nil {
					return nil, fmt.Errorf("import %d: read type bounds index: %w", i, err)
				}
			case 0x01:
			default:
				return nil, fmt.Errorf("import %d: unknown type bounds kind 0x%02x", i, boundsKind)
			}
		} else {
			if _, err := readLEB128(r); err != nil {
				return nil, fmt.Errorf("import %d: read type index: %w", i, err)
			}
		}

		imports = append(imports, componentImport{Name: name, ExternKind: externKind})
	}

	return imports, nil
}

func decodeExports(data []byte) ([]componentExport, error) {
	r := bytes.NewReader(data)

	count, err := readLEB128(r)
	if err != nil {
		return nil, err
	}
	if count > 100000 {
		return nil, fmt.Errorf("export count %d exceeds maximum", count)
	}

	exports := make([]componentExport, 0, count)

	for i := uint32(0); i < count; i++ {
		if _, err := r.ReadByte(); err != nil {
			return nil, fmt.Errorf("export %d: read name kind: %w", i, err)
		}

		name, err := readName(r)
		if err != nil {
			return nil, fmt.Errorf("export %d: %w", i, err)
		}

		sort, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("export %d: read sort: %w", i, err)
		}

		if sort == sortCore {
			if _, err := r.ReadByte(); err != nil {
				return nil, fmt.Errorf("export %d: read core sort: %w", i, err)
			}
		}

		if _, err := readLEB128(r); err != nil {
			return nil, fmt.Errorf("export %d: read sort index: %w", i, err)
		}

		exports = append(exports, componentExport{Name: name, Sort: sort})
	}

	return exports, nil
}

// readName reads a LEB128 length-prefixed UTF-8 string
func readName(r *bytes.Reader) (string, error) {
	length, err := readLEB128(r)
	if err != nil {
		return "", err
	}
	if length > maxNameLength {
		return "", fmt.Errorf("name too long: %d (max %d)", length, maxNameLength)
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readLEB128(r *bytes.Reader) (uint32, error) {
	var result uint32
	var shift uint
	for i := 0; i < 5; i++ { // Max 5 bytes for uint32
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 32 {
			return 0, fmt.Errorf("LEB128 value too large")
		}
	}
	return 0, fmt.Errorf("LEB128 encoding exceeded maximum length")
}
