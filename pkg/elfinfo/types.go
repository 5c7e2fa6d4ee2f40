package elfinfo

import (
	"fmt"
	"strconv"
)

// Every enumeration below keeps the raw value it was decoded from. Values
// outside the named set are reported by IsUnknown and rendered as
// UNKNOWN(0x...) so newer codes survive decoding.

type SectionType uint32

const (
	SectionNull               SectionType = 0
	SectionProgBits           SectionType = 1
	SectionSymbolTable        SectionType = 2
	SectionStringTable        SectionType = 3
	SectionRelocationAddend   SectionType = 4
	SectionHash               SectionType = 5
	SectionDynamic            SectionType = 6
	SectionNote               SectionType = 7
	SectionNoBits             SectionType = 8
	SectionRelocation         SectionType = 9
	SectionDynamicSymbolTable SectionType = 11
)

var sectionTypeNames = map[SectionType]string{
	SectionNull:               "SHT_NULL",
	SectionProgBits:           "SHT_PROGBITS",
	SectionSymbolTable:        "SHT_SYMTAB",
	SectionStringTable:        "SHT_STRTAB",
	SectionRelocationAddend:   "SHT_RELA",
	SectionHash:               "SHT_HASH",
	SectionDynamic:            "SHT_DYNAMIC",
	SectionNote:               "SHT_NOTE",
	SectionNoBits:             "SHT_NOBITS",
	SectionRelocation:         "SHT_REL",
	SectionDynamicSymbolTable: "SHT_DYNSYM",
}

func (t SectionType) IsUnknown() bool {
	_, ok := sectionTypeNames[t]
	return !ok
}

func (t SectionType) String() string {
	return enumString(sectionTypeNames, t, uint64(t))
}

// fileBacked reports whether sections of this type occupy bytes in the file.
func (t SectionType) fileBacked() bool {
	return t != SectionNull && t != SectionNoBits
}

type SegmentType uint32

const (
	SegmentNull        SegmentType = 0
	SegmentLoad        SegmentType = 1
	SegmentDynamic     SegmentType = 2
	SegmentInterp      SegmentType = 3
	SegmentNote        SegmentType = 4
	SegmentShlib       SegmentType = 5
	SegmentPhdr        SegmentType = 6
	SegmentTLS         SegmentType = 7
	SegmentNum         SegmentType = 8
	SegmentLoOS        SegmentType = 0x60000000
	SegmentGNUEHFrame  SegmentType = 0x6474e550
	SegmentGNUStack    SegmentType = 0x6474e551
	SegmentGNURelro    SegmentType = 0x6474e552
	SegmentGNUProperty SegmentType = 0x6474e553
	SegmentSunWBSS     SegmentType = 0x6ffffffa
	SegmentSunWStack   SegmentType = 0x6ffffffb
	SegmentHiOS        SegmentType = 0x6fffffff
	SegmentLoProc      SegmentType = 0x70000000
	SegmentHiProc      SegmentType = 0x7fffffff
)

var segmentTypeNames = map[SegmentType]string{
	SegmentNull:        "NULL",
	SegmentLoad:        "LOAD",
	SegmentDynamic:     "DYNAMIC",
	SegmentInterp:      "INTERP",
	SegmentNote:        "NOTE",
	SegmentShlib:       "SHLIB",
	SegmentPhdr:        "PHDR",
	SegmentTLS:         "TLS",
	SegmentNum:         "NUM",
	SegmentLoOS:        "LOOS",
	SegmentGNUEHFrame:  "GNU_EH_FRAME",
	SegmentGNUStack:    "GNU_STACK",
	SegmentGNURelro:    "GNU_RELRO",
	SegmentGNUProperty: "GNU_PROPERTY",
	SegmentSunWBSS:     "SUNWBSS",
	SegmentSunWStack:   "SUNWSTACK",
	SegmentHiOS:        "HIOS",
	SegmentLoProc:      "LOPROC",
	SegmentHiProc:      "HIPROC",
}

func (t SegmentType) IsUnknown() bool {
	_, ok := segmentTypeNames[t]
	return !ok
}

func (t SegmentType) String() string {
	return enumString(segmentTypeNames, t, uint64(t))
}

// SegmentFlags is the p_flags permission mask.
type SegmentFlags uint32

const (
	SegmentExecute SegmentFlags = 0x1
	SegmentWrite   SegmentFlags = 0x2
	SegmentRead    SegmentFlags = 0x4
)

// String renders the permissions as R, W and E letters in that order,
// omitting absent bits.
func (f SegmentFlags) String() string {
	var b []byte
	if f&SegmentRead != 0 {
		b = append(b, 'R')
	}
	if f&SegmentWrite != 0 {
		b = append(b, 'W')
	}
	if f&SegmentExecute != 0 {
		b = append(b, 'E')
	}
	return string(b)
}

// SymbolType is the low nibble of st_info.
type SymbolType uint8

const (
	SymbolNoType  SymbolType = 0
	SymbolObject  SymbolType = 1
	SymbolFunc    SymbolType = 2
	SymbolSection SymbolType = 3
	SymbolFile    SymbolType = 4
	SymbolTLS     SymbolType = 6
	SymbolNum     SymbolType = 7
	SymbolLoOS    SymbolType = 10
	SymbolHiOS    SymbolType = 12
)

var symbolTypeNames = map[SymbolType]string{
	SymbolNoType:  "NOTYPE",
	SymbolObject:  "OBJECT",
	SymbolFunc:    "FUNC",
	SymbolSection: "SECTION",
	SymbolFile:    "FILE",
	SymbolTLS:     "TLS",
	SymbolNum:     "NUM",
	SymbolLoOS:    "LOOS",
	SymbolHiOS:    "HIOS",
}

func (t SymbolType) IsUnknown() bool {
	_, ok := symbolTypeNames[t]
	return !ok
}

func (t SymbolType) String() string {
	return enumString(symbolTypeNames, t, uint64(t))
}

// SymbolBind is the high nibble of st_info.
type SymbolBind uint8

const (
	BindLocal  SymbolBind = 0
	BindGlobal SymbolBind = 1
	BindWeak   SymbolBind = 2
	BindNum    SymbolBind = 3
	BindUnique SymbolBind = 10
	BindHiOS   SymbolBind = 12
	BindLoProc SymbolBind = 13
)

var symbolBindNames = map[SymbolBind]string{
	BindLocal:  "LOCAL",
	BindGlobal: "GLOBAL",
	BindWeak:   "WEAK",
	BindNum:    "NUM",
	BindUnique: "UNIQUE",
	BindHiOS:   "HIOS",
	BindLoProc: "LOPROC",
}

func (b SymbolBind) IsUnknown() bool {
	_, ok := symbolBindNames[b]
	return !ok
}

func (b SymbolBind) String() string {
	return enumString(symbolBindNames, b, uint64(b))
}

// SymbolVisibility is the low two bits of st_other.
type SymbolVisibility uint8

const (
	VisibilityDefault   SymbolVisibility = 0
	VisibilityInternal  SymbolVisibility = 1
	VisibilityHidden    SymbolVisibility = 2
	VisibilityProtected SymbolVisibility = 3
)

var symbolVisibilityNames = map[SymbolVisibility]string{
	VisibilityDefault:   "DEFAULT",
	VisibilityInternal:  "INTERNAL",
	VisibilityHidden:    "HIDDEN",
	VisibilityProtected: "PROTECTED",
}

func (v SymbolVisibility) IsUnknown() bool {
	_, ok := symbolVisibilityNames[v]
	return !ok
}

func (v SymbolVisibility) String() string {
	return enumString(symbolVisibilityNames, v, uint64(v))
}

// SectionIndex is a symbol's st_shndx: either the index of a section or
// one of the reserved values SectionUndefined, SectionAbsolute and
// SectionCommon.
type SectionIndex uint16

const (
	SectionUndefined SectionIndex = 0
	SectionAbsolute  SectionIndex = 0xfff1
	SectionCommon    SectionIndex = 0xfff2
)

// IsReserved reports whether the index is one of the symbolic sentinels.
func (i SectionIndex) IsReserved() bool {
	switch i {
	case SectionUndefined, SectionAbsolute, SectionCommon:
		return true
	}
	return false
}

func (i SectionIndex) String() string {
	switch i {
	case SectionUndefined:
		return "UND"
	case SectionAbsolute:
		return "ABS"
	case SectionCommon:
		return "COM"
	}
	return strconv.Itoa(int(i))
}

// RelocationKind is the x86-64 relocation type held in the low 32 bits of
// r_info. Kinds outside the named set render as OTHERS.
type RelocationKind uint32

const (
	RelocationX86_64_64        RelocationKind = 1
	RelocationX86_64_PC32      RelocationKind = 2
	RelocationX86_64_COPY      RelocationKind = 5
	RelocationX86_64_GLOB_DAT  RelocationKind = 6
	RelocationX86_64_JUMP_SLOT RelocationKind = 7
	RelocationX86_64_RELATIVE  RelocationKind = 8
	RelocationX86_64_32        RelocationKind = 10
)

var relocationKindNames = map[RelocationKind]string{
	RelocationX86_64_64:        "R_X86_64_64",
	RelocationX86_64_PC32:      "R_X86_64_PC32",
	RelocationX86_64_COPY:      "R_X86_64_COPY",
	RelocationX86_64_GLOB_DAT:  "R_X86_64_GLOB_DAT",
	RelocationX86_64_JUMP_SLOT: "R_X86_64_JUMP_SLOT",
	RelocationX86_64_RELATIVE:  "R_X86_64_RELATIVE",
	RelocationX86_64_32:        "R_X86_64_32",
}

func (k RelocationKind) IsUnknown() bool {
	_, ok := relocationKindNames[k]
	return !ok
}

func (k RelocationKind) String() string {
	if name, ok := relocationKindNames[k]; ok {
		return name
	}
	return "OTHERS"
}

func enumString[T comparable](names map[T]string, v T, raw uint64) string {
	if name, ok := names[v]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%x)", raw)
}
