package elfinfo

import (
	"debug/elf"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flightctl/elf-parser/internal/elftest"
)

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.out")
	require.NoError(t, os.WriteFile(path, build(dynamicExecutable()), 0o755))

	info, err := ReadFile(path)
	require.NoError(t, err)
	require.True(t, info.IsElf)
	require.False(t, info.IsStatic)
	require.Equal(t, elf.ET_EXEC, info.Type)
	require.Equal(t, uint64(0x1050), info.Entry)
	require.Equal(t, interpPath, info.Interpreter)
	require.Contains(t, info.Sections, ".text")
	require.Equal(t, ".plt", info.Sections[secPlt])
	require.Len(t, info.Symbols, 10)
	require.NotNil(t, info.ABI)
	require.Equal(t, "Linux", info.ABI.OS)
}

func TestReadFileStatic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "static")
	b := &elftest.Builder{
		Type:     elf.ET_EXEC,
		Sections: []elftest.Section{{Name: ".text", Type: elf.SHT_PROGBITS, Data: []byte{0xc3}}},
		Segments: []elftest.Segment{{Type: elf.PT_LOAD, Flags: elf.PF_R | elf.PF_X}},
	}
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o755))

	info, err := ReadFile(path)
	require.NoError(t, err)
	require.True(t, info.IsStatic)
	require.Empty(t, info.Interpreter)
	require.Nil(t, info.ABI)
	require.Equal(t, []string{".text", ".shstrtab"}, info.Sections)
}

func TestReadFileNotElf(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho hello, this is not an ELF image at all\n"+string(make([]byte, 64))), 0o755))

	_, err := ReadFile(path)
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestInspectTruncated(t *testing.T) {
	buf := build(dynamicExecutable())
	img, err := New(buf[:len(buf)-1])
	require.NoError(t, err)

	_, err = Inspect(img)
	require.ErrorIs(t, err, ErrTruncatedTable)
	require.ErrorContains(t, err, "failed to read sections")
}

func TestInspectMalformedNote(t *testing.T) {
	b := &elftest.Builder{
		Type:     elf.ET_EXEC,
		Sections: []elftest.Section{{Name: ".note.ABI-tag", Type: elf.SHT_NOTE, Data: elftest.Note("GNU", 1, []byte{0, 0, 0, 0})}},
	}
	img := newImage(t, b)

	_, err := Inspect(img)
	require.ErrorIs(t, err, ErrMalformedNote)
	require.NotErrorIs(t, err, ErrUnsupportedFormat)
	require.ErrorContains(t, err, "failed to read ABI tag")
}
